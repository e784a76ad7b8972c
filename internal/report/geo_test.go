package report

import (
	"reflect"
	"testing"
)

func TestRegion(t *testing.T) {
	tests := []struct {
		territory string
		want      string
	}{
		{"Japan", "Japan"},
		{"United States", "North America"},
		{"Canada", "North America"},
		{"Mexico", "LATAM"},
		{"Brazil", "LATAM"},
		{"France", "EMEA"},
		{"Nordics", "EMEA"},
		{"Australia", "APAC"},
		{"South Korea", "APAC"},
		{"Atlantis", "Other"},
		{"", "Other"},
	}
	for _, tt := range tests {
		if got := Region(tt.territory); got != tt.want {
			t.Errorf("Region(%q) = %q, want %q", tt.territory, got, tt.want)
		}
	}
}

func TestCountryCodes(t *testing.T) {
	tests := []struct {
		territory string
		want      []string
	}{
		{"Japan", []string{"JP"}},
		{"Nordics", []string{"SE", "NO", "DK", "FI"}},
		{"Atlantis", nil},
		{"", nil},
	}
	for _, tt := range tests {
		if got := CountryCodes(tt.territory); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("CountryCodes(%q) = %v, want %v", tt.territory, got, tt.want)
		}
	}
}
