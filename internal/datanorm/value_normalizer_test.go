package datanorm

import "testing"

func TestParseMetricValue(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		present bool
	}{
		{"1234", 1234, true},
		{"1,234,567", 1234567, true},
		{" 42 ", 42, true},
		{"0.123", 0.123, true},
		{"12.5%", 0.125, true},
		{"100%", 1.0, true},
		{"", 0, false},
		{"   ", 0, false},
		{"n/a", 0, false},
	}
	for _, tt := range tests {
		got, present := parseMetricValue(tt.in)
		if present != tt.present {
			t.Errorf("parseMetricValue(%q) present = %v, want %v", tt.in, present, tt.present)
			continue
		}
		if present && got != tt.want {
			t.Errorf("parseMetricValue(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"483920", "483920"},
		{"483920.0", "483920"},
		{"483920.00", "483920"},
		{"483920.5", "483920.5"},
		{" B-001 ", "B-001"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeID(tt.in); got != tt.want {
			t.Errorf("NormalizeID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://shop.example.com/p/1", "https://shop.example.com/p/1"},
		{"shop.example.com/p/1", "https://shop.example.com/p/1"},
		{"http://shop.example.com", "http://shop.example.com"},
		{"  ", ""},
	}
	for _, tt := range tests {
		if got := normalizeURL(tt.in); got != tt.want {
			t.Errorf("normalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
