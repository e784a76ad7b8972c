package export

import (
	"bytes"
	"encoding/csv"
	"reflect"
	"strings"
	"testing"

	"github.com/ignite/casedeck/internal/datanorm"
	"github.com/ignite/casedeck/internal/pipeline"
)

func sampleRows() []datanorm.Row {
	full := datanorm.Row{
		CaseType:        datanorm.CaseShortVideo,
		PageURL:         "https://acme.example.com/v/1",
		BusinessID:      "1001",
		BusinessName:    "Acme Outfitters",
		BusinessCountry: "US",
		ChannelID:       "c-1",
		ChannelName:     "Acme Main",
		AccountName:     "Acme",
		Industry:        "Retail",
		Territory:       "US",
	}
	full.SetMetric(datanorm.MetricVideoViews, 3400)
	full.SetMetric(datanorm.MetricThumbnailImpressions, 12000)
	full.SetMetric(datanorm.MetricViewthroughRate, 0.125)
	full.SetMetric(datanorm.MetricClickthroughRate, 0.04)
	full.SetMetric(datanorm.MetricA2CRate, 0.011)

	sparse := datanorm.Row{
		CaseType:        datanorm.CaseShortVideo,
		PageURL:         "https://nimbus.example.jp/v/2",
		BusinessID:      "1002",
		BusinessName:    "Nimbus Foods",
		BusinessCountry: "JP",
		ChannelID:       "c-2",
		ChannelName:     "Nimbus JP",
	}
	sparse.SetMetric(datanorm.MetricVideoViews, 50)

	return []datanorm.Row{full, sparse}
}

func TestColumns(t *testing.T) {
	rowHeader := Columns(false)
	wantRow := []string{
		"Account Name", "Industry", "Territory", "Case Type", "Business Id",
		"Business Name", "Business Country", "Channel Id", "Channel Name", "Page Url",
		"VIDEO_VIEWS", "THUMBNAIL_IMPRESSIONS", "VIEWTHROUGH_RATE", "CLICKTHROUGH_RATE", "A2C_RATE",
	}
	if !reflect.DeepEqual(rowHeader, wantRow) {
		t.Errorf("Columns(false) = %v", rowHeader)
	}

	groupHeader := Columns(true)
	wantGroup := []string{
		"Domain", "Account Name", "Industry", "Territory", "Sample Count",
		"VIDEO_VIEWS", "THUMBNAIL_IMPRESSIONS", "VIEWTHROUGH_RATE", "CLICKTHROUGH_RATE", "A2C_RATE",
	}
	if !reflect.DeepEqual(groupHeader, wantGroup) {
		t.Errorf("Columns(true) = %v", groupHeader)
	}
}

// Re-parsing a row-level CSV export must reproduce the identity fields and
// metric values, with absent metrics staying absent.
func TestWriteCSVRoundTrip(t *testing.T) {
	ws := pipeline.FromRows(sampleRows())

	var buf bytes.Buffer
	if err := WriteCSV(&buf, ws); err != nil {
		t.Fatalf("WriteCSV error: %v", err)
	}

	parsed, err := datanorm.ParseSource(&buf, "export.csv", datanorm.CaseShortVideo)
	if err != nil {
		t.Fatalf("re-parse error: %v", err)
	}
	assertRoundTrip(t, ws.Rows, parsed.Rows)
}

func TestWriteXLSXRoundTrip(t *testing.T) {
	ws := pipeline.FromRows(sampleRows())

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, ws); err != nil {
		t.Fatalf("WriteXLSX error: %v", err)
	}

	parsed, err := datanorm.ParseSource(&buf, "export.xlsx", datanorm.CaseShortVideo)
	if err != nil {
		t.Fatalf("re-parse error: %v", err)
	}
	assertRoundTrip(t, ws.Rows, parsed.Rows)
}

func assertRoundTrip(t *testing.T, want, got []datanorm.Row) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("rows = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].BusinessID != want[i].BusinessID ||
			got[i].BusinessName != want[i].BusinessName ||
			got[i].BusinessCountry != want[i].BusinessCountry ||
			got[i].ChannelID != want[i].ChannelID ||
			got[i].ChannelName != want[i].ChannelName ||
			got[i].PageURL != want[i].PageURL {
			t.Errorf("row %d identity fields changed: %+v vs %+v", i, got[i], want[i])
		}
		for _, m := range datanorm.AllMetrics {
			wv, wok := want[i].MetricValue(m)
			gv, gok := got[i].MetricValue(m)
			if wok != gok {
				t.Errorf("row %d %s presence = %v, want %v", i, m, gok, wok)
				continue
			}
			if wok && wv != gv {
				t.Errorf("row %d %s = %v, want %v", i, m, gv, wv)
			}
		}
	}
}

func TestWriteCSVGrouped(t *testing.T) {
	ws := &pipeline.WorkingSet{
		Grouped: true,
		Groups: []pipeline.Group{
			{
				Domain:      "https://acme.example.com",
				AccountName: "Acme",
				Industry:    "Retail",
				Territory:   "US",
				SampleCount: 2,
				Metrics: map[datanorm.Metric]float64{
					datanorm.MetricVideoViews:      35,
					datanorm.MetricViewthroughRate: 0.2,
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, ws); err != nil {
		t.Fatalf("WriteCSV error: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("reading back: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want header + 1", len(records))
	}

	row := records[1]
	if row[0] != "https://acme.example.com" || row[4] != "2" {
		t.Errorf("domain/sample count = %q/%q", row[0], row[4])
	}
	if row[5] != "35" {
		t.Errorf("VIDEO_VIEWS cell = %q, want 35", row[5])
	}
	// Missing metrics are empty cells, never "0".
	if row[6] != "" {
		t.Errorf("THUMBNAIL_IMPRESSIONS cell = %q, want empty", row[6])
	}
	if row[7] != "0.2" {
		t.Errorf("VIEWTHROUGH_RATE cell = %q, want 0.2", row[7])
	}
}

func TestRecords(t *testing.T) {
	ws := pipeline.FromRows(sampleRows())
	records := Records(ws)
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}

	if records[0]["Account Name"] != "Acme" {
		t.Errorf("Account Name = %v", records[0]["Account Name"])
	}
	if records[0]["VIDEO_VIEWS"] != 3400.0 {
		t.Errorf("VIDEO_VIEWS = %v", records[0]["VIDEO_VIEWS"])
	}
	// Absent metrics serialize as explicit nulls, keeping the key set stable.
	if v, present := records[1]["A2C_RATE"]; !present || v != nil {
		t.Errorf("sparse A2C_RATE = %v (present=%v), want nil", v, present)
	}
}

func TestRecordsGrouped(t *testing.T) {
	ws := &pipeline.WorkingSet{
		Grouped: true,
		Groups: []pipeline.Group{
			{Domain: "https://a.example.com", SampleCount: 3, Metrics: map[datanorm.Metric]float64{}},
		},
	}
	records := Records(ws)
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0]["Domain"] != "https://a.example.com" || records[0]["Sample Count"] != 3 {
		t.Errorf("record = %v", records[0])
	}
}

func TestFormatMetric(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{3400, "3400"},
		{0.125, "0.125"},
		{35, "35"},
		{2.5, "2.5"},
	}
	for _, tt := range tests {
		if got := formatMetric(tt.in); got != tt.want {
			t.Errorf("formatMetric(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
