package reference

import (
	"reflect"
	"strings"
	"testing"

	"github.com/ignite/casedeck/internal/datanorm"
)

func TestJoin(t *testing.T) {
	table, err := ParseTable(strings.NewReader(sampleSheet), LastWins)
	if err != nil {
		t.Fatalf("ParseTable error: %v", err)
	}

	rows := []datanorm.Row{
		{BusinessID: "1001", PageURL: "https://acme.example.com/clip/1"},
		{BusinessID: "1002", PageURL: "https://nimbus.example.jp/live/2"},
		{BusinessID: "9999", PageURL: "https://unknown.example.com/clip/3"},
	}

	matched := Join(rows, table)
	if matched != 2 {
		t.Errorf("matched = %d, want 2", matched)
	}

	if rows[0].AccountName != "Acme Outfitters" || rows[0].Industry != "Retail" || rows[0].Territory != "US" {
		t.Errorf("rows[0] = %+v", rows[0])
	}
	if rows[1].AccountName != "Nimbus Foods" {
		t.Errorf("rows[1].AccountName = %q", rows[1].AccountName)
	}

	// Unmatched rows stay in the set with blanks.
	if rows[2].AccountName != "" || rows[2].Industry != "" || rows[2].Territory != "" {
		t.Errorf("unmatched row gained fields: %+v", rows[2])
	}
}

func TestJoinIdempotent(t *testing.T) {
	table, err := ParseTable(strings.NewReader(sampleSheet), LastWins)
	if err != nil {
		t.Fatalf("ParseTable error: %v", err)
	}

	rows := []datanorm.Row{{BusinessID: "1001"}}
	Join(rows, table)
	first := rows[0]

	Join(rows, table)
	if !reflect.DeepEqual(rows[0], first) {
		t.Errorf("second join changed the row: %+v -> %+v", first, rows[0])
	}
}

func TestJoinKeepsSourceValues(t *testing.T) {
	table, err := ParseTable(strings.NewReader(sampleSheet), LastWins)
	if err != nil {
		t.Fatalf("ParseTable error: %v", err)
	}

	rows := []datanorm.Row{{BusinessID: "1001", Industry: "Apparel"}}
	Join(rows, table)

	if rows[0].Industry != "Apparel" {
		t.Errorf("Industry = %q, source value should win", rows[0].Industry)
	}
	if rows[0].AccountName != "Acme Outfitters" {
		t.Errorf("AccountName = %q, empty field should be filled", rows[0].AccountName)
	}
}

func TestJoinEmptyRows(t *testing.T) {
	table, err := ParseTable(strings.NewReader(sampleSheet), LastWins)
	if err != nil {
		t.Fatalf("ParseTable error: %v", err)
	}
	if matched := Join(nil, table); matched != 0 {
		t.Errorf("matched = %d, want 0", matched)
	}
}
