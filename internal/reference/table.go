// Package reference loads the shared account reference sheet and joins its
// records onto normalized performance rows. The sheet is a hosted CSV export
// keyed by business id; rows that match gain account name, industry and
// owner territory, rows that don't keep blanks and stay in the set.
package reference

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"

	"github.com/ignite/casedeck/internal/datanorm"
)

// Record is one reference-table entry.
type Record struct {
	BusinessID  string
	AccountName string
	Industry    string
	Territory   string
}

// DuplicatePolicy decides which record survives when the sheet repeats a
// business id.
type DuplicatePolicy string

const (
	// LastWins keeps the latest occurrence. Matches how analysts use the
	// sheet: corrections are appended at the bottom.
	LastWins DuplicatePolicy = "last_wins"
	// FirstWins keeps the earliest occurrence.
	FirstWins DuplicatePolicy = "first_wins"
)

// ErrUnknownPolicy is returned for duplicate policies other than
// last_wins/first_wins.
var ErrUnknownPolicy = errors.New("unknown duplicate policy")

// ParsePolicy resolves a configured policy name, tolerating case and
// separator variations. Empty selects LastWins.
func ParsePolicy(s string) (DuplicatePolicy, error) {
	switch datanorm.FoldHeader(s) {
	case "", string(LastWins), "lastwins":
		return LastWins, nil
	case string(FirstWins), "firstwins":
		return FirstWins, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

// Table is an immutable business_id -> Record index built from one sheet
// fetch. Lookups normalize ids the same way the row normalizer does.
type Table struct {
	records    map[string]Record
	duplicates int
}

// Lookup returns the record for a business id, normalizing the key first.
func (t *Table) Lookup(businessID string) (Record, bool) {
	if t == nil {
		return Record{}, false
	}
	rec, ok := t.records[datanorm.NormalizeID(businessID)]
	return rec, ok
}

// Len reports the number of distinct business ids in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// Duplicates reports how many sheet rows were shadowed by the duplicate
// policy while building the table.
func (t *Table) Duplicates() int {
	if t == nil {
		return 0
	}
	return t.duplicates
}

// Industries returns the sorted distinct non-empty industry values. Used to
// populate filter option lists.
func (t *Table) Industries() []string {
	return t.distinct(func(r Record) string { return r.Industry })
}

// Territories returns the sorted distinct non-empty territory values.
func (t *Table) Territories() []string {
	return t.distinct(func(r Record) string { return r.Territory })
}

func (t *Table) distinct(field func(Record) string) []string {
	if t == nil {
		return nil
	}
	seen := make(map[string]bool, len(t.records))
	var out []string
	for _, rec := range t.records {
		v := strings.TrimSpace(field(rec))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Reference sheet columns, folded. The account fields come out of the CRM
// export prefixed with "Account:"; bare names are accepted too so a
// hand-maintained sheet keeps working.
var (
	idColumns        = []string{"business_id", "businessid"}
	nameColumns      = []string{"account_account_name", "account_name", "accountname"}
	industryColumns  = []string{"account_industry", "industry"}
	territoryColumns = []string{"account_owner_territory", "owner_territory", "territory"}
)

// ErrNoHeader is returned when the sheet export has no non-empty rows.
var ErrNoHeader = errors.New("reference sheet has no header row")

// ParseTable reads the CSV export of the reference sheet and indexes it by
// business id. Rows with an empty id are skipped. A missing business id
// column is an error; the other columns degrade to blanks when absent.
func ParseTable(r io.Reader, policy DuplicatePolicy) (*Table, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading reference csv: %w", err)
	}

	headerIdx := -1
	for i, rec := range records {
		if !emptyRecord(rec) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, ErrNoHeader
	}

	folded := make(map[string]int, len(records[headerIdx]))
	for i, h := range records[headerIdx] {
		key := datanorm.FoldHeader(h)
		if _, taken := folded[key]; !taken {
			folded[key] = i
		}
	}
	idCol, ok := findColumn(folded, idColumns)
	if !ok {
		return nil, fmt.Errorf("reference sheet missing %q column", "Business Id")
	}
	nameCol, _ := findColumn(folded, nameColumns)
	industryCol, _ := findColumn(folded, industryColumns)
	territoryCol, _ := findColumn(folded, territoryColumns)

	t := &Table{records: make(map[string]Record, len(records)-headerIdx-1)}
	for _, rec := range records[headerIdx+1:] {
		id := datanorm.NormalizeID(cellAt(rec, idCol))
		if id == "" {
			continue
		}
		if _, exists := t.records[id]; exists {
			t.duplicates++
			if policy == FirstWins {
				continue
			}
		}
		t.records[id] = Record{
			BusinessID:  id,
			AccountName: strings.TrimSpace(cellAt(rec, nameCol)),
			Industry:    strings.TrimSpace(cellAt(rec, industryCol)),
			Territory:   strings.TrimSpace(cellAt(rec, territoryCol)),
		}
	}

	if t.duplicates > 0 {
		log.Printf("[reference] %d duplicate business ids resolved by %s", t.duplicates, policy)
	}
	return t, nil
}

func findColumn(folded map[string]int, aliases []string) (int, bool) {
	for _, a := range aliases {
		if i, ok := folded[a]; ok {
			return i, true
		}
	}
	return -1, false
}

// cellAt tolerates both short records and absent columns (col < 0).
func cellAt(rec []string, col int) string {
	if col < 0 || col >= len(rec) {
		return ""
	}
	return rec[col]
}

func emptyRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
