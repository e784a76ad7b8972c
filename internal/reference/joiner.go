package reference

import (
	"log"

	"github.com/ignite/casedeck/internal/datanorm"
)

// Join enriches rows in place with account fields from the table. Every row
// is kept: matches gain account name, industry and territory; misses keep
// blanks. Only empty fields are written, so re-joining already-enriched rows
// is a no-op and source-supplied values are never clobbered.
//
// Returns the number of rows that matched a reference record.
func Join(rows []datanorm.Row, table *Table) int {
	matched := 0
	for i := range rows {
		rec, ok := table.Lookup(rows[i].BusinessID)
		if !ok {
			continue
		}
		matched++
		if rows[i].AccountName == "" {
			rows[i].AccountName = rec.AccountName
		}
		if rows[i].Industry == "" {
			rows[i].Industry = rec.Industry
		}
		if rows[i].Territory == "" {
			rows[i].Territory = rec.Territory
		}
	}
	log.Printf("[reference] joined %d/%d rows", matched, len(rows))
	return matched
}
