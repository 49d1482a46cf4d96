package database

import (
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// Columns returns the lower-cased column names of table in sorted order.
// A table that does not exist yields no columns and no error.
func Columns(db *gorm.DB, table string) ([]string, error) {
	if !db.Migrator().HasTable(table) {
		return nil, nil
	}

	types, err := db.Migrator().ColumnTypes(table)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns for table %s: %w", table, err)
	}

	names := make([]string, 0, len(types))
	for _, col := range types {
		names = append(names, strings.ToLower(col.Name()))
	}
	sort.Strings(names)
	return names, nil
}

// MissingColumns reports which of want are absent from table.
func MissingColumns(db *gorm.DB, table string, want ...string) ([]string, error) {
	have, err := Columns(db, table)
	if err != nil {
		return nil, err
	}

	present := make(map[string]struct{}, len(have))
	for _, name := range have {
		present[name] = struct{}{}
	}

	var missing []string
	for _, name := range want {
		if _, ok := present[strings.ToLower(name)]; !ok {
			missing = append(missing, name)
		}
	}
	return missing, nil
}
