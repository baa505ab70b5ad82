// Package testutil builds throwaway sqlite stores with fixtures for tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/taskboard-dev/taskboard/db"
	"gorm.io/gorm"
)

// NewStore opens a migrated sqlite database in a temp dir with foreign key
// enforcement on. It is closed when the test ends.
func NewStore(t testing.TB) *gorm.DB {
	t.Helper()

	conn, err := db.Connect(db.DriverSQLite, filepath.Join(t.TempDir(), "taskboard.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return conn
}

// Snapshot dumps every row of the given tables in a stable order, for
// comparing the store before and after an operation.
func Snapshot(t testing.TB, conn *gorm.DB, tables ...string) map[string][]string {
	t.Helper()

	out := make(map[string][]string, len(tables))

	for _, table := range tables {
		var rows []map[string]interface{}
		require.NoError(t, conn.Table(table).Find(&rows).Error)

		dump := make([]string, 0, len(rows))
		for _, row := range rows {
			dump = append(dump, formatRow(row))
		}
		sort.Strings(dump)

		out[table] = dump
	}

	return out
}

func formatRow(row map[string]interface{}) string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	s := ""
	for _, k := range keys {
		s += fmt.Sprintf("%s=%v;", k, row[k])
	}
	return s
}

// Count returns how many rows of table have column equal to value.
func Count(t testing.TB, conn *gorm.DB, table, column string, value interface{}) int64 {
	t.Helper()

	var n int64
	require.NoError(t, conn.Table(table).Where(fmt.Sprintf("%s = ?", column), value).Count(&n).Error)
	return n
}
