package db

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pp.db")
	gdb, err := Open(nil, Config{Driver: DriverSQLite, SQLitePath: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := AutoMigrateAll(gdb); err != nil {
		t.Fatalf("AutoMigrateAll: %v", err)
	}
	if err := EnsureIndexes(gdb); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}
	for _, table := range []string{"proposal", "knowledge_entry"} {
		if !gdb.Migrator().HasTable(table) {
			t.Fatalf("missing table %s", table)
		}
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(nil, Config{Driver: "mysql"})
	if err == nil || !strings.Contains(err.Error(), "unsupported DB_DRIVER") {
		t.Fatalf("expected unsupported driver error, got %v", err)
	}
}

func TestDirOf(t *testing.T) {
	cases := map[string]string{
		"./data/pp.db":       "./data",
		"pp.db":              "",
		":memory:":           "",
		"file:x?mode=memory": "",
		"/var/lib/pp.db":     "/var/lib",
	}
	for in, want := range cases {
		if got := dirOf(in); got != want {
			t.Fatalf("dirOf(%q) = %q, want %q", in, got, want)
		}
	}
}
