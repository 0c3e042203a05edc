package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/score-leaderboard/internal/config"
)

func openTestDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "board.db")
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := OpenSQLite(openTestDB(t))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := Migrate(ctx, db); err != nil {
			t.Fatalf("migrate #%d: %v", i+1, err)
		}
	}
	for _, table := range []string{"users", "scores"} {
		var n int
		if err := db.Get(&n, "SELECT COUNT(*) FROM "+table); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != 0 {
			t.Fatalf("%s rows = %d, want 0", table, n)
		}
	}
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	if _, err := OpenSQLite("  "); err == nil {
		t.Fatal("open with blank path succeeded")
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(config.Config{DBDriver: "postgres"}); err == nil {
		t.Fatal("open with unknown driver succeeded")
	}
}

func TestOpenSelectsSQLite(t *testing.T) {
	db, err := Open(config.Config{DBDriver: DriverSQLite, SQLitePath: openTestDB(t)})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	if db.DriverName() != DriverSQLite {
		t.Fatalf("driver = %q, want %q", db.DriverName(), DriverSQLite)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	db, err := OpenSQLite(openTestDB(t))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	ctx := context.Background()
	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	insert := "INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)"
	if _, err := db.ExecContext(ctx, insert, "alice", "x", 1); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, dupErr := db.ExecContext(ctx, insert, "alice", "y", 2)
	if dupErr == nil {
		t.Fatal("duplicate insert succeeded")
	}
	_, fkErr := db.ExecContext(ctx, "INSERT INTO scores (user_id, score, created_at) VALUES (?, ?, ?)", 999, 1, 1)
	if fkErr == nil {
		t.Fatal("insert with unknown user succeeded")
	}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain", err: errors.New("boom"), want: false},
		{name: "sqlite unique", err: dupErr, want: true},
		{name: "sqlite wrapped unique", err: fmt.Errorf("insert user: %w", dupErr), want: true},
		{name: "sqlite foreign key", err: fkErr, want: false},
		{name: "mysql duplicate", err: &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, want: true},
		{name: "mysql other", err: &mysql.MySQLError{Number: 1452, Message: "foreign key"}, want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUniqueViolation(tc.err); got != tc.want {
				t.Fatalf("IsUniqueViolation(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
