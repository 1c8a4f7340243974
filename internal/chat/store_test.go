package chat

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/neurobot-client/internal/infrastructure/database"
	_ "github.com/nerrad567/neurobot-client/migrations"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "transcript.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLiteStore(db.DB)
}

func TestSQLiteStore_CreateAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	roles := []Role{RoleSystem, RoleUser, RoleBot, RoleUser}
	for i, role := range roles {
		e := Entry{Role: role, Text: fmt.Sprintf("line %d", i), At: base.Add(time.Duration(i) * time.Second)}
		if err := store.Create(ctx, &e); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if e.ID == "" {
			t.Error("Create() did not assign an ID")
		}
	}

	got, err := store.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Recent(3) len = %d, want 3", len(got))
	}

	wantText := []string{"line 1", "line 2", "line 3"}
	for i, e := range got {
		if e.Text != wantText[i] {
			t.Errorf("Recent()[%d].Text = %q, want %q", i, e.Text, wantText[i])
		}
		if e.Role != roles[i+1] {
			t.Errorf("Recent()[%d].Role = %q, want %q", i, e.Role, roles[i+1])
		}
	}
	if !got[0].At.Equal(base.Add(time.Second)) {
		t.Errorf("At = %v, want %v", got[0].At, base.Add(time.Second))
	}
}

func TestSQLiteStore_RejectsUnknownRole(t *testing.T) {
	store := openTestStore(t)

	e := Entry{Role: Role("admin"), Text: "x"}
	if err := store.Create(context.Background(), &e); err == nil {
		t.Error("Create() with unknown role expected error")
	}
}

func TestSQLiteStore_RecentEmpty(t *testing.T) {
	store := openTestStore(t)

	got, err := store.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Recent() len = %d, want 0", len(got))
	}
}
