package storage

import (
	"context"
	"os"
	"testing"
	"time"
)

// newTestStore connects to the database named by DUCKS_TEST_DATABASE_URL.
// Without it the integration tests are skipped, keeping the default test run
// hermetic.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("DUCKS_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("DUCKS_TEST_DATABASE_URL not set")
	}

	store, err := New(context.Background(), url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(store.Close)

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func TestBanRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	uuid := "test-ban-" + time.Now().Format("150405.000")

	if err := store.AddBan(ctx, Ban{UUID: uuid, Name: "Duckling", Reason: "testing", AddedBy: "user1"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	defer func() { _, _ = store.RemoveBan(ctx, uuid) }()

	ban, found, err := store.GetBan(ctx, uuid)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found || ban.Name != "Duckling" || ban.Reason != "testing" {
		t.Fatalf("unexpected ban %+v found=%v", ban, found)
	}

	// Upsert replaces the reason.
	if err := store.AddBan(ctx, Ban{UUID: uuid, Name: "Duckling", Reason: "updated", AddedBy: "user2"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	ban, _, err = store.GetBan(ctx, uuid)
	if err != nil {
		t.Fatalf("get after upsert: %v", err)
	}
	if ban.Reason != "updated" || ban.AddedBy != "user2" {
		t.Fatalf("expected upsert to replace fields, got %+v", ban)
	}

	removed, err := store.RemoveBan(ctx, uuid)
	if err != nil || !removed {
		t.Fatalf("remove: removed=%v err=%v", removed, err)
	}
	removed, err = store.RemoveBan(ctx, uuid)
	if err != nil || removed {
		t.Fatalf("second remove should be a no-op: removed=%v err=%v", removed, err)
	}
}

func TestScrambleScoreKeepsBest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := "test-scramble-" + time.Now().Format("150405.000")

	if err := store.SubmitScrambleScore(ctx, ScrambleScore{DiscordID: id, Name: "Duckling", Score: 10}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := store.SubmitScrambleScore(ctx, ScrambleScore{DiscordID: id, Name: "Duckling", Score: 5}); err != nil {
		t.Fatalf("lower submit: %v", err)
	}

	scores, err := store.TopScrambleScores(ctx, 100)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	for _, s := range scores {
		if s.DiscordID == id && s.Score != 10 {
			t.Fatalf("expected best score kept, got %d", s.Score)
		}
	}
}

func TestAuditLogWindow(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	guildID := "test-guild-" + time.Now().Format("150405.000")

	entry := AuditLog{GuildID: guildID, UserID: "user1", Level: "INFO", Event: "test", Details: "details", CreatedAt: time.Now()}
	if err := store.AddAuditLog(ctx, entry); err != nil {
		t.Fatalf("add: %v", err)
	}

	logs, err := store.ListAuditLogs(ctx, guildID, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(logs) != 1 || logs[0].Event != "test" {
		t.Fatalf("unexpected logs %+v", logs)
	}

	logs, err = store.ListAuditLogs(ctx, guildID, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("list future: %v", err)
	}
	if len(logs) != 0 {
		t.Fatalf("expected window to exclude old entries, got %d", len(logs))
	}
}
