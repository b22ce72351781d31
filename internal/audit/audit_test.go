package audit

import (
	"context"
	"testing"

	"github.com/Jforjo/IsleofDucks-sub001/internal/storage"

	"go.uber.org/zap"
)

func TestLogNotifies(t *testing.T) {
	logger := NewLogger(nil, zap.NewNop())

	var got storage.AuditLog
	logger.SetNotifier(func(ctx context.Context, entry storage.AuditLog) {
		got = entry
	})

	logger.Log(context.Background(), LevelWarn, "g1", "u1", "ban_add", "player=Duckling")

	if got.Level != LevelWarn || got.Event != "ban_add" {
		t.Fatalf("unexpected notification %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("expected timestamp to be set")
	}
}

func TestLogWithoutNotifierOrStore(t *testing.T) {
	logger := NewLogger(nil, zap.NewNop())
	// Must not panic with neither store nor notifier attached.
	logger.Log(context.Background(), LevelInfo, "g1", "u1", "donation", "amount=1")
}
