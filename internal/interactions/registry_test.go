package interactions

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func noopHandler(context.Context, *Responder, *Interaction) error { return nil }

func noopAutocomplete(context.Context, *Interaction) ([]*discordgo.ApplicationCommandOptionChoice, error) {
	return nil, nil
}

func TestRegistryNamespacesAreIndependent(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCommand("ban", noopHandler); err != nil {
		t.Fatalf("register command: %v", err)
	}
	if err := reg.RegisterComponent("ban", DialectDash, noopHandler); err != nil {
		t.Fatalf("same key in component namespace should not collide: %v", err)
	}
	if err := reg.RegisterModal("ban", DialectDash, noopHandler); err != nil {
		t.Fatalf("same key in modal namespace should not collide: %v", err)
	}
	if err := reg.RegisterAutocomplete("ban", noopAutocomplete); err != nil {
		t.Fatalf("autocomplete registration: %v", err)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCommand("ban", noopHandler); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if err := reg.RegisterCommand("BAN", noopHandler); err == nil {
		t.Fatalf("expected duplicate (case-insensitive) registration to fail")
	}
}

func TestRegistryResolveIsCaseInsensitive(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterComponent("leaderboard", DialectData, noopHandler); err != nil {
		t.Fatalf("register: %v", err)
	}

	handler, dialect, ok := reg.ResolveComponent("LeaderBoard")
	if !ok || handler == nil {
		t.Fatalf("expected case-insensitive resolution")
	}
	if dialect != DialectData {
		t.Fatalf("expected registered dialect to round-trip, got %v", dialect)
	}

	if _, _, ok := reg.ResolveComponent("unknown"); ok {
		t.Fatalf("expected unknown key to miss")
	}
}
