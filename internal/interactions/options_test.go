package interactions

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestFlattenOptionsNested(t *testing.T) {
	opts := []*discordgo.ApplicationCommandInteractionDataOption{
		{
			Name: "group",
			Type: discordgo.ApplicationCommandOptionSubCommandGroup,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{
					Name: "sub",
					Type: discordgo.ApplicationCommandOptionSubCommand,
					Options: []*discordgo.ApplicationCommandInteractionDataOption{
						{Name: "player", Type: discordgo.ApplicationCommandOptionString, Value: "Duckling"},
						{Name: "count", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(3)},
					},
				},
			},
		},
	}

	flat := FlattenOptions(opts)
	if got := StringOption(flat, "group", "sub", "player"); got != "Duckling" {
		t.Fatalf("expected Duckling, got %q", got)
	}
	n, ok := NumberOption(flat, "group", "sub", "count")
	if !ok || n != 3 {
		t.Fatalf("expected count 3, got %v ok=%v", n, ok)
	}
}

func TestFlattenOptionsNilTree(t *testing.T) {
	flat := FlattenOptions(nil)
	if flat == nil {
		t.Fatalf("expected non-nil map")
	}
	if len(flat) != 0 {
		t.Fatalf("expected empty map, got %v", flat)
	}
}

func TestLookupMisses(t *testing.T) {
	flat := FlattenOptions([]*discordgo.ApplicationCommandInteractionDataOption{
		{Name: "player", Type: discordgo.ApplicationCommandOptionString, Value: "Duckling"},
	})

	if got := StringOption(flat, "missing"); got != "" {
		t.Fatalf("expected empty string for missing option, got %q", got)
	}
	if got := StringOption(flat, "player", "deeper"); got != "" {
		t.Fatalf("expected empty string when descending through a leaf, got %q", got)
	}
	if _, ok := NumberOption(flat, "player"); ok {
		t.Fatalf("expected type mismatch to report not ok")
	}
	if _, ok := Subcommand(flat, "player"); ok {
		t.Fatalf("expected leaf not to read as subcommand")
	}
}
