package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Jforjo/IsleofDucks-sub001/internal/audit"
	"github.com/Jforjo/IsleofDucks-sub001/internal/hypixel"
	"github.com/Jforjo/IsleofDucks-sub001/internal/interactions"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Scammer checks or reports Minecraft accounts against the community
// scammer list: /scammer check|report <player>.
func (h *Handlers) Scammer(ctx context.Context, r *interactions.Responder, ic *interactions.Interaction) error {
	if err := r.Defer(true); err != nil {
		return err
	}

	if sub, ok := interactions.Subcommand(ic.Options, "check"); ok {
		return h.scammerCheck(ctx, r, sub)
	}
	if sub, ok := interactions.Subcommand(ic.Options, "report"); ok {
		return h.scammerReport(ctx, r, ic, sub)
	}
	return h.followupEmbed(r, h.errorEmbed("Scammer List", "Unknown subcommand."), true)
}

func (h *Handlers) scammerCheck(ctx context.Context, r *interactions.Responder, opts map[string]any) error {
	name := interactions.StringOption(opts, "player")
	if name == "" {
		return h.followupEmbed(r, h.errorEmbed("Scammer List", "A player name is required."), true)
	}
	h.recentNames.add(name)

	uuid, err := h.hypixel.ResolveUUID(ctx, name)
	if errors.Is(err, hypixel.ErrPlayerNotFound) {
		return h.followupEmbed(r, h.errorEmbed("Scammer List", fmt.Sprintf("No Minecraft account named `%s`.", name)), true)
	}
	if err != nil {
		return h.followupEmbed(r, h.errorEmbed("Scammer List", "Mojang lookup failed, try again later."), true)
	}

	entry, found, err := h.scammers.Lookup(ctx, uuid)
	if err != nil {
		h.logger.Warn("scammer lookup failed", zap.Error(err))
		return h.followupEmbed(r, h.errorEmbed("Scammer List", "The scammer list is unreachable right now."), true)
	}
	if !found {
		return h.followupEmbed(r, h.successEmbed("Scammer List", fmt.Sprintf("`%s` is not on the scammer list.", name), nil), true)
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Player", Value: name, Inline: true},
		{Name: "UUID", Value: entry.UUID, Inline: true},
	}
	if entry.Reason != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Reason", Value: entry.Reason, Inline: false})
	}
	if entry.Evidence != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Evidence", Value: entry.Evidence, Inline: false})
	}
	return h.followupEmbed(r, h.warningEmbed("Scammer List", fmt.Sprintf("`%s` is a reported scammer.", name), fields), true)
}

func (h *Handlers) scammerReport(ctx context.Context, r *interactions.Responder, ic *interactions.Interaction, opts map[string]any) error {
	if !h.isStaff(ic) {
		return h.followupEmbed(r, h.errorEmbed("Scammer List", "Only staff can file scammer reports."), true)
	}

	name := interactions.StringOption(opts, "player")
	reason := interactions.StringOption(opts, "reason")
	evidence := interactions.StringOption(opts, "evidence")
	if name == "" || reason == "" || evidence == "" {
		return h.followupEmbed(r, h.errorEmbed("Scammer List", "Player, reason and an evidence link are all required."), true)
	}
	h.recentNames.add(name)

	uuid, err := h.hypixel.ResolveUUID(ctx, name)
	if errors.Is(err, hypixel.ErrPlayerNotFound) {
		return h.followupEmbed(r, h.errorEmbed("Scammer List", fmt.Sprintf("No Minecraft account named `%s`.", name)), true)
	}
	if err != nil {
		return h.followupEmbed(r, h.errorEmbed("Scammer List", "Mojang lookup failed, try again later."), true)
	}

	if err := h.scammers.Report(ctx, uuid, reason, evidence); err != nil {
		h.logger.Warn("scammer report failed", zap.Error(err))
		return h.followupEmbed(r, h.errorEmbed("Scammer List", "The report could not be submitted."), true)
	}

	actor := invoker(ic)
	h.audit.Log(ctx, audit.LevelWarn, h.cfg.GuildID, actor.ID, "scammer_report", fmt.Sprintf("player=%s uuid=%s reason=%s", name, uuid, reason))
	return h.followupEmbed(r, h.successEmbed("Scammer List", fmt.Sprintf("Report filed against `%s`.", name), nil), false)
}

// ScammerAutocomplete suggests player names seen recently in scammer
// commands, filtered by the focused prefix.
func (h *Handlers) ScammerAutocomplete(ctx context.Context, ic *interactions.Interaction) ([]*discordgo.ApplicationCommandOptionChoice, error) {
	prefix := strings.ToLower(ic.FocusedValue)
	var choices []*discordgo.ApplicationCommandOptionChoice
	for _, name := range h.recentNames.list() {
		if prefix != "" && !strings.HasPrefix(strings.ToLower(name), prefix) {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: name, Value: name})
		if len(choices) == 25 {
			break
		}
	}
	return choices, nil
}

// recentNames is a bounded, most-recent-first list of player names used to
// seed autocomplete. Duplicates move to the front.
type recentNames struct {
	mu    sync.Mutex
	limit int
	names []string
}

func newRecentNames(limit int) *recentNames {
	return &recentNames{limit: limit}
}

func (r *recentNames) add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.names {
		if strings.EqualFold(existing, name) {
			r.names = append(r.names[:i], r.names[i+1:]...)
			break
		}
	}
	r.names = append([]string{name}, r.names...)
	if len(r.names) > r.limit {
		r.names = r.names[:r.limit]
	}
}

func (r *recentNames) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}
