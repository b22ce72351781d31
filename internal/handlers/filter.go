package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Jforjo/IsleofDucks-sub001/internal/audit"
	"github.com/Jforjo/IsleofDucks-sub001/internal/interactions"
	"github.com/Jforjo/IsleofDucks-sub001/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Filter manages the chat filter phrase list: /filter add|remove|list.
func (h *Handlers) Filter(ctx context.Context, r *interactions.Responder, ic *interactions.Interaction) error {
	if !h.isStaff(ic) {
		return h.denyPermission(r, "Chat Filter")
	}

	if err := r.Defer(true); err != nil {
		return err
	}

	if sub, ok := interactions.Subcommand(ic.Options, "add"); ok {
		return h.filterAdd(ctx, r, ic, sub)
	}
	if sub, ok := interactions.Subcommand(ic.Options, "remove"); ok {
		return h.filterRemove(ctx, r, sub)
	}
	if _, ok := interactions.Subcommand(ic.Options, "list"); ok {
		return h.filterList(ctx, r)
	}
	return h.followupEmbed(r, h.errorEmbed("Chat Filter", "Unknown subcommand."), true)
}

func (h *Handlers) filterAdd(ctx context.Context, r *interactions.Responder, ic *interactions.Interaction, opts map[string]any) error {
	phrase := strings.ToLower(strings.TrimSpace(interactions.StringOption(opts, "phrase")))
	if phrase == "" {
		return h.followupEmbed(r, h.errorEmbed("Chat Filter", "A phrase is required."), true)
	}

	actor := invoker(ic)
	if err := h.store.AddFilter(ctx, storage.Filter{Phrase: phrase, AddedBy: actor.ID}); err != nil {
		h.logger.Error("filter insert failed", zap.Error(err))
		return h.followupEmbed(r, h.errorEmbed("Chat Filter", "Could not save the phrase."), true)
	}

	h.audit.Log(ctx, audit.LevelInfo, h.cfg.GuildID, actor.ID, "filter_add", "phrase="+phrase)
	return h.followupEmbed(r, h.successEmbed("Chat Filter", fmt.Sprintf("`%s` added to the filter.", phrase), nil), false)
}

func (h *Handlers) filterRemove(ctx context.Context, r *interactions.Responder, opts map[string]any) error {
	phrase := strings.ToLower(strings.TrimSpace(interactions.StringOption(opts, "phrase")))
	if phrase == "" {
		return h.followupEmbed(r, h.errorEmbed("Chat Filter", "A phrase is required."), true)
	}

	removed, err := h.store.RemoveFilter(ctx, phrase)
	if err != nil {
		h.logger.Error("filter delete failed", zap.Error(err))
		return h.followupEmbed(r, h.errorEmbed("Chat Filter", "Could not remove the phrase."), true)
	}
	if !removed {
		return h.followupEmbed(r, h.warningEmbed("Chat Filter", fmt.Sprintf("`%s` was not on the filter.", phrase), nil), true)
	}
	return h.followupEmbed(r, h.successEmbed("Chat Filter", fmt.Sprintf("`%s` removed from the filter.", phrase), nil), false)
}

func (h *Handlers) filterList(ctx context.Context, r *interactions.Responder) error {
	filters, err := h.store.ListFilters(ctx)
	if err != nil {
		h.logger.Error("filter list failed", zap.Error(err))
		return h.followupEmbed(r, h.errorEmbed("Chat Filter", "Could not read the filter list."), true)
	}
	if len(filters) == 0 {
		return h.followupEmbed(r, h.successEmbed("Chat Filter", "The filter list is empty.", nil), true)
	}

	var sb strings.Builder
	for _, f := range filters {
		fmt.Fprintf(&sb, "`%s`\n", f.Phrase)
	}
	return h.followupEmbed(r, h.successEmbed("Chat Filter", sb.String(), []*discordgo.MessageEmbedField{
		{Name: "Total", Value: fmt.Sprintf("%d phrases", len(filters)), Inline: true},
	}), true)
}
