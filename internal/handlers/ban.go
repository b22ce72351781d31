package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/Jforjo/IsleofDucks-sub001/internal/audit"
	"github.com/Jforjo/IsleofDucks-sub001/internal/hypixel"
	"github.com/Jforjo/IsleofDucks-sub001/internal/interactions"
	"github.com/Jforjo/IsleofDucks-sub001/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Ban manages the guild ban list: /ban add|remove|check <player>. The
// Mojang lookup and database write are slow, so the handler defers first.
func (h *Handlers) Ban(ctx context.Context, r *interactions.Responder, ic *interactions.Interaction) error {
	if !h.isStaff(ic) {
		return h.denyPermission(r, "Ban List")
	}

	if err := r.Defer(true); err != nil {
		return err
	}

	if sub, ok := interactions.Subcommand(ic.Options, "add"); ok {
		return h.banAdd(ctx, r, ic, sub)
	}
	if sub, ok := interactions.Subcommand(ic.Options, "remove"); ok {
		return h.banRemove(ctx, r, sub)
	}
	if sub, ok := interactions.Subcommand(ic.Options, "check"); ok {
		return h.banCheck(ctx, r, sub)
	}
	return h.followupEmbed(r, h.errorEmbed("Ban List", "Unknown subcommand."), true)
}

func (h *Handlers) banAdd(ctx context.Context, r *interactions.Responder, ic *interactions.Interaction, opts map[string]any) error {
	name := interactions.StringOption(opts, "player")
	reason := interactions.StringOption(opts, "reason")
	if name == "" {
		return h.followupEmbed(r, h.errorEmbed("Ban List", "A player name is required."), true)
	}

	uuid, err := h.hypixel.ResolveUUID(ctx, name)
	if errors.Is(err, hypixel.ErrPlayerNotFound) {
		return h.followupEmbed(r, h.errorEmbed("Ban List", fmt.Sprintf("No Minecraft account named `%s`.", name)), true)
	}
	if err != nil {
		h.logger.Warn("uuid lookup failed", zap.Error(err))
		return h.followupEmbed(r, h.errorEmbed("Ban List", "Mojang lookup failed, try again later."), true)
	}

	actor := invoker(ic)
	ban := storage.Ban{UUID: uuid, Name: name, Reason: reason, AddedBy: actor.ID}
	if err := h.store.AddBan(ctx, ban); err != nil {
		h.logger.Error("ban insert failed", zap.Error(err))
		return h.followupEmbed(r, h.errorEmbed("Ban List", "Could not save the ban."), true)
	}

	h.audit.Log(ctx, audit.LevelWarn, h.cfg.GuildID, actor.ID, "ban_add", fmt.Sprintf("player=%s uuid=%s reason=%s", name, uuid, reason))
	fields := []*discordgo.MessageEmbedField{
		{Name: "Player", Value: name, Inline: true},
		{Name: "UUID", Value: uuid, Inline: true},
	}
	if reason != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Reason", Value: reason, Inline: false})
	}
	return h.followupEmbed(r, h.successEmbed("Ban List", "Player added to the ban list.", fields), false)
}

func (h *Handlers) banRemove(ctx context.Context, r *interactions.Responder, opts map[string]any) error {
	name := interactions.StringOption(opts, "player")
	if name == "" {
		return h.followupEmbed(r, h.errorEmbed("Ban List", "A player name is required."), true)
	}

	uuid, err := h.hypixel.ResolveUUID(ctx, name)
	if errors.Is(err, hypixel.ErrPlayerNotFound) {
		return h.followupEmbed(r, h.errorEmbed("Ban List", fmt.Sprintf("No Minecraft account named `%s`.", name)), true)
	}
	if err != nil {
		return h.followupEmbed(r, h.errorEmbed("Ban List", "Mojang lookup failed, try again later."), true)
	}

	removed, err := h.store.RemoveBan(ctx, uuid)
	if err != nil {
		h.logger.Error("ban delete failed", zap.Error(err))
		return h.followupEmbed(r, h.errorEmbed("Ban List", "Could not remove the ban."), true)
	}
	if !removed {
		return h.followupEmbed(r, h.warningEmbed("Ban List", fmt.Sprintf("`%s` was not on the ban list.", name), nil), true)
	}
	return h.followupEmbed(r, h.successEmbed("Ban List", fmt.Sprintf("`%s` removed from the ban list.", name), nil), false)
}

func (h *Handlers) banCheck(ctx context.Context, r *interactions.Responder, opts map[string]any) error {
	name := interactions.StringOption(opts, "player")
	if name == "" {
		return h.followupEmbed(r, h.errorEmbed("Ban List", "A player name is required."), true)
	}

	uuid, err := h.hypixel.ResolveUUID(ctx, name)
	if errors.Is(err, hypixel.ErrPlayerNotFound) {
		return h.followupEmbed(r, h.errorEmbed("Ban List", fmt.Sprintf("No Minecraft account named `%s`.", name)), true)
	}
	if err != nil {
		return h.followupEmbed(r, h.errorEmbed("Ban List", "Mojang lookup failed, try again later."), true)
	}

	ban, found, err := h.store.GetBan(ctx, uuid)
	if err != nil {
		h.logger.Error("ban lookup failed", zap.Error(err))
		return h.followupEmbed(r, h.errorEmbed("Ban List", "Could not read the ban list."), true)
	}
	if !found {
		return h.followupEmbed(r, h.successEmbed("Ban List", fmt.Sprintf("`%s` is not banned.", name), nil), true)
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "Player", Value: ban.Name, Inline: true},
		{Name: "Added by", Value: "<@" + ban.AddedBy + ">", Inline: true},
	}
	if ban.Reason != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Reason", Value: ban.Reason, Inline: false})
	}
	return h.followupEmbed(r, h.warningEmbed("Ban List", fmt.Sprintf("`%s` is banned.", name), fields), true)
}
