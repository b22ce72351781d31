package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Jforjo/IsleofDucks-sub001/internal/audit"
	"github.com/Jforjo/IsleofDucks-sub001/internal/interactions"
	"github.com/Jforjo/IsleofDucks-sub001/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Donate opens the donation entry modal. A modal must be the very first
// response, so nothing here defers.
func (h *Handlers) Donate(ctx context.Context, r *interactions.Responder, ic *interactions.Interaction) error {
	actor := invoker(ic)
	if actor == nil {
		return r.Respond(&discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{h.errorEmbed("Donations", "Could not identify you.")},
			Flags:  discordgo.MessageFlagsEphemeral,
		})
	}

	return r.Modal(&discordgo.InteractionResponseData{
		CustomID: "donate-" + actor.ID,
		Title:    "Record a donation",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:    "amount",
					Label:       "Amount (coins)",
					Style:       discordgo.TextInputShort,
					Placeholder: "e.g. 5000000",
					Required:    true,
				},
			}},
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID: "note",
					Label:    "Note",
					Style:    discordgo.TextInputParagraph,
					Required: false,
				},
			}},
		},
	})
}

// DonateSubmit records the submitted donation. custom_id is
// "donate-<discord id>"; the id segment guards against a stale modal
// submitted by someone else.
func (h *Handlers) DonateSubmit(ctx context.Context, r *interactions.Responder, ic *interactions.Interaction) error {
	actor := invoker(ic)
	if actor == nil || len(ic.Args) == 0 || ic.Args[0] != actor.ID {
		return r.Respond(&discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{h.errorEmbed("Donations", "This donation form is not yours.")},
			Flags:  discordgo.MessageFlagsEphemeral,
		})
	}

	raw := strings.ReplaceAll(strings.TrimSpace(ic.Fields["amount"]), ",", "")
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || amount <= 0 {
		return r.Respond(&discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{h.errorEmbed("Donations", "Amount must be a positive number of coins.")},
			Flags:  discordgo.MessageFlagsEphemeral,
		})
	}

	if err := r.Defer(false); err != nil {
		return err
	}

	name := actor.Username
	donation := storage.Donation{
		DiscordID: actor.ID,
		Name:      name,
		Amount:    amount,
		Note:      ic.Fields["note"],
	}
	if err := h.store.RecordDonation(ctx, donation); err != nil {
		h.logger.Error("donation insert failed", zap.Error(err))
		return h.followupEmbed(r, h.errorEmbed("Donations", "Could not record the donation."), true)
	}

	total, err := h.store.DonationTotal(ctx, actor.ID)
	if err != nil {
		total = amount
	}

	h.audit.Log(ctx, audit.LevelInfo, h.cfg.GuildID, actor.ID, "donation", fmt.Sprintf("amount=%d total=%d", amount, total))
	fields := []*discordgo.MessageEmbedField{
		{Name: "Donor", Value: "<@" + actor.ID + ">", Inline: true},
		{Name: "Amount", Value: formatCoins(amount), Inline: true},
		{Name: "Lifetime total", Value: formatCoins(total), Inline: true},
	}
	return h.followupEmbed(r, h.successEmbed("Donations", "Donation recorded, thank you!", fields), false)
}

func formatCoins(amount int64) string {
	switch {
	case amount >= 1_000_000:
		return fmt.Sprintf("%.1fm", float64(amount)/1_000_000)
	case amount >= 1_000:
		return fmt.Sprintf("%.1fk", float64(amount)/1_000)
	default:
		return strconv.FormatInt(amount, 10)
	}
}
