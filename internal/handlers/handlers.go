package handlers

import (
	"errors"
	"time"

	"github.com/Jforjo/IsleofDucks-sub001/internal/audit"
	"github.com/Jforjo/IsleofDucks-sub001/internal/config"
	"github.com/Jforjo/IsleofDucks-sub001/internal/hypixel"
	"github.com/Jforjo/IsleofDucks-sub001/internal/interactions"
	"github.com/Jforjo/IsleofDucks-sub001/internal/scammer"
	"github.com/Jforjo/IsleofDucks-sub001/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// RoleManager is the slice of the guild REST surface role sync needs.
// *discordgo.Session satisfies it.
type RoleManager interface {
	GuildMembers(guildID string, after string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	GuildMemberRoleRemove(guildID, userID, roleID string, options ...discordgo.RequestOption) error
}

// Handlers bundles the leaf business-logic handlers and their collaborators.
// Each handler drives its own Responder; the dispatcher never sends a second
// response on its behalf.
type Handlers struct {
	cfg      config.Config
	logger   *zap.Logger
	store    *storage.Store
	hypixel  *hypixel.Client
	scammers *scammer.Client
	audit    *audit.Logger
	roles    RoleManager

	recentNames *recentNames
}

func New(cfg config.Config, logger *zap.Logger, store *storage.Store, hypixelClient *hypixel.Client, scammerClient *scammer.Client, auditLogger *audit.Logger, roles RoleManager) *Handlers {
	return &Handlers{
		cfg:         cfg,
		logger:      logger,
		store:       store,
		hypixel:     hypixelClient,
		scammers:    scammerClient,
		audit:       auditLogger,
		roles:       roles,
		recentNames: newRecentNames(25),
	}
}

// Register wires every handler into its namespace. Duplicate keys are a
// wiring bug and fail startup.
func (h *Handlers) Register(reg *interactions.Registry) error {
	steps := []error{
		reg.RegisterCommand("ban", h.Ban),
		reg.RegisterCommand("donate", h.Donate),
		reg.RegisterCommand("leaderboard", h.Leaderboard),
		reg.RegisterCommand("scammer", h.Scammer),
		reg.RegisterCommand("filter", h.Filter),
		reg.RegisterCommand("scramble", h.Scramble),
		reg.RegisterCommand("rolesync", h.RoleSync),
		reg.RegisterAutocomplete("scammer", h.ScammerAutocomplete),
		reg.RegisterComponent("leaderboard", interactions.DialectDash, h.LeaderboardPage),
		reg.RegisterComponent("ticket", interactions.DialectData, h.TicketClose),
		reg.RegisterModal("donate", interactions.DialectDash, h.DonateSubmit),
	}
	for _, err := range steps {
		if err != nil {
			return err
		}
	}
	return nil
}

func (h *Handlers) successEmbed(title, description string, fields []*discordgo.MessageEmbedField) *discordgo.MessageEmbed {
	return h.embed(title, description, h.cfg.Embeds.Success, fields)
}

func (h *Handlers) warningEmbed(title, description string, fields []*discordgo.MessageEmbedField) *discordgo.MessageEmbed {
	return h.embed(title, description, h.cfg.Embeds.Warning, fields)
}

func (h *Handlers) errorEmbed(title, description string) *discordgo.MessageEmbed {
	return h.embed(title, description, h.cfg.Embeds.Error, nil)
}

func (h *Handlers) embed(title, description string, color int, fields []*discordgo.MessageEmbedField) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
		Fields:      fields,
	}
}

// invoker returns the acting user; interactions outside a guild carry User
// instead of Member.
func invoker(ic *interactions.Interaction) *discordgo.User {
	if ic.Raw.Member != nil && ic.Raw.Member.User != nil {
		return ic.Raw.Member.User
	}
	return ic.Raw.User
}

// isStaff checks the invoker's roles against the configured staff roles.
func (h *Handlers) isStaff(ic *interactions.Interaction) bool {
	if ic.Raw.Member == nil {
		return false
	}
	staff := make(map[string]struct{}, len(h.cfg.Roles.Staff))
	for _, id := range h.cfg.Roles.Staff {
		staff[id] = struct{}{}
	}
	for _, roleID := range ic.Raw.Member.Roles {
		if _, ok := staff[roleID]; ok {
			return true
		}
	}
	return false
}

// denyPermission reports a permission failure as an ephemeral message. The
// webhook call itself still succeeds; only the business outcome failed.
func (h *Handlers) denyPermission(r *interactions.Responder, title string) error {
	return r.Respond(&discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{h.errorEmbed(title, "You do not have permission to use this.")},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
}

// followupEmbed sends one embed as a follow-up, dropping expired-token
// failures as the protocol requires.
func (h *Handlers) followupEmbed(r *interactions.Responder, embed *discordgo.MessageEmbed, ephemeral bool) error {
	params := &discordgo.WebhookParams{Embeds: []*discordgo.MessageEmbed{embed}}
	if ephemeral {
		params.Flags = discordgo.MessageFlagsEphemeral
	}
	_, err := r.Followup(params)
	if errors.Is(err, interactions.ErrTokenExpired) {
		return nil
	}
	return err
}
