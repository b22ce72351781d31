package handlers

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Jforjo/IsleofDucks-sub001/internal/audit"
	"github.com/Jforjo/IsleofDucks-sub001/internal/interactions"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RoleSync reconciles Discord rank roles against the Hypixel guild roster.
// Members whose nickname matches a roster entry get the role mapped to
// their in-game rank; stale rank roles are removed. Walking the member
// list plus one role call per change is slow, so the handler defers.
func (h *Handlers) RoleSync(ctx context.Context, r *interactions.Responder, ic *interactions.Interaction) error {
	if !h.isStaff(ic) {
		return h.denyPermission(r, "Role Sync")
	}

	if err := r.Defer(true); err != nil {
		return err
	}

	guild, err := h.hypixel.Guild(ctx, h.cfg.HypixelGuildID)
	if err != nil {
		h.logger.Warn("roster fetch failed", zap.Error(err))
		return h.followupEmbed(r, h.errorEmbed("Role Sync", "Hypixel is unreachable right now, try again later."), true)
	}

	// The roster only carries UUIDs; resolve each to a display name so
	// Discord nicknames can be matched against it. Lookup failures just
	// leave that member unmatched.
	var mu sync.Mutex
	rankByName := make(map[string]string, len(guild.Members))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(nameLookupWorkers)
	for _, m := range guild.Members {
		m := m
		group.Go(func() error {
			player, err := h.hypixel.Player(gctx, m.UUID)
			if err != nil {
				return nil
			}
			mu.Lock()
			rankByName[strings.ToLower(player.Name)] = m.Rank
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	added, removed, skipped := 0, 0, 0
	after := ""
	for {
		members, err := h.roles.GuildMembers(h.cfg.GuildID, after, 1000)
		if err != nil {
			h.logger.Warn("member list failed", zap.Error(err))
			return h.followupEmbed(r, h.errorEmbed("Role Sync", "Could not list the Discord members."), true)
		}
		if len(members) == 0 {
			break
		}

		for _, member := range members {
			name := member.Nick
			if name == "" && member.User != nil {
				name = member.User.Username
			}
			rank, inGuild := rankByName[strings.ToLower(name)]

			wantRole := ""
			if inGuild {
				wantRole = h.cfg.Roles.RankRoles[rank]
			}

			a, rm, err := h.syncMemberRoles(member, wantRole)
			if err != nil {
				skipped++
				continue
			}
			added += a
			removed += rm
		}

		after = members[len(members)-1].User.ID
		if len(members) < 1000 {
			break
		}
	}

	actor := invoker(ic)
	h.audit.Log(ctx, audit.LevelInfo, h.cfg.GuildID, actor.ID, "role_sync", fmt.Sprintf("added=%d removed=%d skipped=%d", added, removed, skipped))
	fields := []*discordgo.MessageEmbedField{
		{Name: "Roles added", Value: fmt.Sprintf("%d", added), Inline: true},
		{Name: "Roles removed", Value: fmt.Sprintf("%d", removed), Inline: true},
		{Name: "Skipped", Value: fmt.Sprintf("%d", skipped), Inline: true},
	}
	return h.followupEmbed(r, h.successEmbed("Role Sync", "Rank roles reconciled against the guild roster.", fields), false)
}

// syncMemberRoles brings one member's rank roles in line with wantRole.
// Every configured rank role other than wantRole is removed.
func (h *Handlers) syncMemberRoles(member *discordgo.Member, wantRole string) (added, removed int, err error) {
	if member.User == nil {
		return 0, 0, nil
	}

	has := make(map[string]bool, len(member.Roles))
	for _, id := range member.Roles {
		has[id] = true
	}

	for _, roleID := range h.cfg.Roles.RankRoles {
		switch {
		case roleID == wantRole && !has[roleID]:
			if err := h.roles.GuildMemberRoleAdd(h.cfg.GuildID, member.User.ID, roleID); err != nil {
				return added, removed, err
			}
			added++
		case roleID != wantRole && has[roleID]:
			if err := h.roles.GuildMemberRoleRemove(h.cfg.GuildID, member.User.ID, roleID); err != nil {
				return added, removed, err
			}
			removed++
		}
	}
	return added, removed, nil
}
