package handlers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/Jforjo/IsleofDucks-sub001/internal/interactions"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	leaderboardPageSize = 10
	nameLookupWorkers   = 5
)

// Leaderboard renders the guild experience leaderboard. The Hypixel roster
// fetch plus one profile lookup per listed member is far past the response
// window, so the handler defers first.
func (h *Handlers) Leaderboard(ctx context.Context, r *interactions.Responder, ic *interactions.Interaction) error {
	if err := r.Defer(false); err != nil {
		return err
	}

	embed, components, err := h.leaderboardPage(ctx, 0)
	if err != nil {
		h.logger.Warn("leaderboard build failed", zap.Error(err))
		return h.followupEmbed(r, h.errorEmbed("Guild Leaderboard", "Hypixel is unreachable right now, try again later."), true)
	}

	_, err = r.Followup(&discordgo.WebhookParams{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	})
	return dropExpired(err)
}

// LeaderboardPage handles the pagination buttons. custom_id is
// "leaderboard-<page>". The source message is edited in place.
func (h *Handlers) LeaderboardPage(ctx context.Context, r *interactions.Responder, ic *interactions.Interaction) error {
	page := 0
	if len(ic.Args) > 0 {
		if n, err := strconv.Atoi(ic.Args[0]); err == nil && n >= 0 {
			page = n
		}
	}

	if err := r.DeferUpdate(); err != nil {
		return err
	}

	embed, components, err := h.leaderboardPage(ctx, page)
	if err != nil {
		h.logger.Warn("leaderboard build failed", zap.Error(err))
		return h.followupEmbed(r, h.errorEmbed("Guild Leaderboard", "Hypixel is unreachable right now, try again later."), true)
	}

	_, err = r.EditOriginal(&discordgo.WebhookEdit{
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &components,
	})
	return dropExpired(err)
}

type leaderboardRow struct {
	uuid   string
	name   string
	rank   string
	weekly int
}

func (h *Handlers) leaderboardPage(ctx context.Context, page int) (*discordgo.MessageEmbed, []discordgo.MessageComponent, error) {
	guild, err := h.hypixel.Guild(ctx, h.cfg.HypixelGuildID)
	if err != nil {
		return nil, nil, err
	}

	rows := make([]leaderboardRow, 0, len(guild.Members))
	for _, m := range guild.Members {
		row := leaderboardRow{uuid: m.UUID, rank: m.Rank}
		for _, exp := range m.ExpHistory {
			row.weekly += exp
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].weekly > rows[j].weekly })

	lastPage := 0
	if len(rows) > 0 {
		lastPage = (len(rows) - 1) / leaderboardPageSize
	}
	if page > lastPage {
		page = lastPage
	}
	start := page * leaderboardPageSize
	end := start + leaderboardPageSize
	if end > len(rows) {
		end = len(rows)
	}
	visible := rows[start:end]

	// Only the visible page needs display names; resolve those in parallel
	// under the client's request budget.
	var mu sync.Mutex
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(nameLookupWorkers)
	for i := range visible {
		i := i
		group.Go(func() error {
			player, err := h.hypixel.Player(gctx, visible[i].uuid)
			if err != nil {
				return err
			}
			mu.Lock()
			visible[i].name = player.Name
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, nil, err
	}

	var sb strings.Builder
	for i, row := range visible {
		name := row.name
		if name == "" {
			name = row.uuid
		}
		fmt.Fprintf(&sb, "**%d.** %s (%s) - %s GXP\n", start+i+1, name, row.rank, formatCoins(int64(row.weekly)))
	}
	if sb.Len() == 0 {
		sb.WriteString("No guild members found.")
	}

	embed := h.successEmbed(
		fmt.Sprintf("%s Weekly Leaderboard", guild.Name),
		sb.String(),
		nil,
	)
	embed.Footer = &discordgo.MessageEmbedFooter{
		Text: fmt.Sprintf("Page %d of %d", page+1, lastPage+1),
	}

	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				CustomID: fmt.Sprintf("leaderboard-%d", page-1),
				Label:    "Previous",
				Style:    discordgo.SecondaryButton,
				Disabled: page == 0,
			},
			discordgo.Button{
				CustomID: fmt.Sprintf("leaderboard-%d", page+1),
				Label:    "Next",
				Style:    discordgo.SecondaryButton,
				Disabled: page >= lastPage,
			},
		}},
	}
	return embed, components, nil
}

// dropExpired swallows expired-token failures from late follow-up edits.
func dropExpired(err error) error {
	if errors.Is(err, interactions.ErrTokenExpired) {
		return nil
	}
	return err
}
