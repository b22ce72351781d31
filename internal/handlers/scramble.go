package handlers

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/Jforjo/IsleofDucks-sub001/internal/interactions"
	"github.com/Jforjo/IsleofDucks-sub001/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// scrambleWords is the pool the minigame draws from. Minecraft and guild
// vocabulary so the answers feel at home in the server.
var scrambleWords = []string{
	"creeper", "enderman", "netherite", "redstone", "obsidian",
	"diamond", "emerald", "skeleton", "zombie", "villager",
	"duckling", "feather", "pond", "mallard", "waddle",
}

// Scramble runs the word-scramble minigame: /scramble play shows a
// scrambled word, /scramble guess scores an answer, /scramble top shows
// the best scores.
func (h *Handlers) Scramble(ctx context.Context, r *interactions.Responder, ic *interactions.Interaction) error {
	if _, ok := interactions.Subcommand(ic.Options, "play"); ok {
		return h.scramblePlay(r)
	}
	if sub, ok := interactions.Subcommand(ic.Options, "guess"); ok {
		return h.scrambleGuess(ctx, r, ic, sub)
	}
	if _, ok := interactions.Subcommand(ic.Options, "top"); ok {
		return h.scrambleTop(ctx, r)
	}
	return r.Respond(&discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{h.errorEmbed("Word Scramble", "Unknown subcommand.")},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
}

func (h *Handlers) scramblePlay(r *interactions.Responder) error {
	word := scrambleWords[rand.Intn(len(scrambleWords))]
	return r.Respond(&discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{h.successEmbed(
			"Word Scramble",
			fmt.Sprintf("Unscramble this: **%s**\nAnswer with `/scramble guess`.", scramble(word)),
			nil,
		)},
	})
}

func (h *Handlers) scrambleGuess(ctx context.Context, r *interactions.Responder, ic *interactions.Interaction, opts map[string]any) error {
	guess := strings.ToLower(strings.TrimSpace(interactions.StringOption(opts, "word")))
	if guess == "" {
		return r.Respond(&discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{h.errorEmbed("Word Scramble", "A guess is required.")},
			Flags:  discordgo.MessageFlagsEphemeral,
		})
	}

	if !wordInPool(guess) {
		return r.Respond(&discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{h.warningEmbed("Word Scramble", fmt.Sprintf("`%s` is not the answer, keep trying!", guess), nil)},
			Flags:  discordgo.MessageFlagsEphemeral,
		})
	}

	if err := r.Defer(false); err != nil {
		return err
	}

	actor := invoker(ic)
	score := len(guess)
	if err := h.store.SubmitScrambleScore(ctx, storage.ScrambleScore{
		DiscordID: actor.ID,
		Name:      actor.Username,
		Score:     score,
	}); err != nil {
		h.logger.Error("scramble score insert failed", zap.Error(err))
		return h.followupEmbed(r, h.errorEmbed("Word Scramble", "Could not record the score."), true)
	}

	return h.followupEmbed(r, h.successEmbed(
		"Word Scramble",
		fmt.Sprintf("Correct! <@%s> scores **%d** points.", actor.ID, score),
		nil,
	), false)
}

func (h *Handlers) scrambleTop(ctx context.Context, r *interactions.Responder) error {
	if err := r.Defer(false); err != nil {
		return err
	}

	scores, err := h.store.TopScrambleScores(ctx, 10)
	if err != nil {
		h.logger.Error("scramble top failed", zap.Error(err))
		return h.followupEmbed(r, h.errorEmbed("Word Scramble", "Could not read the scoreboard."), true)
	}
	if len(scores) == 0 {
		return h.followupEmbed(r, h.successEmbed("Word Scramble", "Nobody has scored yet.", nil), true)
	}

	var sb strings.Builder
	for i, s := range scores {
		fmt.Fprintf(&sb, "**%d.** %s - %d points\n", i+1, s.Name, s.Score)
	}
	return h.followupEmbed(r, h.successEmbed("Word Scramble", sb.String(), nil), false)
}

func wordInPool(guess string) bool {
	for _, word := range scrambleWords {
		if word == guess {
			return true
		}
	}
	return false
}

// scramble shuffles the letters until the result differs from the input.
func scramble(word string) string {
	letters := []rune(word)
	for attempt := 0; attempt < 10; attempt++ {
		rand.Shuffle(len(letters), func(i, j int) {
			letters[i], letters[j] = letters[j], letters[i]
		})
		if string(letters) != word {
			break
		}
	}
	return string(letters)
}
