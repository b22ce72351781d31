package handlers

import "github.com/bwmarrin/discordgo"

// CommandManager is the slice of the application-command REST surface the
// sync needs. *discordgo.Session satisfies it.
type CommandManager interface {
	ApplicationCommands(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	ApplicationCommandEdit(appID, guildID, cmdID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	ApplicationCommandDelete(appID, guildID, cmdID string, options ...discordgo.RequestOption) error
}

// Definitions returns the slash-command set this deployment serves. The
// names line up with the keys wired in Register.
func Definitions() []*discordgo.ApplicationCommand {
	playerOption := func(desc string, required bool, autocomplete bool) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:         discordgo.ApplicationCommandOptionString,
			Name:         "player",
			Description:  desc,
			Required:     required,
			Autocomplete: autocomplete,
		}
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        "ban",
			Description: "Manage the guild ban list",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "add",
					Description: "Add a player to the ban list",
					Options: []*discordgo.ApplicationCommandOption{
						playerOption("Minecraft player name", true, false),
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "reason",
							Description: "Why the player is banned",
							Required:    false,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "remove",
					Description: "Remove a player from the ban list",
					Options: []*discordgo.ApplicationCommandOption{
						playerOption("Minecraft player name", true, false),
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "check",
					Description: "Check whether a player is banned",
					Options: []*discordgo.ApplicationCommandOption{
						playerOption("Minecraft player name", true, false),
					},
				},
			},
		},
		{
			Name:        "donate",
			Description: "Record a guild donation",
		},
		{
			Name:        "leaderboard",
			Description: "Show the weekly guild experience leaderboard",
		},
		{
			Name:        "scammer",
			Description: "Check or report scammers",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "check",
					Description: "Check a player against the scammer list",
					Options: []*discordgo.ApplicationCommandOption{
						playerOption("Minecraft player name", true, true),
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "report",
					Description: "Report a player as a scammer",
					Options: []*discordgo.ApplicationCommandOption{
						playerOption("Minecraft player name", true, true),
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "reason",
							Description: "What happened",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "evidence",
							Description: "Link to the evidence",
							Required:    true,
						},
					},
				},
			},
		},
		{
			Name:        "filter",
			Description: "Manage the chat filter",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "add",
					Description: "Add a phrase to the filter",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "phrase",
							Description: "Phrase to block",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "remove",
					Description: "Remove a phrase from the filter",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "phrase",
							Description: "Phrase to unblock",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "List the filtered phrases",
				},
			},
		},
		{
			Name:        "scramble",
			Description: "Word scramble minigame",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "play",
					Description: "Get a scrambled word",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "guess",
					Description: "Guess the answer",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "word",
							Description: "Your answer",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "top",
					Description: "Show the best scores",
				},
			},
		},
		{
			Name:        "rolesync",
			Description: "Sync Discord rank roles with the Hypixel guild",
		},
	}
}

// SyncCommands reconciles the deployed command set: edits commands that
// exist, creates missing ones, deletes strays. Deletion failures are not
// fatal; a stray command only costs a 404 at dispatch.
func SyncCommands(mgr CommandManager, appID, guildID string) error {
	commands := Definitions()

	existing, err := mgr.ApplicationCommands(appID, guildID)
	if err != nil {
		for _, cmd := range commands {
			if _, err := mgr.ApplicationCommandCreate(appID, guildID, cmd); err != nil {
				return err
			}
		}
		return nil
	}

	existingByName := make(map[string]*discordgo.ApplicationCommand)
	for _, cmd := range existing {
		existingByName[cmd.Name] = cmd
	}

	desired := make(map[string]struct{})
	for _, cmd := range commands {
		desired[cmd.Name] = struct{}{}
		if current, ok := existingByName[cmd.Name]; ok {
			if _, err := mgr.ApplicationCommandEdit(appID, guildID, current.ID, cmd); err != nil {
				return err
			}
			continue
		}
		if _, err := mgr.ApplicationCommandCreate(appID, guildID, cmd); err != nil {
			return err
		}
	}

	for _, cmd := range existing {
		if _, ok := desired[cmd.Name]; ok {
			continue
		}
		_ = mgr.ApplicationCommandDelete(appID, guildID, cmd.ID)
	}
	return nil
}
