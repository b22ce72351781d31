package handlers

import (
	"context"
	"fmt"

	"github.com/Jforjo/IsleofDucks-sub001/internal/audit"
	"github.com/Jforjo/IsleofDucks-sub001/internal/interactions"

	"github.com/bwmarrin/discordgo"
)

// TicketClose handles the close button on ticket messages. These buttons
// predate the dash convention; their custom_id is "ticket_data_<channel id>"
// and the whole tail after the marker is a single argument.
func (h *Handlers) TicketClose(ctx context.Context, r *interactions.Responder, ic *interactions.Interaction) error {
	if !h.isStaff(ic) {
		return h.denyPermission(r, "Tickets")
	}

	if len(ic.Args) == 0 || ic.Args[0] == "" {
		return r.Respond(&discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{h.errorEmbed("Tickets", "This ticket button is missing its channel reference.")},
			Flags:  discordgo.MessageFlagsEphemeral,
		})
	}
	channelID := ic.Args[0]

	if err := r.Update(&discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{h.warningEmbed("Tickets", "This ticket has been closed.", nil)},
	}); err != nil {
		return err
	}

	actor := invoker(ic)
	h.audit.Log(ctx, audit.LevelInfo, h.cfg.GuildID, actor.ID, "ticket_close", fmt.Sprintf("channel=%s", channelID))
	return nil
}
