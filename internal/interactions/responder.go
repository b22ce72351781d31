package interactions

import (
	"errors"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// TokenTTL is how long Discord honours an interaction token for follow-up
// calls. ResponseWindow is how long Discord waits for the first response;
// handlers doing slow work must defer inside it.
const (
	TokenTTL       = 15 * time.Minute
	ResponseWindow = 3 * time.Second
)

var (
	ErrAlreadyAcknowledged = errors.New("interaction already acknowledged")
	ErrNotAcknowledged     = errors.New("interaction not acknowledged yet")
	ErrTokenExpired        = errors.New("interaction token expired")
	ErrDeferUpdateKind     = errors.New("deferred message update requires a component or modal interaction")
)

// Client is the slice of the Discord REST surface the response protocol
// needs. *discordgo.Session satisfies it.
type Client interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
	FollowupMessageEdit(interaction *discordgo.Interaction, messageID string, data *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Responder is the per-request state object that drives the two-phase
// response protocol: exactly one first response (message, defer or modal),
// then any number of follow-ups keyed by the interaction token. Calling a
// follow-up before acknowledging, or acknowledging twice, fails fast instead
// of surfacing later as an opaque Discord API rejection.
type Responder struct {
	mu     sync.Mutex
	acked  bool
	client Client
	ic     *discordgo.Interaction
	logger *zap.Logger
	now    func() time.Time
}

func NewResponder(client Client, ic *discordgo.Interaction, logger *zap.Logger) *Responder {
	return &Responder{client: client, ic: ic, logger: logger, now: time.Now}
}

// WithClock overrides the time source used for token-expiry checks.
func (r *Responder) WithClock(now func() time.Time) {
	r.now = now
}

// Acknowledged reports whether the first response has been sent.
func (r *Responder) Acknowledged() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.acked
}

// Respond sends an immediate full message as the first response.
func (r *Responder) Respond(data *discordgo.InteractionResponseData) error {
	return r.first(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

// Defer acknowledges with a deferred channel message. Handlers must call
// this before any slow external work.
func (r *Responder) Defer(ephemeral bool) error {
	data := &discordgo.InteractionResponseData{}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return r.first(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: data,
	})
}

// DeferUpdate acknowledges a component or modal interaction with a deferred
// in-place edit of its source message.
func (r *Responder) DeferUpdate() error {
	if r.ic.Type != discordgo.InteractionMessageComponent && r.ic.Type != discordgo.InteractionModalSubmit {
		return ErrDeferUpdateKind
	}
	return r.first(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
}

// Update replaces the source message as the first response. Component
// interactions only.
func (r *Responder) Update(data *discordgo.InteractionResponseData) error {
	if r.ic.Type != discordgo.InteractionMessageComponent {
		return ErrDeferUpdateKind
	}
	return r.first(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: data,
	})
}

// Modal opens a modal. Only legal as the very first response; a modal can
// never follow a defer.
func (r *Responder) Modal(data *discordgo.InteractionResponseData) error {
	return r.first(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: data,
	})
}

// Choices answers an autocomplete interaction with its suggestion list.
func (r *Responder) Choices(choices []*discordgo.ApplicationCommandOptionChoice) error {
	return r.first(&discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	})
}

// Followup sends an asynchronous message after acknowledgment. Past the
// token window the send is logged and dropped; callers treat ErrTokenExpired
// as non-fatal and never retry.
func (r *Responder) Followup(data *discordgo.WebhookParams) (*discordgo.Message, error) {
	if err := r.followupAllowed(); err != nil {
		return nil, err
	}
	return r.client.FollowupMessageCreate(r.ic, true, data)
}

// EditOriginal edits the message created by the first response, used for
// progressive status updates. It does not change the protocol state.
func (r *Responder) EditOriginal(data *discordgo.WebhookEdit) (*discordgo.Message, error) {
	if err := r.followupAllowed(); err != nil {
		return nil, err
	}
	return r.client.InteractionResponseEdit(r.ic, data)
}

// EditFollowup edits a previously sent follow-up message.
func (r *Responder) EditFollowup(messageID string, data *discordgo.WebhookEdit) (*discordgo.Message, error) {
	if err := r.followupAllowed(); err != nil {
		return nil, err
	}
	return r.client.FollowupMessageEdit(r.ic, messageID, data)
}

func (r *Responder) first(resp *discordgo.InteractionResponse) error {
	r.mu.Lock()
	if r.acked {
		r.mu.Unlock()
		return ErrAlreadyAcknowledged
	}
	r.acked = true
	r.mu.Unlock()

	if err := r.client.InteractionRespond(r.ic, resp); err != nil {
		return err
	}
	return nil
}

func (r *Responder) followupAllowed() error {
	r.mu.Lock()
	acked := r.acked
	r.mu.Unlock()
	if !acked {
		return ErrNotAcknowledged
	}
	if r.tokenExpired() {
		r.logger.Warn("follow-up dropped, interaction token expired", zap.String("interaction_id", r.ic.ID))
		return ErrTokenExpired
	}
	return nil
}

// tokenExpired derives the interaction's creation time from its snowflake
// id. Unparseable ids (fixtures, tests) are treated as fresh.
func (r *Responder) tokenExpired() bool {
	created, err := discordgo.SnowflakeTimestamp(r.ic.ID)
	if err != nil {
		return false
	}
	return r.now().Sub(created) > TokenTTL
}
