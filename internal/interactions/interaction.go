package interactions

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Kind is the coarse classification of an inbound interaction.
type Kind int

const (
	KindPing Kind = iota
	KindCommand
	KindComponent
	KindAutocomplete
	KindModal
)

// Dialect selects how a custom_id is split into routing key and arguments.
// DialectDash is the convention for new components; DialectData exists for
// the legacy ticket buttons and should not be used for new keys.
type Dialect int

const (
	DialectDash Dialect = iota
	DialectData
)

const legacySeparator = "_data_"

var (
	ErrMissingBody     = errors.New("missing request body")
	ErrMalformed       = errors.New("malformed interaction payload")
	ErrUnsupportedType = errors.New("unsupported interaction type")
)

// Interaction is the classified form of one webhook payload. Raw keeps the
// full wire object for handlers that need identity or message context.
type Interaction struct {
	Raw        *discordgo.Interaction
	Kind       Kind
	RoutingKey string

	// Command / autocomplete. Focused names the option being typed into;
	// FocusedValue is its partial text.
	CommandName  string
	Options      map[string]any
	Focused      string
	FocusedValue string

	// Component / modal.
	CustomID string
	Args     []string

	// Modal text inputs, keyed by custom_id of the input.
	Fields map[string]string
}

// Classify parses a verified body into a tagged Interaction and derives its
// routing key. Unknown future type values are reported, never dispatched.
func Classify(body []byte) (*Interaction, error) {
	if len(body) == 0 {
		return nil, ErrMissingBody
	}

	var probe struct {
		Type int `json:"type"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var kind Kind
	switch discordgo.InteractionType(probe.Type) {
	case discordgo.InteractionPing:
		kind = KindPing
	case discordgo.InteractionApplicationCommand:
		kind = KindCommand
	case discordgo.InteractionMessageComponent:
		kind = KindComponent
	case discordgo.InteractionApplicationCommandAutocomplete:
		kind = KindAutocomplete
	case discordgo.InteractionModalSubmit:
		kind = KindModal
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedType, probe.Type)
	}

	raw := &discordgo.Interaction{}
	if err := raw.UnmarshalJSON(body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	ic := &Interaction{Raw: raw, Kind: kind}
	switch kind {
	case KindPing:
		return ic, nil
	case KindCommand, KindAutocomplete:
		data := raw.ApplicationCommandData()
		if data.Name == "" {
			return nil, fmt.Errorf("%w: command data missing", ErrMalformed)
		}
		ic.CommandName = data.Name
		ic.RoutingKey = strings.ToLower(data.Name)
		ic.Options = FlattenOptions(data.Options)
		if kind == KindAutocomplete {
			if opt := focusedOption(data.Options); opt != nil {
				ic.Focused = opt.Name
				ic.FocusedValue, _ = opt.Value.(string)
			}
		}
	case KindComponent:
		data := raw.MessageComponentData()
		if data.CustomID == "" {
			return nil, fmt.Errorf("%w: component custom_id missing", ErrMalformed)
		}
		ic.CustomID = data.CustomID
		ic.RoutingKey = RoutingKey(data.CustomID)
	case KindModal:
		data := raw.ModalSubmitData()
		if data.CustomID == "" {
			return nil, fmt.Errorf("%w: modal custom_id missing", ErrMalformed)
		}
		ic.CustomID = data.CustomID
		ic.RoutingKey = RoutingKey(data.CustomID)
		ic.Fields = modalFields(data.Components)
	}
	return ic, nil
}

// RoutingKey returns the leading custom_id segment under either dialect,
// lowercased. The earliest delimiter wins so that a dash key never swallows
// a legacy separator and vice versa.
func RoutingKey(customID string) string {
	end := len(customID)
	if i := strings.Index(customID, "-"); i >= 0 && i < end {
		end = i
	}
	if i := strings.Index(customID, legacySeparator); i >= 0 && i < end {
		end = i
	}
	return strings.ToLower(customID[:end])
}

// SplitCustomID splits a custom_id into its routing key and argument
// segments under the given dialect. The legacy dialect yields at most one
// remainder segment; the dash dialect yields one segment per dash.
func SplitCustomID(customID string, dialect Dialect) (string, []string) {
	if dialect == DialectData {
		key, rest, found := strings.Cut(customID, legacySeparator)
		if !found {
			return strings.ToLower(customID), nil
		}
		return strings.ToLower(key), []string{rest}
	}
	parts := strings.Split(customID, "-")
	if len(parts) == 1 {
		return strings.ToLower(parts[0]), nil
	}
	return strings.ToLower(parts[0]), parts[1:]
}

func modalFields(rows []discordgo.MessageComponent) map[string]string {
	fields := make(map[string]string)
	for _, row := range rows {
		actions, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, comp := range actions.Components {
			if input, ok := comp.(*discordgo.TextInput); ok {
				fields[input.CustomID] = input.Value
			}
		}
	}
	return fields
}
