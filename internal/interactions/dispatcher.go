package interactions

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	headerSignature = "X-Signature-Ed25519"
	headerTimestamp = "X-Signature-Timestamp"
)

// Resolver is the registry surface the dispatcher needs; tests substitute a
// spy to assert that rejected requests never reach handler resolution.
type Resolver interface {
	ResolveCommand(name string) (Handler, bool)
	ResolveAutocomplete(name string) (AutocompleteHandler, bool)
	ResolveComponent(key string) (Handler, Dialect, bool)
	ResolveModal(key string) (Handler, Dialect, bool)
}

// Dispatcher owns the single code path every interaction shares:
// verify → classify → resolve → invoke. It sends the Pong for pings itself;
// everything else is answered by the resolved handler through a Responder.
type Dispatcher struct {
	publicKey ed25519.PublicKey
	registry  Resolver
	client    Client
	logger    *zap.Logger
	now       func() time.Time
}

func NewDispatcher(publicKey ed25519.PublicKey, registry Resolver, client Client, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		publicKey: publicKey,
		registry:  registry,
		client:    client,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the time source handed to each Responder.
func (d *Dispatcher) WithClock(now func() time.Time) {
	d.now = now
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type successBody struct {
	Success bool `json:"success"`
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]string{
			"name":   "IsleofDucks interactions endpoint",
			"status": "ok",
		})
		return
	case http.MethodPost:
	default:
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed"})
		return
	}

	body, err := io.ReadAll(req.Body)
	if err != nil || len(body) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Missing request body"})
		return
	}

	if !Verify(body, req.Header.Get(headerSignature), req.Header.Get(headerTimestamp), d.publicKey) {
		d.logger.Debug("signature verification failed")
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Bad request signature"})
		return
	}

	ic, err := Classify(body)
	if err != nil {
		d.logger.Debug("classification failed", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, errorBody{Error: classifyErrorMessage(err)})
		return
	}

	if ic.Kind == KindPing {
		writeJSON(w, http.StatusOK, discordgo.InteractionResponse{Type: discordgo.InteractionResponsePong})
		return
	}

	handler, status, errMsg := d.resolve(ic)
	if handler == nil {
		d.logger.Info("unresolved handler",
			zap.String("routing_key", ic.RoutingKey),
			zap.String("interaction_id", ic.Raw.ID))
		writeJSON(w, status, errorBody{Error: errMsg})
		return
	}

	responder := NewResponder(d.client, ic.Raw, d.logger)
	responder.WithClock(d.now)

	if err := d.invoke(req, responder, ic, handler); err != nil {
		d.logger.Error("handler failed",
			zap.String("routing_key", ic.RoutingKey),
			zap.String("interaction_id", ic.Raw.ID),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, successBody{Success: true})
}

// resolve maps the classified interaction to its handler, filling in
// custom_id arguments once the registered dialect is known. A nil handler
// means unresolved; status and message describe the miss.
func (d *Dispatcher) resolve(ic *Interaction) (Handler, int, string) {
	switch ic.Kind {
	case KindCommand:
		handler, ok := d.registry.ResolveCommand(ic.RoutingKey)
		if !ok {
			return nil, http.StatusNotFound, "Unknown Command"
		}
		return handler, 0, ""
	case KindAutocomplete:
		// Autocomplete shares the command namespace; commands without a
		// suggestion handler get an empty choice list.
		auto, ok := d.registry.ResolveAutocomplete(ic.RoutingKey)
		if !ok {
			if _, known := d.registry.ResolveCommand(ic.RoutingKey); !known {
				return nil, http.StatusNotFound, "Unknown Command"
			}
			auto = func(context.Context, *Interaction) ([]*discordgo.ApplicationCommandOptionChoice, error) {
				return nil, nil
			}
		}
		return autocompleteHandler(auto), 0, ""
	case KindComponent:
		handler, dialect, ok := d.registry.ResolveComponent(ic.RoutingKey)
		if !ok {
			return nil, http.StatusNotFound, "Unknown Component"
		}
		_, ic.Args = SplitCustomID(ic.CustomID, dialect)
		return handler, 0, ""
	case KindModal:
		handler, dialect, ok := d.registry.ResolveModal(ic.RoutingKey)
		if !ok {
			return nil, http.StatusNotFound, "Unknown Modal"
		}
		_, ic.Args = SplitCustomID(ic.CustomID, dialect)
		return handler, 0, ""
	}
	return nil, http.StatusBadRequest, "Unsupported interaction type"
}

// invoke runs the handler with a panic backstop. Handlers report their own
// business failures through the Responder; an error or panic reaching here
// is a programming error, mapped to a generic 500.
func (d *Dispatcher) invoke(req *http.Request, responder *Responder, ic *Interaction, handler Handler) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = errors.Join(err, &panicError{value: recovered})
		}
	}()
	return handler(req.Context(), responder, ic)
}

func autocompleteHandler(auto AutocompleteHandler) Handler {
	return func(ctx context.Context, r *Responder, ic *Interaction) error {
		choices, err := auto(ctx, ic)
		if err != nil {
			return err
		}
		return r.Choices(choices)
	}
}

func classifyErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrMissingBody):
		return "Missing request body"
	case errors.Is(err, ErrUnsupportedType):
		return "Unsupported interaction type"
	default:
		return "Malformed interaction payload"
	}
}

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return "handler panic: " + fmt.Sprint(e.value)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
