package interactions

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// spyResolver records whether resolution was ever attempted, so tests can
// assert rejected requests never reach the registry.
type spyResolver struct {
	reg      *Registry
	resolved bool
}

func (s *spyResolver) ResolveCommand(name string) (Handler, bool) {
	s.resolved = true
	return s.reg.ResolveCommand(name)
}

func (s *spyResolver) ResolveAutocomplete(name string) (AutocompleteHandler, bool) {
	s.resolved = true
	return s.reg.ResolveAutocomplete(name)
}

func (s *spyResolver) ResolveComponent(key string) (Handler, Dialect, bool) {
	s.resolved = true
	return s.reg.ResolveComponent(key)
}

func (s *spyResolver) ResolveModal(key string) (Handler, Dialect, bool) {
	s.resolved = true
	return s.reg.ResolveModal(key)
}

type dispatcherFixture struct {
	dispatcher *Dispatcher
	registry   *Registry
	resolver   *spyResolver
	client     *recordingClient
	priv       ed25519.PrivateKey
}

func newDispatcherFixture(t *testing.T) *dispatcherFixture {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}

	registry := NewRegistry()
	resolver := &spyResolver{reg: registry}
	client := &recordingClient{}
	d := NewDispatcher(pub, resolver, client, zap.NewNop())
	d.WithClock(func() time.Time { return time.Unix(1420070400, 0) })
	return &dispatcherFixture{dispatcher: d, registry: registry, resolver: resolver, client: client, priv: priv}
}

func (f *dispatcherFixture) post(t *testing.T, body []byte, signed bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/interactions", bytes.NewReader(body))
	timestamp := "1700000000"
	req.Header.Set("X-Signature-Timestamp", timestamp)
	if signed {
		req.Header.Set("X-Signature-Ed25519", signRequest(t, f.priv, timestamp, body))
	} else {
		req.Header.Set("X-Signature-Ed25519", signRequest(t, f.priv, timestamp, []byte("other")))
	}

	rec := httptest.NewRecorder()
	f.dispatcher.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestDispatcherRejectsBadSignatureBeforeResolution(t *testing.T) {
	f := newDispatcherFixture(t)
	rec := f.post(t, []byte(`{"type":2,"data":{"name":"ban"}}`), false)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Error != "Bad request signature" {
		t.Fatalf("unexpected error message %q", body.Error)
	}
	if f.resolver.resolved {
		t.Fatalf("unsigned request must never reach the registry")
	}
	if len(f.client.responses) != 0 {
		t.Fatalf("unsigned request must never reach Discord")
	}
}

func TestDispatcherAnswersPingDirectly(t *testing.T) {
	f := newDispatcherFixture(t)
	rec := f.post(t, []byte(`{"type":1}`), true)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Type int `json:"type"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode pong: %v", err)
	}
	if resp.Type != int(discordgo.InteractionResponsePong) {
		t.Fatalf("expected pong type 1, got %d", resp.Type)
	}
	if f.resolver.resolved {
		t.Fatalf("pings are answered without handler resolution")
	}
}

func TestDispatcherUnknownRoutes(t *testing.T) {
	f := newDispatcherFixture(t)

	rec := f.post(t, []byte(`{"type":2,"data":{"name":"nope"}}`), true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Error != "Unknown Command" {
		t.Fatalf("unexpected error %q", body.Error)
	}

	rec = f.post(t, []byte(`{"type":3,"data":{"custom_id":"nope-1","component_type":2}}`), true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Error != "Unknown Component" {
		t.Fatalf("unexpected error %q", body.Error)
	}

	rec = f.post(t, []byte(`{"type":5,"data":{"custom_id":"nope-1"}}`), true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Error != "Unknown Modal" {
		t.Fatalf("unexpected error %q", body.Error)
	}
}

func TestDispatcherRejectsUnknownType(t *testing.T) {
	f := newDispatcherFixture(t)
	rec := f.post(t, []byte(`{"type":42}`), true)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Error != "Unsupported interaction type" {
		t.Fatalf("unexpected error %q", body.Error)
	}
	if f.resolver.resolved {
		t.Fatalf("unknown types must never be dispatched")
	}
}

func TestDispatcherEndToEndDeferThenFollowup(t *testing.T) {
	f := newDispatcherFixture(t)
	// The dispatcher clock is pinned just after the fixture snowflake's
	// creation time so the token is inside its validity window.
	created, err := discordgo.SnowflakeTimestamp("123456789012345678")
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	f.dispatcher.WithClock(func() time.Time { return created.Add(time.Second) })

	err = f.registry.RegisterCommand("ping_test", func(ctx context.Context, r *Responder, ic *Interaction) error {
		if err := r.Defer(false); err != nil {
			return err
		}
		_, err := r.Followup(&discordgo.WebhookParams{Content: "pong"})
		return err
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	rec := f.post(t, []byte(`{"id":"123456789012345678","token":"abc","type":2,"data":{"name":"PING_TEST"}}`), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body successBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || !body.Success {
		t.Fatalf("expected success body, got %s", rec.Body.String())
	}

	// The ack must hit the wire before the follow-up, and exactly once each.
	if len(f.client.responses) != 1 {
		t.Fatalf("expected exactly one first response, got %d", len(f.client.responses))
	}
	if f.client.responses[0].Type != discordgo.InteractionResponseDeferredChannelMessageWithSource {
		t.Fatalf("expected deferred ack, got %v", f.client.responses[0].Type)
	}
	if len(f.client.followups) != 1 || f.client.followups[0].Content != "pong" {
		t.Fatalf("expected one pong follow-up, got %+v", f.client.followups)
	}
}

func TestDispatcherComponentArgsFollowDialect(t *testing.T) {
	f := newDispatcherFixture(t)
	var gotArgs []string
	if err := f.registry.RegisterComponent("ticket", DialectData, func(ctx context.Context, r *Responder, ic *Interaction) error {
		gotArgs = ic.Args
		return r.DeferUpdate()
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	rec := f.post(t, []byte(`{"type":3,"data":{"custom_id":"ticket_data_chan-99","component_type":2}}`), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(gotArgs) != 1 || gotArgs[0] != "chan-99" {
		t.Fatalf("expected legacy dialect args, got %v", gotArgs)
	}
}

func TestDispatcherAutocompleteFallsBackToEmptyChoices(t *testing.T) {
	f := newDispatcherFixture(t)
	if err := f.registry.RegisterCommand("ban", noopHandler); err != nil {
		t.Fatalf("register: %v", err)
	}

	rec := f.post(t, []byte(`{"type":4,"data":{"name":"ban","options":[{"name":"player","type":3,"value":"D","focused":true}]}}`), true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(f.client.responses) != 1 {
		t.Fatalf("expected one autocomplete response, got %d", len(f.client.responses))
	}
	resp := f.client.responses[0]
	if resp.Type != discordgo.InteractionApplicationCommandAutocompleteResult {
		t.Fatalf("unexpected response type %v", resp.Type)
	}
	if resp.Data == nil || len(resp.Data.Choices) != 0 {
		t.Fatalf("expected empty choice list")
	}
}

func TestDispatcherHandlerFailuresMapToInternalError(t *testing.T) {
	f := newDispatcherFixture(t)
	if err := f.registry.RegisterCommand("boom", func(ctx context.Context, r *Responder, ic *Interaction) error {
		panic("boom")
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	rec := f.post(t, []byte(`{"type":2,"data":{"name":"boom"}}`), true)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Error != "Internal server error" {
		t.Fatalf("unexpected error %q", body.Error)
	}
}

func TestDispatcherMethodHandling(t *testing.T) {
	f := newDispatcherFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/interactions", nil)
	rec := httptest.NewRecorder()
	f.dispatcher.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on GET, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPut, "/interactions", bytes.NewReader([]byte("{}")))
	rec = httptest.NewRecorder()
	f.dispatcher.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 on PUT, got %d", rec.Code)
	}
}
