package interactions

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Handler is the uniform contract every command, component and modal handler
// implements. The Responder is the handler's only way to answer; it enforces
// the ack-then-followup protocol.
type Handler func(ctx context.Context, r *Responder, ic *Interaction) error

// AutocompleteHandler computes choice suggestions for a focused option.
type AutocompleteHandler func(ctx context.Context, ic *Interaction) ([]*discordgo.ApplicationCommandOptionChoice, error)

type componentEntry struct {
	handler Handler
	dialect Dialect
}

// Registry holds the three handler namespaces. All registration happens at
// startup; lookups are read-only afterwards, so no locking is needed.
type Registry struct {
	commands      map[string]Handler
	autocompletes map[string]AutocompleteHandler
	components    map[string]componentEntry
	modals        map[string]componentEntry
}

func NewRegistry() *Registry {
	return &Registry{
		commands:      make(map[string]Handler),
		autocompletes: make(map[string]AutocompleteHandler),
		components:    make(map[string]componentEntry),
		modals:        make(map[string]componentEntry),
	}
}

func (r *Registry) RegisterCommand(name string, h Handler) error {
	key := strings.ToLower(name)
	if _, exists := r.commands[key]; exists {
		return fmt.Errorf("command %q already registered", key)
	}
	r.commands[key] = h
	return nil
}

func (r *Registry) RegisterAutocomplete(name string, h AutocompleteHandler) error {
	key := strings.ToLower(name)
	if _, exists := r.autocompletes[key]; exists {
		return fmt.Errorf("autocomplete %q already registered", key)
	}
	r.autocompletes[key] = h
	return nil
}

func (r *Registry) RegisterComponent(key string, dialect Dialect, h Handler) error {
	key = strings.ToLower(key)
	if _, exists := r.components[key]; exists {
		return fmt.Errorf("component %q already registered", key)
	}
	r.components[key] = componentEntry{handler: h, dialect: dialect}
	return nil
}

func (r *Registry) RegisterModal(key string, dialect Dialect, h Handler) error {
	key = strings.ToLower(key)
	if _, exists := r.modals[key]; exists {
		return fmt.Errorf("modal %q already registered", key)
	}
	r.modals[key] = componentEntry{handler: h, dialect: dialect}
	return nil
}

func (r *Registry) ResolveCommand(name string) (Handler, bool) {
	h, ok := r.commands[strings.ToLower(name)]
	return h, ok
}

func (r *Registry) ResolveAutocomplete(name string) (AutocompleteHandler, bool) {
	h, ok := r.autocompletes[strings.ToLower(name)]
	return h, ok
}

func (r *Registry) ResolveComponent(key string) (Handler, Dialect, bool) {
	entry, ok := r.components[strings.ToLower(key)]
	return entry.handler, entry.dialect, ok
}

func (r *Registry) ResolveModal(key string) (Handler, Dialect, bool) {
	entry, ok := r.modals[strings.ToLower(key)]
	return entry.handler, entry.dialect, ok
}
