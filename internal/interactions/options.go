package interactions

import "github.com/bwmarrin/discordgo"

// FlattenOptions walks a command's option tree and produces a name→value
// map. Subcommand groups and subcommands become nested maps, so a leaf under
// group "g", subcommand "s" is read as options["g"].(map[string]any)["s"].
// Discord caps nesting at group → subcommand → leaf, but the descent handles
// any depth. A nil tree flattens to an empty map, never nil.
func FlattenOptions(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]any {
	flat := make(map[string]any, len(opts))
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		switch opt.Type {
		case discordgo.ApplicationCommandOptionSubCommand, discordgo.ApplicationCommandOptionSubCommandGroup:
			flat[opt.Name] = FlattenOptions(opt.Options)
		default:
			flat[opt.Name] = opt.Value
		}
	}
	return flat
}

// focusedOption returns the option the user is currently typing into,
// searching nested subcommands as well.
func focusedOption(opts []*discordgo.ApplicationCommandInteractionDataOption) *discordgo.ApplicationCommandInteractionDataOption {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if opt.Focused {
			return opt
		}
		if found := focusedOption(opt.Options); found != nil {
			return found
		}
	}
	return nil
}

// StringOption reads a leaf string option from a flattened tree, descending
// through the given path of group/subcommand names first.
func StringOption(options map[string]any, path ...string) string {
	value, ok := lookupOption(options, path)
	if !ok {
		return ""
	}
	s, _ := value.(string)
	return s
}

// NumberOption reads a leaf numeric option. Discord encodes both integer and
// number options as JSON numbers, so the value arrives as float64.
func NumberOption(options map[string]any, path ...string) (float64, bool) {
	value, ok := lookupOption(options, path)
	if !ok {
		return 0, false
	}
	n, ok := value.(float64)
	return n, ok
}

// Subcommand returns the nested option map for a subcommand (or group) and
// whether it was supplied.
func Subcommand(options map[string]any, name string) (map[string]any, bool) {
	sub, ok := options[name].(map[string]any)
	return sub, ok
}

func lookupOption(options map[string]any, path []string) (any, bool) {
	if len(path) == 0 {
		return nil, false
	}
	current := options
	for _, name := range path[:len(path)-1] {
		next, ok := current[name].(map[string]any)
		if !ok {
			return nil, false
		}
		current = next
	}
	value, ok := current[path[len(path)-1]]
	return value, ok
}
