package config

import (
	"fmt"
	"strings"
)

// Action is a host command bound to a key
type Action string

const (
	ActionNone        Action = "none"
	ActionQuit        Action = "quit"
	ActionInvert      Action = "invert"
	ActionToggleVideo Action = "toggle_video"
	ActionDensityUp   Action = "density_up"
	ActionDensityDown Action = "density_down"
	ActionFontUp      Action = "font_up"
	ActionFontDown    Action = "font_down"
	ActionCamera      Action = "camera"
	ActionSnapshot    Action = "snapshot"
	ActionStats       Action = "stats"
	ActionYank        Action = "yank"
)

var knownActions = map[Action]bool{
	ActionNone: true, ActionQuit: true, ActionInvert: true, ActionToggleVideo: true,
	ActionDensityUp: true, ActionDensityDown: true, ActionFontUp: true, ActionFontDown: true,
	ActionCamera: true, ActionSnapshot: true, ActionStats: true, ActionYank: true,
}

// Rune aliases for keys that can't be bare single-char TOML keys
var runeAliases = map[string]rune{
	"space":     ' ',
	"backslash": '\\',
	"plus":      '+',
	"minus":     '-',
}

// DefaultKeys returns the built-in bindings
func DefaultKeys() map[rune]Action {
	return map[rune]Action{
		'q': ActionQuit,
		'i': ActionInvert,
		'v': ActionToggleVideo,
		'+': ActionDensityUp,
		'=': ActionDensityUp,
		'-': ActionDensityDown,
		']': ActionFontUp,
		'[': ActionFontDown,
		'c': ActionCamera,
		's': ActionSnapshot,
		'm': ActionStats,
		'y': ActionYank,
	}
}

// parseKeys converts a [keys] table of key → action name
func parseKeys(data map[string]string) (map[rune]Action, error) {
	result := make(map[rune]Action, len(data))
	for keyStr, name := range data {
		r, err := resolveRune(keyStr)
		if err != nil {
			return nil, fmt.Errorf("[keys] key %q: %w", keyStr, err)
		}
		a := Action(strings.ToLower(strings.TrimSpace(name)))
		if !knownActions[a] {
			return nil, fmt.Errorf("[keys] key %q: unknown action: %q", keyStr, name)
		}
		result[r] = a
	}
	return result, nil
}

// resolveRune accepts single characters and named aliases
func resolveRune(s string) (rune, error) {
	if r, ok := runeAliases[strings.ToLower(s)]; ok {
		return r, nil
	}
	runes := []rune(s)
	if len(runes) == 1 {
		return runes[0], nil
	}
	return 0, fmt.Errorf("invalid rune key: %q (expected single character or alias)", s)
}

// MergeKeys returns base overridden by override; ActionNone deletes a binding
func MergeKeys(base, override map[rune]Action) map[rune]Action {
	result := make(map[rune]Action, len(base)+len(override))
	for k, v := range base {
		result[k] = v
	}
	for k, v := range override {
		if v == ActionNone {
			delete(result, k)
		} else {
			result[k] = v
		}
	}
	return result
}
