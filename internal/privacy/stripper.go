// Package privacy removes user-marked private content from prompt text
// before it is stored.
package privacy

import (
	"regexp"
	"strings"
)

// privateTagRegex matches <private>...</private> blocks, across lines and
// case-insensitively.
var privateTagRegex = regexp.MustCompile(`(?is)<private>.*?</private>`)

// StripPrivateTags removes every <private>...</private> block from text.
// Unbalanced tags are left alone.
func StripPrivateTags(text string) string {
	return privateTagRegex.ReplaceAllString(text, "")
}

// Clean strips private blocks and trims the result. A prompt that was
// entirely private becomes the empty string.
func Clean(text string) string {
	return strings.TrimSpace(StripPrivateTags(text))
}

// Cleaner returns Clean when enabled, nil otherwise. The result plugs into
// tracker.WithPromptCleaner.
func Cleaner(enabled bool) func(string) string {
	if !enabled {
		return nil
	}
	return Clean
}
