package record

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FileName builds a recording file name from a mix title and start time,
// e.g. "friday_set_20240131-221500.wav". An empty or unusable title falls
// back to "mix".
func FileName(title string, at time.Time) string {
	slug, err := toASCII(title)
	if err != nil {
		slug = "mix"
	}
	return fmt.Sprintf("%s_%s.wav", slug, at.Format("20060102-150405"))
}

func toASCII(str string) (string, error) {
	// Step 1: Decompose and remove diacritics (accents)
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)), // Remove non-spacing marks
	)
	normalized, _, err := transform.String(t, str)
	if err != nil {
		return "", err
	}

	// Step 2: Remove non-ASCII and non-alphanumeric characters
	filtered := strings.Map(func(r rune) rune {
		if r > 127 {
			return -1 // remove non-ASCII
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1 // remove symbols/punctuation
	}, normalized)

	// Collapse runs of whitespace into single underscores
	filtered = strings.Join(strings.Fields(strings.ToLower(filtered)), "_")

	// Ensure the filename is not empty
	if filtered == "" {
		return "", fmt.Errorf("resulting filename is empty after processing")
	}

	return filtered, nil
}
