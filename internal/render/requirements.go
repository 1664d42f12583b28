package render

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// DefaultMinRequirementLength drops fragments such as "Login" or "TODO".
const DefaultMinRequirementLength = 5

// Input formats accepted by ParseRequirements.
const (
	FormatText = "text"
	FormatHTML = "html"
)

var (
	lineSplit    = regexp.MustCompile(`[\n\r]+`)
	markerOnly   = regexp.MustCompile(`^[\d.\-*+\s]*$`)
	leadingMark  = regexp.MustCompile(`^(?:[-*+]+\s*|\d+[.)]\s*|\d+\s+)+`)
	headingMarks = regexp.MustCompile(`^#+\s*`)
)

// ParseRequirements splits pasted text into one requirement per line.
// Lines of minLength runes or fewer are dropped; minLength <= 0 means the default.
func ParseRequirements(text, format string, minLength int) ([]string, error) {
	if minLength <= 0 {
		minLength = DefaultMinRequirementLength
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText, "markdown", "md":
	case FormatHTML:
		md, err := htmltomarkdown.ConvertString(text)
		if err != nil {
			return nil, fmt.Errorf("failed to convert html: %w", err)
		}
		text = md
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	requirements := []string{}
	for _, line := range lineSplit.Split(text, -1) {
		line = strings.TrimSpace(line)
		if line == "" || markerOnly.MatchString(line) {
			continue
		}
		line = headingMarks.ReplaceAllString(line, "")
		line = strings.TrimSpace(leadingMark.ReplaceAllString(line, ""))
		if utf8.RuneCountInString(line) > minLength {
			requirements = append(requirements, line)
		}
	}
	return requirements, nil
}
