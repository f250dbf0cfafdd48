package util

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	whitespace    = regexp.MustCompile(`\s+`)
	leadingBullet = regexp.MustCompile(`^[-•–]\s*`)
)

// NormalizeWhitespace trims and collapses whitespace to single spaces.
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// ContainsFold reports whether needle occurs in text, ignoring case.
func ContainsFold(text, needle string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(needle))
}

// ContainsAnyCaseInsensitive returns true if text contains any of the needles (case-insensitive).
func ContainsAnyCaseInsensitive(text string, needles []string) bool {
	lt := strings.ToLower(text)
	for _, n := range needles {
		if strings.Contains(lt, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

// WordCount counts whitespace-separated tokens.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// StripBullet removes one leading dash or bullet marker.
func StripBullet(s string) string {
	return leadingBullet.ReplaceAllString(s, "")
}

// FormatThousands renders n with '.' as thousands separator (385000 → "385.000").
func FormatThousands(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
