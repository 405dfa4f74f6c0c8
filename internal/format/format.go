// Package format holds the display helpers used when rendering posts.
package format

import (
	"strings"
	"time"
)

// URL reduces a link to its bare host, e.g. "https://www.google.com/q?x" -> "google.com".
func URL(raw string) string {
	s := strings.NewReplacer("http://", "", "https://", "", "www.", "").Replace(raw)
	s, _, _ = strings.Cut(s, "/")
	s, _, _ = strings.Cut(s, "?")
	return s
}

// Date renders t as MM/DD/YY.
func Date(t time.Time) string {
	return t.Format("01/02/06")
}

// Plural appends an "s" to word unless amount is exactly one.
func Plural(amount int, word string) string {
	if amount != 1 {
		return word + "s"
	}
	return word
}
