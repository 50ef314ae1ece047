// Package naming maps untrusted titles to filesystem-safe names and builds the
// output directory layout.
package naming

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxNameBytes keeps names well under the 255-byte limit of common filesystems
	// once an extension is appended.
	MaxNameBytes = 180

	// Fallback is used when nothing survives sanitizing.
	Fallback = "untitled"
)

// IllegalChars are removed from every name.
const IllegalChars = `/\?*"<>:|`

// Sanitize returns a version of title safe to use as a file or directory name
// and as the last field of a ledger line.
func Sanitize(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	prevHash := false
	prevSpace := false
	for _, r := range title {
		switch {
		case strings.ContainsRune(IllegalChars, r):
			continue
		case r == '#':
			// runs of '#' collapse so the ledger delimiter can never appear
			if prevHash {
				continue
			}
			prevHash = true
			prevSpace = false
			b.WriteRune(r)
			continue
		case unicode.IsControl(r) || unicode.IsSpace(r):
			if prevSpace {
				continue
			}
			prevSpace = true
			prevHash = false
			b.WriteByte(' ')
			continue
		case r == utf8.RuneError:
			continue
		}
		prevHash = false
		prevSpace = false
		b.WriteRune(r)
	}

	name := strings.Trim(b.String(), " .")
	name = truncate(name, MaxNameBytes)
	name = strings.Trim(name, " .")
	if name == "" {
		return Fallback
	}
	return name
}

// FileName returns the sanitized title with ext appended.
func FileName(title, ext string) string {
	return Sanitize(title) + "." + strings.TrimPrefix(ext, ".")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
