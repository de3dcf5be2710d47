// Package sanitize turns article titles into filesystem-safe filenames.
package sanitize

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// MaxStemLen is the maximum length of a sanitized filename stem, in runes.
const MaxStemLen = 120

// windowsReserved holds device names that cannot be used as bare filenames
// on Windows, uppercase.
var windowsReserved = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// Filename converts a raw title into a safe filename stem. The result
// contains only ASCII letters, digits, underscores and hyphens, is at most
// MaxStemLen runes long, and is never empty: a title with no usable
// characters falls back to "untitled".
func Filename(title string) string {
	// Collapse whitespace runs to single spaces, then spaces to underscores.
	stem := strings.Join(strings.Fields(title), " ")
	stem = strings.ReplaceAll(stem, " ", "_")

	// Drop everything outside the safe set.
	stem = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '_' || r == '-':
			return r
		default:
			// Everything else, control characters and path separators
			// included, is dropped.
			return -1
		}
	}, stem)

	if stem == "" {
		stem = "untitled"
	}

	if windowsReserved[strings.ToUpper(stem)] {
		stem = "_" + stem + "_"
	}

	if runes := []rune(stem); len(runes) > MaxStemLen {
		stem = string(runes[:MaxStemLen])
	}

	stem = strings.TrimRight(stem, "_")
	if stem == "" {
		stem = "untitled"
	}

	return stem
}

// Unique returns a filename stem that has not been produced earlier in the
// run. On collision a short suffix derived from the article URL is appended;
// if that still collides (two URLs hashing alike), a counter is added. The
// chosen stem is recorded in seen.
func Unique(stem, url string, seen map[string]bool) string {
	if !seen[stem] {
		seen[stem] = true
		return stem
	}

	h := fnv.New32a()
	h.Write([]byte(url))
	candidate := fmt.Sprintf("%s_%06x", stem, h.Sum32()&0xffffff)

	for n := 2; seen[candidate]; n++ {
		candidate = fmt.Sprintf("%s_%06x_%d", stem, h.Sum32()&0xffffff, n)
	}

	seen[candidate] = true
	return candidate
}
