// Package groupid derives the case or folder identifier that groups
// documents stored under one path.
package groupid

import (
	"path"
	"regexp"
	"strings"
)

// Fallback is returned when nothing usable can be derived from a path.
const Fallback = "doc-001"

const maxSanitizedLen = 10

var (
	longDigits     = regexp.MustCompile(`\d{11,}`)
	leadingDigits  = regexp.MustCompile(`^\d{11,}`)
	mediumDigits   = regexp.MustCompile(`\d{8,}`)
	yearSequence   = regexp.MustCompile(`\d{4}-\d{5}`)
	nonIDChars     = regexp.MustCompile(`[^0-9A-Za-z-]`)
	repeatedHyphen = regexp.MustCompile(`-+`)
)

// Extract returns a non-empty identifier for a storage key. The first rule
// that matches wins: parent directory, then filename patterns, then a
// sanitized filename prefix.
func Extract(key string) string {
	segments := strings.Split(key, "/")
	filename := segments[len(segments)-1]

	if len(segments) >= 3 {
		parent := segments[len(segments)-2]
		if m := longDigits.FindString(parent); m != "" {
			return m
		}
		if m := yearSequence.FindString(parent); m != "" {
			return m
		}
	}

	for _, re := range []*regexp.Regexp{yearSequence, leadingDigits, mediumDigits} {
		if m := re.FindString(filename); m != "" {
			return m
		}
	}

	if id := sanitize(filename); id != "" {
		return id
	}
	return Fallback
}

func sanitize(filename string) string {
	name := strings.TrimSuffix(filename, path.Ext(filename))
	name = nonIDChars.ReplaceAllString(name, "-")
	name = repeatedHyphen.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	if len(name) > maxSanitizedLen {
		name = name[:maxSanitizedLen]
	}
	return name
}
