package importer

import (
	"strconv"
	"strings"
	"unicode"
)

// Slugify lowercases text, drops punctuation and joins words with hyphens.
func Slugify(text string) string {
	text = cleanValue(text)
	if text == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(text))
	pendingHyphen := false
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-':
			pendingHyphen = true
		}
	}
	return b.String()
}

// schoolSlug builds the base slug of a school. City and state are only
// added when both are known.
func schoolSlug(name, city, state string) string {
	slug := Slugify(name)
	if city != "" && state != "" {
		slug += "-" + Slugify(city) + "-" + Slugify(state)
	}
	return slug
}

// uniqueSlug appends "-N" to slugs already handed out, skipping suffixed
// forms that are themselves taken. seen maps every slug returned so far to
// the last suffix tried for it.
func uniqueSlug(slug string, seen map[string]int) string {
	n, taken := seen[slug]
	if !taken {
		seen[slug] = 0
		return slug
	}
	for {
		n++
		candidate := slug + "-" + strconv.Itoa(n)
		if _, used := seen[candidate]; used {
			continue
		}
		seen[slug] = n
		seen[candidate] = 0
		return candidate
	}
}
