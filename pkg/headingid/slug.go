package headingid

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FallbackID is used when a heading's text slugs to nothing (empty text,
// punctuation only, or a script with no ASCII approximation).
const FallbackID = "section"

// Letters that carry no combining mark under NFD and therefore survive
// decomposition unchanged.
var transliterations = map[rune]string{
	'ß': "ss",
	'æ': "ae",
	'Æ': "ae",
	'œ': "oe",
	'Œ': "oe",
	'ø': "o",
	'Ø': "o",
	'đ': "d",
	'Đ': "d",
	'ð': "d",
	'Ð': "d",
	'þ': "th",
	'Þ': "th",
	'ł': "l",
	'Ł': "l",
	'ı': "i",
}

type runeClass int

const (
	classOther runeClass = iota
	classLower
	classUpper
	classDigit
)

type token struct {
	text  string
	class runeClass
}

// Slugify normalizes heading text into a URL-safe identifier candidate:
// ASCII-transliterated, lowercased, with every run of other characters
// collapsed to a single '-'. Words are also split where the case changes
// ("deepEqual" → "deep-equal", "HTMLParser" → "html-parser") and between
// letters and digits ("foo2bar" → "foo-2-bar"), except that ordinal
// suffixes stay attached ("1st"). The result may be empty.
func Slugify(text string) string {
	// transform.Chain keeps state, so a fresh chain per call
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	decomposed, _, err := transform.String(t, text)
	if err != nil {
		decomposed = text
	}

	tokens := tokenize(decomposed)
	var b strings.Builder
	b.Grow(len(decomposed))
	pendingSep := false
	prev := classOther
	for i, tok := range tokens {
		if tok.class == classOther {
			pendingSep = true
			prev = classOther
			continue
		}
		if !pendingSep && wordBoundary(tokens, i, prev) {
			pendingSep = true
		}
		if pendingSep && b.Len() > 0 {
			b.WriteByte('-')
		}
		pendingSep = false
		prev = tok.class
		b.WriteString(tok.text)
	}
	return b.String()
}

func tokenize(s string) []token {
	tokens := make([]token, 0, len(s))
	for _, r := range s {
		if repl, ok := transliterations[r]; ok {
			tokens = append(tokens, token{text: repl, class: classLower})
			continue
		}
		switch {
		case r >= 'a' && r <= 'z':
			tokens = append(tokens, token{text: string(r), class: classLower})
		case r >= 'A' && r <= 'Z':
			tokens = append(tokens, token{text: string(r + 'a' - 'A'), class: classUpper})
		case r >= '0' && r <= '9':
			tokens = append(tokens, token{text: string(r), class: classDigit})
		default:
			tokens = append(tokens, token{class: classOther})
		}
	}
	return tokens
}

// wordBoundary reports whether a new word starts at tokens[i], given the
// class of the alphanumeric token before it.
func wordBoundary(tokens []token, i int, prev runeClass) bool {
	cur := tokens[i].class
	switch {
	case prev == classOther:
		return false
	case prev == classLower && cur == classUpper:
		return true
	case prev == classUpper && cur == classUpper:
		return i+1 < len(tokens) && tokens[i+1].class == classLower
	case prev == classDigit && cur != classDigit:
		return !ordinalSuffix(tokens, i)
	case prev != classDigit && cur == classDigit:
		return true
	}
	return false
}

// ordinalSuffix reports whether tokens[i:] starts with st, nd, rd or th
// that ends the word.
func ordinalSuffix(tokens []token, i int) bool {
	if i+1 >= len(tokens) || tokens[i].class != classLower || tokens[i+1].class != classLower {
		return false
	}
	if i+2 < len(tokens) && tokens[i+2].class == classLower {
		return false
	}
	switch tokens[i].text + tokens[i+1].text {
	case "st", "nd", "rd", "th":
		return true
	}
	return false
}
