package cases

import (
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Words splits str into words. Underscores separate words and are dropped.
// Within an underscore-free run, a new word starts at an uppercase letter
// that is followed by a lowercase letter, or at a trailing uppercase letter
// that follows a lowercase one, so "FOOBar" is "FOO" and "Bar".
func Words(str string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for part := range strings.SplitSeq(str, "_") {
			for part != "" {
				n := wordLen(part)
				if !yield(part[:n]) {
					return
				}
				part = part[n:]
			}
		}
	}
}

// wordLen returns the length in bytes of the first word of s, which has no
// underscores.
func wordLen(s string) int {
	var prev rune
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			next, _ := utf8.DecodeRuneInString(s[i+utf8.RuneLen(r):])
			switch {
			case unicode.IsLower(next):
				return i
			case i+utf8.RuneLen(r) == len(s) && unicode.IsLower(prev):
				return i
			}
		}
		prev = r
	}
	return len(s)
}
