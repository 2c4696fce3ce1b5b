// Package cases converts identifiers between case styles, and implements the
// naming rules protoc applies to JSON names, map entry messages and enum
// value prefixes.
package cases

import (
	"iter"
	"strings"
	"unicode"
)

// Case is a target case style to convert to.
type Case int

const (
	Snake  Case = iota // snake_case
	Enum               // ENUM_CASE
	Camel              // camelCase
	Pascal             // PascalCase
)

// Convert converts str to the given case, splitting it with Words.
func (c Case) Convert(str string) string {
	return Converter{Case: c}.Convert(str)
}

// Converter converts identifiers to a Case.
type Converter struct {
	Case Case

	// If set, only underscores separate words. This is how protoc splits
	// names.
	NaiveSplit bool

	// If set, letters that do not start a word keep their case.
	NoLowercase bool
}

// Convert converts str according to the converter's options.
func (c Converter) Convert(str string) string {
	words := Words(str)
	if c.NaiveSplit {
		words = strings.SplitSeq(str, "_")
	}

	var sb strings.Builder
	sb.Grow(len(str))
	switch c.Case {
	case Snake, Enum:
		c.joinSnake(&sb, words)
	default:
		c.joinCamel(&sb, words)
	}
	return sb.String()
}

func (c Converter) joinSnake(sb *strings.Builder, words iter.Seq[string]) {
	for word := range words {
		if word == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('_')
		}
		for _, r := range word {
			switch {
			case c.Case == Enum:
				r = unicode.ToUpper(r)
			case !c.NoLowercase:
				r = unicode.ToLower(r)
			}
			sb.WriteRune(r)
		}
	}
}

func (c Converter) joinCamel(sb *strings.Builder, words iter.Seq[string]) {
	// A leading empty word, from a leading underscore, still counts as the
	// first word, so "_foo" becomes "Foo" when splitting naively.
	first := true
	for word := range words {
		for i, r := range word {
			switch {
			case i == 0 && (c.Case == Pascal || !first):
				r = unicode.ToUpper(r)
			case !c.NoLowercase:
				r = unicode.ToLower(r)
			}
			sb.WriteRune(r)
		}
		first = false
	}
}

// JSONName returns the default JSON name of a field: underscores are removed
// and the letter after each one is capitalized.
func JSONName(field string) string {
	return Converter{Case: Camel, NaiveSplit: true, NoLowercase: true}.Convert(field)
}

// MapEntryName returns the name of the synthesized entry message for a map
// field, such as "FooBarEntry" for "foo_bar".
func MapEntryName(field string) string {
	return Converter{Case: Pascal, NaiveSplit: true, NoLowercase: true}.Convert(field) + "Entry"
}

// TrimEnumPrefix removes the name of an enum from the front of one of its
// values. The comparison ignores case and underscores, so the prefix of
// FOO_BAR_BAZ in enum FooBar is removed, leaving BAZ. The value is returned
// unchanged if it does not start with the prefix or if nothing would remain.
func TrimEnumPrefix(value, enum string) string {
	prefix := strings.ToLower(strings.ReplaceAll(enum, "_", ""))
	i := 0
	for j := 0; j < len(prefix); i++ {
		if i == len(value) {
			return value
		}
		if value[i] == '_' {
			continue
		}
		if unicode.ToLower(rune(value[i])) != rune(prefix[j]) {
			return value
		}
		j++
	}
	rest := strings.TrimLeft(value[i:], "_")
	if rest == "" {
		return value
	}
	return rest
}

// EnumValueKey returns the name protoc compares enum values by when checking
// for conflicts: the prefix is trimmed and the rest is converted to
// PascalCase, ignoring the case of the original.
func EnumValueKey(value, enum string) string {
	return Converter{Case: Pascal, NaiveSplit: true}.Convert(TrimEnumPrefix(value, enum))
}
