// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package naming resolves the wire labels of fields and variants.
//
// Resolution is pure: a label depends only on the declared identifier, its
// rename and prefix options, and the Context of the enclosing type.
package naming

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	xmlserdeinterfaces "go.e43.eu/xmlserde/interfaces"
)

// Rule is a rename_all case conversion
type Rule uint8

const (
	// Identifiers are used as declared
	Verbatim Rule = iota
	Lower
	Upper
	Pascal
	Camel
	Snake
	ScreamingSnake
	Kebab
	ScreamingKebab
)

var ruleNames = map[string]Rule{
	"lowercase":            Lower,
	"UPPERCASE":            Upper,
	"PascalCase":           Pascal,
	"camelCase":            Camel,
	"snake_case":           Snake,
	"SCREAMING_SNAKE_CASE": ScreamingSnake,
	"kebab-case":           Kebab,
	"SCREAMING-KEBAB-CASE": ScreamingKebab,
}

// ParseRule parses the value of a rename_all option
func ParseRule(s string) (Rule, error) {
	if r, ok := ruleNames[s]; ok {
		return r, nil
	}
	return Verbatim, fmt.Errorf("Unknown rename_all rule '%s'", s)
}

// Apply converts a Go identifier according to the rule
func (r Rule) Apply(ident string) string {
	if r == Verbatim || ident == "" {
		return ident
	}

	// Casers carry state, so each conversion gets its own
	lower := cases.Lower(language.Und)
	upper := cases.Upper(language.Und)
	title := cases.Title(language.Und)

	words := splitWords(ident)
	switch r {
	case Lower:
		return lower.String(strings.Join(words, ""))
	case Upper:
		return upper.String(strings.Join(words, ""))
	case Pascal, Camel:
		var b strings.Builder
		for i, w := range words {
			if i == 0 && r == Camel {
				b.WriteString(lower.String(w))
			} else {
				b.WriteString(title.String(w))
			}
		}
		return b.String()
	case Snake:
		return lower.String(strings.Join(words, "_"))
	case ScreamingSnake:
		return upper.String(strings.Join(words, "_"))
	case Kebab:
		return lower.String(strings.Join(words, "-"))
	case ScreamingKebab:
		return upper.String(strings.Join(words, "-"))
	default:
		return ident
	}
}

// splitWords breaks an identifier at underscores, dashes and case
// boundaries. A run of capitals is one word, except that its last capital
// starts the next word when followed by a lower case letter
// ("HTTPServer" -> "HTTP", "Server").
func splitWords(ident string) []string {
	runes := []rune(ident)
	var (
		words []string
		start = -1
	)

	flush := func(end int) {
		if start >= 0 && end > start {
			words = append(words, string(runes[start:end]))
		}
		start = -1
	}

	for i, r := range runes {
		if r == '_' || r == '-' {
			flush(i)
			continue
		}

		if start < 0 {
			start = i
			continue
		}

		prev := runes[i-1]
		switch {
		case unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
			flush(i)
			start = i
		case unicode.IsUpper(r) && unicode.IsUpper(prev) &&
			i+1 < len(runes) && unicode.IsLower(runes[i+1]):
			flush(i)
			start = i
		}
	}
	flush(len(runes))

	return words
}

// Context is the naming context of one type
type Context struct {
	// Prefix whose namespace is the default (unprefixed) namespace
	DefaultNamespace string
	RenameAll        Rule
	// Namespace URIs by prefix; the empty prefix binds the default namespace
	Namespaces map[string]string
}

// Label computes the resolved label for an identifier.
//
// The label is rename if given, else the identifier converted by RenameAll,
// qualified by prefix unless prefix is the default namespace.
func (c *Context) Label(ident, rename, prefix string) string {
	local := rename
	if local == "" {
		local = c.RenameAll.Apply(ident)
	}

	if prefix == "" || prefix == c.DefaultNamespace {
		return local
	}
	return prefix + ":" + local
}

// Split splits a resolved label into prefix and local part
func Split(label string) (prefix, local string) {
	if i := strings.IndexByte(label, ':'); i >= 0 {
		return label[:i], label[i+1:]
	}
	return "", label
}

// Matches reports whether a name read from the wire denotes label.
//
// Local parts must be equal. A prefixed label further requires that the name's
// qualifier (when the source reports one) is either the prefix itself or the
// namespace URI the context binds it to.
func (c *Context) Matches(label string, n xmlserdeinterfaces.Name) bool {
	prefix, local := Split(label)

	// Sources which do not resolve prefixes leave them on the local part
	nprefix, nlocal := n.Space, n.Local
	if nprefix == "" {
		nprefix, nlocal = Split(nlocal)
	}

	if local != nlocal {
		return false
	}
	if prefix == "" || nprefix == "" || nprefix == prefix {
		return true
	}
	uri, ok := c.Namespaces[prefix]
	return ok && uri == nprefix
}

// Declarations returns the xmlns attributes declaring every namespace of the
// context, with the default namespace (if any) first
func (c *Context) Declarations() []xmlserdeinterfaces.Attr {
	if len(c.Namespaces) == 0 {
		return nil
	}

	attrs := make([]xmlserdeinterfaces.Attr, 0, len(c.Namespaces))
	if uri, ok := c.Namespaces[c.DefaultNamespace]; ok {
		attrs = append(attrs, xmlserdeinterfaces.Attr{
			Name:  xmlserdeinterfaces.Name{Local: "xmlns"},
			Value: uri,
		})
	}

	prefixes := make([]string, 0, len(c.Namespaces))
	for p := range c.Namespaces {
		if p != c.DefaultNamespace && p != "" {
			prefixes = append(prefixes, p)
		}
	}
	sort.Strings(prefixes)

	for _, p := range prefixes {
		attrs = append(attrs, xmlserdeinterfaces.Attr{
			Name:  xmlserdeinterfaces.Name{Local: "xmlns:" + p},
			Value: c.Namespaces[p],
		})
	}
	return attrs
}
