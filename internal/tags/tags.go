// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package tags parses `xml` struct tags into field and type descriptors.
//
// A field tag is a name followed by comma separated options:
//
//     Name    string   `xml:"name"`
//     ID      int      `xml:"id,attr"`
//     Value   string   `xml:",text"`
//     Link    string   `xml:"href,attr,prefix=xlink"`
//     Skipped int      `xml:"-"`
//
// Enumerations additionally use:
//
//     Kind    uint32   `xml:",enum"`
//     Point   Point    `xml:",variant=1,fields"`
//     Label   string   `xml:"label,variant=2"`
//
// Type level options live on a field named XMLName:
//
//     XMLName Name `xml:"root,rename_all=snake_case,ns=x=urn:x,default_ns=x"`
package tags

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"go.e43.eu/xmlserde/internal/naming"
)

// TypeNameField is the name of the field carrying type level options
const TypeNameField = "XMLName"

// FieldTag is the descriptor of one struct field
type FieldTag struct {
	// Rename is the explicit wire name; empty if not renamed
	Rename string
	Prefix string

	Skip bool
	Attr bool
	Text bool

	// Enum marks the discriminant field of an enumeration
	Enum bool

	// Variant marks a variant of an enumeration, selected when the
	// discriminant equals Discriminant
	Variant      bool
	Discriminant int64

	// Fields marks a variant whose struct fields are inlined into the
	// enumeration element
	Fields bool
}

// Namespace is one prefix binding declared on a type
type Namespace struct {
	Prefix, URI string
}

// TypeTag is the descriptor of the type level options
type TypeTag struct {
	Rename           string
	Prefix           string
	RenameAll        naming.Rule
	DefaultNamespace string
	Namespaces       []Namespace
}

// Context returns the naming context described by the tag
func (t *TypeTag) Context() *naming.Context {
	ctx := &naming.Context{
		DefaultNamespace: t.DefaultNamespace,
		RenameAll:        t.RenameAll,
	}

	if len(t.Namespaces) != 0 {
		ctx.Namespaces = make(map[string]string, len(t.Namespaces))
		for _, ns := range t.Namespaces {
			ctx.Namespaces[ns.Prefix] = ns.URI
		}
	}
	return ctx
}

func splitTag(s string) (name string, opts []string) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts[0], parts[1:]
}

func splitOption(opt string) (key, value string, hasValue bool) {
	if i := strings.IndexByte(opt, '='); i >= 0 {
		return opt[:i], opt[i+1:], true
	}
	return opt, "", false
}

// ParseFieldTag parses the `xml` tag of a struct field
func ParseFieldTag(f reflect.StructField) (FieldTag, error) {
	return ParseTag(f.Tag.Get("xml"))
}

// ParseTag parses the body of a field tag
func ParseTag(s string) (ft FieldTag, err error) {
	if strings.TrimSpace(s) == "-" {
		ft.Skip = true
		return ft, nil
	}

	name, opts := splitTag(s)
	ft.Rename = name

	for _, opt := range opts {
		key, value, hasValue := splitOption(opt)
		switch {
		case opt == "":
			// Tolerate trailing commas

		case key == "attr" && !hasValue:
			ft.Attr = true

		case (key == "text" || key == "chardata") && !hasValue:
			ft.Text = true

		case key == "enum" && !hasValue:
			ft.Enum = true

		case key == "fields" && !hasValue:
			ft.Fields = true

		case key == "prefix" && hasValue:
			if value == "" {
				return ft, errors.New("Empty `prefix=` option")
			}
			ft.Prefix = value

		case key == "variant" && hasValue:
			ft.Discriminant, err = strconv.ParseInt(value, 0, 64)
			if err != nil {
				return ft, fmt.Errorf("Parsing `variant=` value: %v", err)
			}
			ft.Variant = true

		default:
			return ft, fmt.Errorf("Unknown xml tag option '%s'", opt)
		}
	}

	switch {
	case ft.Attr && ft.Text:
		return ft, errors.New("Field cannot be both `attr` and `text`")
	case ft.Enum && (ft.Attr || ft.Text || ft.Variant):
		return ft, errors.New("`enum` field takes no other options")
	case ft.Fields && !ft.Variant:
		return ft, errors.New("`fields` only applies to a `variant=`")
	case ft.Variant && (ft.Attr || ft.Text):
		return ft, errors.New("A variant cannot be an `attr` or `text` field")
	case ft.Text && (ft.Rename != "" || ft.Prefix != ""):
		return ft, errors.New("A `text` field has no name")
	}

	return ft, nil
}

// ParseTypeTag parses the tag of an XMLName field
func ParseTypeTag(s string) (tt TypeTag, err error) {
	name, opts := splitTag(s)
	tt.Rename = name

	hasDefault := false
	for _, opt := range opts {
		key, value, hasValue := splitOption(opt)
		switch {
		case opt == "":

		case key == "rename_all" && hasValue:
			tt.RenameAll, err = naming.ParseRule(value)
			if err != nil {
				return tt, err
			}

		case key == "prefix" && hasValue:
			tt.Prefix = value

		case key == "default_ns" && hasValue:
			tt.DefaultNamespace = value
			hasDefault = true

		case key == "ns" && hasValue:
			// ns=PREFIX=URI; the URI may itself contain '='
			prefix, uri, ok := splitOption(value)
			if !ok || uri == "" {
				return tt, fmt.Errorf("Expected `ns=PREFIX=URI`, got '%s'", opt)
			}
			for _, ns := range tt.Namespaces {
				if ns.Prefix == prefix {
					return tt, fmt.Errorf("Namespace prefix '%s' declared twice", prefix)
				}
			}
			tt.Namespaces = append(tt.Namespaces, Namespace{prefix, uri})

		default:
			return tt, fmt.Errorf("Unknown xml type option '%s'", opt)
		}
	}

	if hasDefault {
		found := false
		for _, ns := range tt.Namespaces {
			found = found || ns.Prefix == tt.DefaultNamespace
		}
		if !found {
			return tt, fmt.Errorf("`default_ns=%s` names an undeclared prefix", tt.DefaultNamespace)
		}
	}

	return tt, nil
}

// TypeTagOf returns the type level options of a struct type
func TypeTagOf(t reflect.Type) (TypeTag, error) {
	f, ok := t.FieldByName(TypeNameField)
	if !ok || len(f.Index) != 1 {
		return TypeTag{}, nil
	}
	tt, err := ParseTypeTag(f.Tag.Get("xml"))
	if err != nil {
		return tt, fmt.Errorf("Parsing tag of '%s.%s': %v", t, TypeNameField, err)
	}
	return tt, nil
}
