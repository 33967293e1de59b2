// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package xmlserde maps Go values to and from XML documents.
//
// The Encoder/Decoder types in this package are serializer and deserializer
// sessions over a stream of XML events, but in most cases you will wish to use
// the higher level functions based upon reflection.
//
// The mapping from Go types to XML is:
//
//                            Go | XML
//     --------------------------+-----------------------------------------
//                        string | <name>text</name>
//                          bool | <name>true</name>, <name>false</name>
//          int8 ... int64, int  | <name>-12</name>
//       uint8 ... uint64, uint  | <name>12</name>
//              float32, float64 | <name>1.5</name>
//      encoding.TextMarshaler   | <name>text</name>
//                            *T | nothing if nil, else as T
//                     []T, [N]T | one <name> element per item
//                  struct{ ...} | <name> followed by one element per field
//
// Elements are named by the enclosing field; a top level value is named after
// its type. Unknown elements and attributes are skipped when decoding, and
// fields may appear in any order.
//
// Field tags use the `xml` key:
//
//     `xml:"-"`
//         The field is not encoded
//
//     `xml:"name"`
//         The field's element (or attribute) is called name
//
//     `xml:",attr"`, `xml:"name,attr"`
//         The field (which must be a leaf, or a pointer to one) is an attribute
//
//     `xml:",text"`
//         The field (which must be a leaf, or a pointer to one) is the character
//         content of the enclosing element
//
//     `xml:"name,prefix=p"`
//         The field's name is qualified by the namespace prefix p
//
// Type level options are given on a field named XMLName:
//
//     XMLName struct{} `xml:"root,rename_all=snake_case,ns=x=urn:example,default_ns=x,prefix=p"`
//
// rename_all converts undecorated field names (one of lowercase, UPPERCASE,
// PascalCase, camelCase, snake_case, SCREAMING_SNAKE_CASE, kebab-case or
// SCREAMING-KEBAB-CASE); ns declares a namespace prefix (and may be repeated);
// default_ns names the prefix whose names are written unqualified. The
// declarations are written on the outermost element which needs them.
//
// Decoding compares local names. A prefixed name matches an element in the
// namespace bound to its prefix (or carrying the prefix itself), while an
// unprefixed name matches an element of that local name in any namespace:
// `xml:"X"` binds <X>, <p:X> and <q:X> alike.
//
// Go has no direct equivalent of tagged enumerations. Instead, define a struct
// where the first field is the discriminant and every other field is a variant:
//
//     type Shape struct {
//         Kind   uint32   `xml:",enum"`
//         None   struct{} `xml:",variant=0"`
//         Circle Circle   `xml:"circle,variant=1"`
//         Label  string   `xml:"label,variant=2"`
//         Point  Point    `xml:",variant=3,fields"`
//     }
//
// Only the variant selected by the discriminant is encoded:
//
//     struct{} variant    the discriminant, as decimal text: <Shape>0</Shape>
//     fields variant      the payload's fields inlined: <Shape><X>1</X><Y>2</Y></Shape>
//     other variants      the payload wrapped in an element named by the
//                         variant: <Shape><label>hello</label></Shape>
//
// When decoding, the first child element selects the variant it belongs to,
// so no element name may be shared between variants. Character content
// selects the struct{} variant with that discriminant, or otherwise the fields
// variant with a text field. An element with no content selects the only
// variant which may be written as nothing (an absent Option, an empty Vec, or
// a fields variant without child elements), preferring fields variants whose
// attributes are present.
//
// You can specify custom behaviour for your type using the Marshaler interface. If implemented,
// it replaces the default behaviour. You can override behaviour for third party types by
// implementing and regisering a Codec; see the documentation for that type and the Coder with
// which they are registered.
//
// To avoid confusion and conflicts between different packages, it is not possible to register new
// codecs with the default (global) Coder.
package xmlserde

import xmlserdeinterfaces "go.e43.eu/xmlserde/interfaces"

// interface Coder is the top-level interface to the library
//
// A coder (which may be safely used from multiple threads) provides the ability
// to marshal objects to and from XML. It also contains a repository of Codecs
// which know how to marshal various types
type Coder = xmlserdeinterfaces.Coder

// interface Encoder is the serializer session
type Encoder = xmlserdeinterfaces.Encoder

// interface Decoder is the deserializer session
type Decoder = xmlserdeinterfaces.Decoder

// interface Codec defines how a type is encoded and decoded
type Codec = xmlserdeinterfaces.Codec

// interface Marshaler is implemented by types which encode and decode themselves
type Marshaler = xmlserdeinterfaces.Marshaler

type (
	EventKind   = xmlserdeinterfaces.EventKind
	Event       = xmlserdeinterfaces.Event
	Name        = xmlserdeinterfaces.Name
	Attr        = xmlserdeinterfaces.Attr
	EventReader = xmlserdeinterfaces.EventReader
	EventWriter = xmlserdeinterfaces.EventWriter
)

const (
	StartElement = xmlserdeinterfaces.StartElement
	EndElement   = xmlserdeinterfaces.EndElement
	Characters   = xmlserdeinterfaces.Characters
)
