// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package coder

import (
	"encoding"
	"reflect"

	xmlserdeinterfaces "go.e43.eu/xmlserde/interfaces"
	"go.e43.eu/xmlserde/internal/errors"
)

// Kind is the shape category of a field type
type Kind uint8

const (
	KindInvalid Kind = iota
	KindString
	KindBool
	KindU8
	KindU16
	KindU32
	KindU64
	KindI8
	KindI16
	KindI32
	KindI64
	KindF32
	KindF64
	// Any other type; encoded through its own codec
	KindStruct
	// []T or [N]T
	KindVec
	// *T
	KindOption
)

var kindNames = [...]string{
	KindInvalid: "Invalid",
	KindString:  "String",
	KindBool:    "Bool",
	KindU8:      "U8",
	KindU16:     "U16",
	KindU32:     "U32",
	KindU64:     "U64",
	KindI8:      "I8",
	KindI16:     "I16",
	KindI32:     "I32",
	KindI64:     "I64",
	KindF32:     "F32",
	KindF64:     "F64",
	KindStruct:  "Struct",
	KindVec:     "Vec",
	KindOption:  "Option",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Invalid"
}

// IsScalar reports whether k is one of the builtin leaf kinds
func (k Kind) IsScalar() bool {
	return k >= KindString && k <= KindF64
}

// Shape is a classified field type. Elem is set for KindVec and KindOption
type Shape struct {
	Kind Kind
	Type reflect.Type
	Elem *Shape
}

var (
	marshalerType       = reflect.TypeOf((*xmlserdeinterfaces.Marshaler)(nil)).Elem()
	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// Marshalers implement (at least some of) their methods on the pointer
// receiver; a pointer to such a type is an Option of it
func implementsMarshaler(t reflect.Type) bool {
	return t.Kind() != reflect.Ptr && reflect.PtrTo(t).Implements(marshalerType)
}

func implementsText(t reflect.Type) bool {
	if t.Kind() == reflect.Ptr {
		return false
	}
	pt := reflect.PtrTo(t)
	return pt.Implements(textMarshalerType) && pt.Implements(textUnmarshalerType)
}

var scalarKinds = map[reflect.Kind]Kind{
	reflect.String:  KindString,
	reflect.Bool:    KindBool,
	reflect.Uint8:   KindU8,
	reflect.Uint16:  KindU16,
	reflect.Uint32:  KindU32,
	reflect.Uint64:  KindU64,
	reflect.Uint:    KindU64,
	reflect.Int8:    KindI8,
	reflect.Int16:   KindI16,
	reflect.Int32:   KindI32,
	reflect.Int64:   KindI64,
	reflect.Int:     KindI64,
	reflect.Float32: KindF32,
	reflect.Float64: KindF64,
}

// Classify maps a field type to its shape. Option and Vec may not nest inside
// one another; maps, channels, functions, interfaces and complex numbers are
// unsupported.
func (cr *Coder) Classify(t reflect.Type) (Shape, error) {
	if cr.isRegistered(t) || implementsMarshaler(t) || implementsText(t) {
		return Shape{Kind: KindStruct, Type: t}, nil
	}

	if k, ok := scalarKinds[t.Kind()]; ok {
		return Shape{Kind: k, Type: t}, nil
	}

	switch t.Kind() {
	case reflect.Struct:
		return Shape{Kind: KindStruct, Type: t}, nil

	case reflect.Ptr:
		elem, err := cr.Classify(t.Elem())
		switch {
		case err != nil:
			return Shape{}, err
		case elem.Kind == KindOption || elem.Kind == KindVec:
			return Shape{}, errors.InvalidTypeError{T: t}
		}
		return Shape{Kind: KindOption, Type: t, Elem: &elem}, nil

	case reflect.Slice, reflect.Array:
		elem, err := cr.Classify(t.Elem())
		switch {
		case err != nil:
			return Shape{}, err
		case elem.Kind == KindOption || elem.Kind == KindVec:
			return Shape{}, errors.InvalidTypeError{T: t}
		}
		return Shape{Kind: KindVec, Type: t, Elem: &elem}, nil
	}

	return Shape{}, errors.InvalidTypeError{T: t}
}
