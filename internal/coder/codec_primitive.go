// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package coder

import (
	"reflect"
	"strconv"
	"strings"

	xmlserdeinterfaces "go.e43.eu/xmlserde/interfaces"
)

// primitiveCodec handles the builtin scalar kinds (and types derived from them)
type primitiveCodec struct {
	kind Kind
	name string
}

var _ textual = &primitiveCodec{}

func makePrimitiveCodec(cr *Coder, t reflect.Type) *primitiveCodec {
	k, ok := scalarKinds[t.Kind()]
	if !ok {
		return nil
	}
	return &primitiveCodec{kind: k, name: t.Name()}
}

func (c *primitiveCodec) defaultName() string {
	return c.name
}

func (c *primitiveCodec) formatText(v reflect.Value) (string, error) {
	switch c.kind {
	case KindString:
		return v.String(), nil
	case KindBool:
		return strconv.FormatBool(v.Bool()), nil
	case KindI8, KindI16, KindI32, KindI64:
		return strconv.FormatInt(v.Int(), 10), nil
	case KindU8, KindU16, KindU32, KindU64:
		return strconv.FormatUint(v.Uint(), 10), nil
	default:
		return strconv.FormatFloat(v.Float(), 'g', -1, v.Type().Bits()), nil
	}
}

func (c *primitiveCodec) parseText(s string, v reflect.Value) error {
	if c.kind == KindString {
		v.SetString(s)
		return nil
	}

	s = strings.TrimSpace(s)
	switch c.kind {
	case KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		v.SetBool(b)

	case KindI8, KindI16, KindI32, KindI64:
		i, err := strconv.ParseInt(s, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetInt(i)

	case KindU8, KindU16, KindU32, KindU64:
		u, err := strconv.ParseUint(s, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetUint(u)

	default:
		f, err := strconv.ParseFloat(s, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetFloat(f)
	}
	return nil
}

func (c *primitiveCodec) Encode(e xmlserdeinterfaces.Encoder, v reflect.Value) error {
	text, _ := c.formatText(v)
	return SerializePrimitive(e, text, c.name, identity)
}

func (c *primitiveCodec) Decode(d xmlserdeinterfaces.Decoder, v reflect.Value) error {
	_, err := DeserializePrimitive(d, func(s string) (struct{}, error) {
		return struct{}{}, c.parseText(s, v)
	})
	return err
}

func identity(s string) string {
	return s
}
