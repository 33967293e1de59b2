// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package coder

import (
	"encoding"
	"reflect"

	xmlserdeinterfaces "go.e43.eu/xmlserde/interfaces"
)

// textCodec handles types implementing encoding.TextMarshaler and
// encoding.TextUnmarshaler, which are leaves like the builtin scalars
type textCodec struct {
	t    reflect.Type
	name string
}

var _ textual = &textCodec{}

func makeTextCodec(t reflect.Type) *textCodec {
	return &textCodec{t: t, name: t.Name()}
}

func (c *textCodec) defaultName() string {
	return c.name
}

func (c *textCodec) formatText(v reflect.Value) (string, error) {
	if !v.CanAddr() {
		p := reflect.New(c.t)
		p.Elem().Set(v)
		v = p.Elem()
	}

	b, err := v.Addr().Interface().(encoding.TextMarshaler).MarshalText()
	return string(b), err
}

func (c *textCodec) parseText(s string, v reflect.Value) error {
	return v.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s))
}

func (c *textCodec) Encode(e xmlserdeinterfaces.Encoder, v reflect.Value) error {
	text, err := c.formatText(v)
	if err != nil {
		e.TakeStart("")
		return err
	}
	return SerializePrimitive(e, text, c.name, identity)
}

func (c *textCodec) Decode(d xmlserdeinterfaces.Decoder, v reflect.Value) error {
	_, err := DeserializePrimitive(d, func(s string) (struct{}, error) {
		return struct{}{}, c.parseText(s, v)
	})
	return err
}
