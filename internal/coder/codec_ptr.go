// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package coder

import (
	"reflect"

	xmlserdeinterfaces "go.e43.eu/xmlserde/interfaces"
)

// optCodec handles optional types (which must be pointerlike in Go).
//
// An absent value writes nothing at all; a present one is written exactly as
// its element would be.
type optCodec struct {
	elem  xCodec
	elemt reflect.Type
	nilp  reflect.Value
}

func makeOptCodec(cr *Coder, t reflect.Type) xCodec {
	if _, err := cr.Classify(t); err != nil {
		return &errorCodec{err}
	}

	return &optCodec{
		elem:  cr.getCodec(t.Elem()),
		elemt: t.Elem(),
		nilp:  reflect.Zero(t),
	}
}

func (c *optCodec) Encode(e xmlserdeinterfaces.Encoder, v reflect.Value) error {
	if v.IsNil() {
		// Nothing is written, but the pending start must not leak into
		// whatever is encoded next
		e.TakeStart("")
		return nil
	}

	return c.elem.Encode(e, v.Elem())
}

func (c *optCodec) Decode(d xmlserdeinterfaces.Decoder, v reflect.Value) error {
	v.Set(c.nilp)

	p := reflect.New(c.elemt)
	if err := c.elem.Decode(d, p.Elem()); err != nil {
		return err
	}
	v.Set(p)
	return nil
}
