// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package coder

import (
	"io"
	"reflect"

	xmlserdeinterfaces "go.e43.eu/xmlserde/interfaces"
	"go.e43.eu/xmlserde/internal/errors"
)

// sliceCodec handles slices and arrays. A sequence has no element of its own:
// each item is written as a sibling element carrying the sequence's name.
type sliceCodec struct {
	t     reflect.Type
	elem  xCodec
	fixed bool
	max   int
}

func makeSliceCodec(cr *Coder, t reflect.Type) xCodec {
	if _, err := cr.Classify(t); err != nil {
		return &errorCodec{err}
	}
	return newSliceCodec(cr, t)
}

func newSliceCodec(cr *Coder, t reflect.Type) *sliceCodec {
	c := &sliceCodec{
		t:    t,
		elem: cr.getCodec(t.Elem()),
	}
	if t.Kind() == reflect.Array {
		c.fixed = true
		c.max = t.Len()
	}
	return c
}

func (c *sliceCodec) Encode(e xmlserdeinterfaces.Encoder, v reflect.Value) error {
	name, skip := e.TakeStart("")

	for i := 0; i < v.Len(); i++ {
		e.SetStartName(name)
		e.SetSkipStartEnd(skip)
		if err := c.elem.Encode(e, v.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

// reset empties v before the first item is decoded
func (c *sliceCodec) reset(v reflect.Value) {
	v.Set(reflect.Zero(c.t))
}

// decodeItem decodes the n'th item of the sequence from the stream and
// stores it into v
func (c *sliceCodec) decodeItem(d xmlserdeinterfaces.Decoder, v reflect.Value, n int) error {
	if c.fixed {
		if n >= c.max {
			return errors.LengthError{Actual: uint64(n + 1), Max: uint64(c.max)}
		}
		return c.elem.Decode(d, v.Index(n))
	}

	item := reflect.New(c.t.Elem()).Elem()
	if err := c.elem.Decode(d, item); err != nil {
		return err
	}
	v.Set(reflect.Append(v, item))
	return nil
}

// Decode reads a run of sibling elements sharing the name of the first one
func (c *sliceCodec) Decode(d xmlserdeinterfaces.Decoder, v reflect.Value) error {
	d.TakeSkipStartEnd()
	c.reset(v)

	var first xmlserdeinterfaces.Name
	for n := 0; ; n++ {
		ev, err := d.Peek()
		for err == nil && ev.Kind == xmlserdeinterfaces.Characters && isWhitespace(ev.Text) {
			d.Next()
			ev, err = d.Peek()
		}

		switch {
		case err == io.EOF:
			return nil
		case err != nil:
			return readError(err)
		case ev.Kind != xmlserdeinterfaces.StartElement:
			return nil
		case n == 0:
			first = ev.Name
		case ev.Name != first:
			return nil
		}

		if err := c.decodeItem(d, v, n); err != nil {
			return err
		}
	}
}
