// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package coder

import (
	"io"
	"reflect"
	"strings"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	xmlserdeinterfaces "go.e43.eu/xmlserde/interfaces"
	"go.e43.eu/xmlserde/internal/errors"
)

var decoderPool = sync.Pool{
	New: func() interface{} {
		return new(decoder)
	},
}

// decoder is the deserializer session. It holds a single event of lookahead
type decoder struct {
	r  xmlserdeinterfaces.EventReader
	cr *Coder

	peeked  xmlserdeinterfaces.Event
	peekErr error
	hasPeek bool

	skipStartEnd bool
}

var _ xmlserdeinterfaces.Decoder = &decoder{}

func (d *decoder) reset(cr *Coder, r xmlserdeinterfaces.EventReader) {
	d.r = r
	d.cr = cr
	d.peeked = xmlserdeinterfaces.Event{}
	d.peekErr = nil
	d.hasPeek = false
	d.skipStartEnd = false
}

func (d *decoder) fill() {
	if !d.hasPeek {
		d.peeked, d.peekErr = d.r.Next()
		d.hasPeek = true
	}
}

func (d *decoder) Peek() (xmlserdeinterfaces.Event, error) {
	d.fill()
	return d.peeked, d.peekErr
}

func (d *decoder) Next() (xmlserdeinterfaces.Event, error) {
	d.fill()

	// Errors are sticky
	if d.peekErr == nil {
		d.hasPeek = false
	}
	return d.peeked, d.peekErr
}

func (d *decoder) SetSkipStartEnd(skip bool) {
	d.skipStartEnd = skip
}

func (d *decoder) TakeSkipStartEnd() bool {
	skip := d.skipStartEnd
	d.skipStartEnd = false
	return skip
}

func isWhitespace(s string) bool {
	return strings.TrimSpace(s) == ""
}

// readError converts an error returned by the event source in the middle of a
// structure
func readError(err error) error {
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return pkgerrors.Wrap(err, "xmlserde: reading event")
}

func (d *decoder) ReadStart() (xmlserdeinterfaces.Event, error) {
	for {
		ev, err := d.Peek()
		switch {
		case err == io.EOF:
			return ev, errors.ErrMissingStartElement
		case err != nil:
			return ev, readError(err)
		case ev.Kind == xmlserdeinterfaces.Characters && isWhitespace(ev.Text):
			d.Next()
		case ev.Kind == xmlserdeinterfaces.StartElement:
			d.Next()
			return ev, nil
		default:
			return ev, errors.ErrMissingStartElement
		}
	}
}

func (d *decoder) ReadText() (string, bool, error) {
	var (
		b  strings.Builder
		ok bool
	)

	for {
		ev, err := d.Peek()
		if err != nil {
			return b.String(), ok, readError(err)
		}
		if ev.Kind != xmlserdeinterfaces.Characters {
			return b.String(), ok, nil
		}

		d.Next()
		b.WriteString(ev.Text)
		ok = true
	}
}

func (d *decoder) ReadEnd() error {
	depth := 0
	for {
		ev, err := d.Next()
		if err != nil {
			return readError(err)
		}

		switch ev.Kind {
		case xmlserdeinterfaces.StartElement:
			depth++
		case xmlserdeinterfaces.EndElement:
			if depth == 0 {
				return nil
			}
			depth--
		}
	}
}

func (d *decoder) Skip() error {
	return d.ReadEnd()
}

func (d *decoder) Decode(op interface{}) (err error) {
	v := reflect.ValueOf(op)
	if !v.IsValid() || v.Type().Kind() != reflect.Ptr {
		return errors.ErrNotPointer
	}
	if v.IsNil() {
		return errors.ErrNilPointer
	}

	return d.decodeValue(v.Elem())
}

func (d *decoder) DecodeValue(v reflect.Value) (err error) {
	if !v.CanSet() {
		return errors.ErrNotPointer
	}
	return d.decodeValue(v)
}

func (d *decoder) decodeValue(v reflect.Value) (err error) {
	return d.cr.getCodec(v.Type()).Decode(d, v)
}

func (d *decoder) Logger() logrus.FieldLogger {
	return d.cr.logger()
}

func (d *decoder) strictText() bool {
	return d.cr.strictText
}

func (d *decoder) release() {
	d.r = nil
	d.cr = nil
	d.peeked = xmlserdeinterfaces.Event{}
	d.peekErr = nil
	decoderPool.Put(d)
}
