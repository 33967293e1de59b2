// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package coder

import (
	"reflect"
	"strings"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	xmlserdeinterfaces "go.e43.eu/xmlserde/interfaces"
	"go.e43.eu/xmlserde/internal/errors"
)

var encoderPool = sync.Pool{
	New: func() interface{} {
		return new(encoder)
	},
}

var errNoOpenElement = pkgerrors.New("no open element to close")

type flusher interface {
	Flush() error
}

// encoder is the serializer session
type encoder struct {
	// Underlying writer
	w xmlserdeinterfaces.EventWriter

	// Our coder
	cr *Coder

	// Name override for the next value (empty if none)
	startName string
	// Whether the next value must omit its wrapping element
	skipStartEnd bool

	// Currently open elements, innermost last
	open []openElement
}

type openElement struct {
	name string
	// xmlns attributes written on the element
	decls []xmlserdeinterfaces.Attr
}

var _ xmlserdeinterfaces.Encoder = &encoder{}

func (e *encoder) reset(cr *Coder, w xmlserdeinterfaces.EventWriter) {
	e.w = w
	e.cr = cr
	e.startName = ""
	e.skipStartEnd = false
	e.open = e.open[:0]
}

func (e *encoder) SetStartName(name string) {
	e.startName = name
}

func (e *encoder) SetSkipStartEnd(skip bool) {
	e.skipStartEnd = skip
}

func (e *encoder) TakeStart(defaultName string) (string, bool) {
	name, skip := e.startName, e.skipStartEnd
	if name == "" {
		name = defaultName
	}
	e.startName, e.skipStartEnd = "", false
	return name, skip
}

func (e *encoder) WriteStart(name string, attrs ...xmlserdeinterfaces.Attr) error {
	if name == "" {
		return errors.ErrMissingElementName
	}

	attrs, decls := e.declarations(attrs)
	err := e.w.WriteEvent(xmlserdeinterfaces.Event{
		Kind:  xmlserdeinterfaces.StartElement,
		Name:  xmlserdeinterfaces.Name{Local: name},
		Attrs: attrs,
	})
	if err != nil {
		return errors.WriteError{Stage: errors.StageStart, Err: err}
	}

	e.open = append(e.open, openElement{name, decls})
	return nil
}

func isDeclaration(a xmlserdeinterfaces.Attr) bool {
	return a.Name.Space == "" && (a.Name.Local == "xmlns" || strings.HasPrefix(a.Name.Local, "xmlns:"))
}

// inScope returns the value bound to the namespace declaration named name by
// the open elements
func (e *encoder) inScope(name string) (string, bool) {
	for i := len(e.open) - 1; i >= 0; i-- {
		for _, a := range e.open[i].decls {
			if a.Name.Local == name {
				return a.Value, true
			}
		}
	}
	return "", false
}

// declarations drops the xmlns attributes of attrs which repeat a binding
// already in scope or earlier in attrs, and returns the remaining attributes
// along with the declarations among them
func (e *encoder) declarations(attrs []xmlserdeinterfaces.Attr) (out, decls []xmlserdeinterfaces.Attr) {
	out = attrs
	copied := false

	for i, a := range attrs {
		if isDeclaration(a) {
			v, ok := e.inScope(a.Name.Local)
			for _, d := range decls {
				if d.Name.Local == a.Name.Local {
					v, ok = d.Value, true
				}
			}

			if ok && v == a.Value {
				if !copied {
					out = append(make([]xmlserdeinterfaces.Attr, 0, len(attrs)), attrs[:i]...)
					copied = true
				}
				continue
			}
			decls = append(decls, a)
		}

		if copied {
			out = append(out, a)
		}
	}
	return out, decls
}

func (e *encoder) WriteCharacters(text string) error {
	err := e.w.WriteEvent(xmlserdeinterfaces.Event{
		Kind: xmlserdeinterfaces.Characters,
		Text: text,
	})
	if err != nil {
		return errors.WriteError{Stage: errors.StageCharacters, Err: err}
	}
	return nil
}

func (e *encoder) WriteEnd() error {
	if len(e.open) == 0 {
		return errors.WriteError{Stage: errors.StageEnd, Err: errNoOpenElement}
	}

	name := e.open[len(e.open)-1].name
	err := e.w.WriteEvent(xmlserdeinterfaces.Event{
		Kind: xmlserdeinterfaces.EndElement,
		Name: xmlserdeinterfaces.Name{Local: name},
	})
	if err != nil {
		return errors.WriteError{Stage: errors.StageEnd, Err: err}
	}

	e.open = e.open[:len(e.open)-1]
	return nil
}

func (e *encoder) Encode(o interface{}) error {
	return e.EncodeValue(reflect.ValueOf(o))
}

func (e *encoder) EncodeValue(v reflect.Value) error {
	if !v.IsValid() {
		return errors.ErrNilPointer
	}

	if err := e.cr.getCodec(v.Type()).Encode(e, v); err != nil {
		return err
	}

	// Flush once a complete top level value has been written
	if len(e.open) == 0 {
		return e.Flush()
	}
	return nil
}

func (e *encoder) Flush() error {
	if f, ok := e.w.(flusher); ok {
		return f.Flush()
	}
	return nil
}

func (e *encoder) Logger() logrus.FieldLogger {
	return e.cr.logger()
}

func (e *encoder) release() {
	e.w = nil
	e.cr = nil
	encoderPool.Put(e)
}
