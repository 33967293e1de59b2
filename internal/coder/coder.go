// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package coder

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"reflect"
	"sync"

	"github.com/sirupsen/logrus"
	xmlserdeinterfaces "go.e43.eu/xmlserde/interfaces"
	"go.e43.eu/xmlserde/internal/errors"
	"go.e43.eu/xmlserde/internal/stream"
)

// type xCodec is the internal codec representation we use
type xCodec = xmlserdeinterfaces.Codec

// textual is implemented by codecs of leaf values which have a textual form,
// and so may be used as attributes and text content
type textual interface {
	formatText(v reflect.Value) (string, error)
	parseText(s string, v reflect.Value) error
}

// named is implemented by codecs which have a default element name
type named interface {
	defaultName() string
}

type Coder struct {
	knownCodecs sync.Map // map[reflect.Type]xCodec
	registered  sync.Map // map[reflect.Type]xmlserdeinterfaces.Codec

	log          logrus.FieldLogger
	strictText   bool
	indentPrefix string
	indent       string
}

func NewCoder(opts ...Option) *Coder {
	cr := new(Coder)
	for _, opt := range opts {
		opt(cr)
	}
	return cr
}

func (cr *Coder) logger() logrus.FieldLogger {
	if cr.log == nil {
		return discardLogger
	}
	return cr.log
}

func (cr *Coder) getCodec(t reflect.Type) xCodec {
	// Common case: already known; just lookup type
	c, ok := cr.knownCodecs.Load(t)
	if ok {
		return c.(xCodec)
	}

	// Less common case: need to construct a codec
	return cr.getNewCodec(t)
}

// Types of object you are prevented from registering codecs for
var prohibitedCustomCodecKinds = map[reflect.Kind]struct{}{
	reflect.Invalid: struct{}{},

	// These carry the Option and Vec shapes of the field taxonomy
	reflect.Array: struct{}{},
	reflect.Slice: struct{}{},
	reflect.Ptr:   struct{}{},

	// These make little sense to support
	reflect.Chan: struct{}{},
	reflect.Func: struct{}{},

	reflect.UnsafePointer: struct{}{},
}

// These are blocked because implementing different behaviour for
// the primitive types would be incredibly confusing
var prohibitedPrimitives = map[reflect.Type]struct{}{
	reflect.TypeOf(""):         struct{}{},
	reflect.TypeOf(false):      struct{}{},
	reflect.TypeOf(int8(0)):    struct{}{},
	reflect.TypeOf(int16(0)):   struct{}{},
	reflect.TypeOf(int32(0)):   struct{}{},
	reflect.TypeOf(int64(0)):   struct{}{},
	reflect.TypeOf(int(0)):     struct{}{},
	reflect.TypeOf(uint8(0)):   struct{}{},
	reflect.TypeOf(uint16(0)):  struct{}{},
	reflect.TypeOf(uint32(0)):  struct{}{},
	reflect.TypeOf(uint64(0)):  struct{}{},
	reflect.TypeOf(uint(0)):    struct{}{},
	reflect.TypeOf(float32(0)): struct{}{},
	reflect.TypeOf(float64(0)): struct{}{},
}

func (cr *Coder) RegisterCodec(template interface{}, c xmlserdeinterfaces.Codec) {
	cr.RegisterCodecReflect(reflect.TypeOf(template), c)
}

func (cr *Coder) RegisterCodecReflect(t reflect.Type, c xmlserdeinterfaces.Codec) {
	if _, badKind := prohibitedCustomCodecKinds[t.Kind()]; badKind {
		panic(fmt.Sprintf("Attempt to register codec for type %s which is of a prohibited kind", t))
	}

	if _, isPrimitive := prohibitedPrimitives[t]; isPrimitive {
		panic(fmt.Sprintf("Attempt to register codec for primitive %s is prohibited", t))
	}

	existing, found := cr.registered.LoadOrStore(t, c)
	if found && existing.(xmlserdeinterfaces.Codec) != c {
		panic(fmt.Sprintf("Attempt to register codec '%s' for type '%s' but '%s' is already registered", c, t, existing))
	}
	cr.knownCodecs.Store(t, c)
}

func (cr *Coder) isRegistered(t reflect.Type) bool {
	_, ok := cr.registered.Load(t)
	return ok
}

func (cr *Coder) getNewCodec(t reflect.Type) xCodec {
	// We create a "deferred codec" in order to handle cycles in the type graph. Note
	// that we also need to be prepared for the possibility that another goroutine
	// is constructing a type related to this one or looking this one up simultaneously,
	// so this codec must not explode if called while being constructed
	//
	// Every call to the deferred codec will block until we finish constructing the
	// real one.
	dc := newDeferredCodec()

	// We were potentially racing against someone else to build the codec up to this point,
	// so we must check that here. If someone else has built (or is building) the codec,
	// we'll go with theirs instead
	c, ok := cr.knownCodecs.LoadOrStore(t, dc)
	if ok {
		return c.(xCodec)
	}

	// Actually construct the codec
	cc := cr.buildCodec(t)

	// Publish our newly built: Replace the deferred one in the store, and close the signalling channel
	// so that anyone waiting on us may progress
	cr.knownCodecs.Store(t, cc)
	dc.resolve(cc)
	return cc
}

func (cr *Coder) buildCodec(t reflect.Type) xCodec {
	if c, ok := cr.registered.Load(t); ok {
		return c.(xCodec)
	}

	switch {
	case implementsMarshaler(t):
		return &marshalerCodec{t}
	case implementsText(t):
		return makeTextCodec(t)
	}

	switch t.Kind() {
	case reflect.Ptr:
		return makeOptCodec(cr, t)

	case reflect.Array, reflect.Slice:
		return makeSliceCodec(cr, t)

	case reflect.Struct:
		return makeStructCodec(cr, t)
	}

	if c := makePrimitiveCodec(cr, t); c != nil {
		return c
	}
	return &errorCodec{errors.InvalidTypeError{T: t}}
}

// leafCodec builds (without consulting the cache) the codec of a leaf
// value, or returns nil if t has no textual form
func (cr *Coder) leafCodec(t reflect.Type) textual {
	if cr.isRegistered(t) || implementsMarshaler(t) {
		return nil
	}
	if implementsText(t) {
		return makeTextCodec(t)
	}
	if c := makePrimitiveCodec(cr, t); c != nil {
		return c
	}
	return nil
}

func (cr *Coder) NewEncoder(w io.Writer) xmlserdeinterfaces.Encoder {
	return cr.newEncoder(cr.newSink(w))
}

func (cr *Coder) NewEventEncoder(w xmlserdeinterfaces.EventWriter) xmlserdeinterfaces.Encoder {
	return cr.newEncoder(w)
}

func (cr *Coder) newSink(w io.Writer) *stream.TokenSink {
	xe := xml.NewEncoder(w)
	if cr.indentPrefix != "" || cr.indent != "" {
		xe.Indent(cr.indentPrefix, cr.indent)
	}
	return stream.NewTokenSink(xe)
}

func (cr *Coder) newEncoder(w xmlserdeinterfaces.EventWriter) *encoder {
	e := encoderPool.Get().(*encoder)
	e.reset(cr, w)
	return e
}

func (cr *Coder) NewDecoder(r io.Reader) xmlserdeinterfaces.Decoder {
	return cr.newDecoder(stream.NewTokenSource(xml.NewDecoder(r)))
}

func (cr *Coder) NewEventDecoder(r xmlserdeinterfaces.EventReader) xmlserdeinterfaces.Decoder {
	return cr.newDecoder(r)
}

func (cr *Coder) newDecoder(r xmlserdeinterfaces.EventReader) *decoder {
	d := decoderPool.Get().(*decoder)
	d.reset(cr, r)
	return d
}

func (cr *Coder) Marshal(o interface{}) ([]byte, error) {
	var b bytes.Buffer
	err := cr.Write(&b, o)
	return b.Bytes(), err
}

// MarshalIndent is like Marshal, but indents nested elements
func (cr *Coder) MarshalIndent(o interface{}, prefix, indent string) ([]byte, error) {
	var b bytes.Buffer

	xe := xml.NewEncoder(&b)
	xe.Indent(prefix, indent)
	e := cr.newEncoder(stream.NewTokenSink(xe))
	err := e.Encode(o)
	e.release()
	return b.Bytes(), err
}

func (cr *Coder) Unmarshal(buf []byte, op interface{}) error {
	return cr.Read(bytes.NewReader(buf), op)
}

func (cr *Coder) Write(w io.Writer, o interface{}) error {
	e := cr.newEncoder(cr.newSink(w))
	err := e.Encode(o)
	e.release()
	return err
}

func (cr *Coder) Read(r io.Reader, op interface{}) error {
	d := cr.newDecoder(stream.NewTokenSource(xml.NewDecoder(r)))
	err := d.Decode(op)
	d.release()
	return err
}
