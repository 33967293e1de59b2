// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package xmlserdeinterfaces defines the primary interfaces of the XML mapping engine
//
// (This package is primarily separated out in order to permit the implementation to
// be broken down into multiple packages)
package xmlserdeinterfaces

import (
	"io"
	"reflect"

	"github.com/sirupsen/logrus"
)

// EventKind identifies the lexical kind of an Event
type EventKind uint8

const (
	// StartElement opens an element; Name and Attrs are set
	StartElement EventKind = iota + 1
	// EndElement closes the most recently opened element; Name is set
	EndElement
	// Characters carries character data in Text
	Characters
)

func (k EventKind) String() string {
	switch k {
	case StartElement:
		return "StartElement"
	case EndElement:
		return "EndElement"
	case Characters:
		return "Characters"
	default:
		return "Invalid"
	}
}

// Name is an element or attribute name as seen on the wire.
//
// On the write side Space is normally empty and Local holds the fully
// resolved (possibly prefixed) label. On the read side Space holds whatever
// qualifier the event source reports, which for encoding/xml is the
// namespace URI.
type Name struct {
	Space, Local string
}

func (n Name) String() string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}

// Attr is a single attribute of a StartElement
type Attr struct {
	Name  Name
	Value string
}

// Event is one lexical XML event
type Event struct {
	Kind  EventKind
	Name  Name
	Attrs []Attr
	Text  string
}

// interface EventReader is a pull source of XML events. It returns io.EOF
// once the stream is exhausted.
type EventReader interface {
	Next() (Event, error)
}

// interface EventWriter is a sink of XML events
type EventWriter interface {
	WriteEvent(ev Event) error
}

// interface Marshaler is the interface implemented by a type which knows how to encode
// and decode itself to/from XML.
//
// Implementations must honour the session protocol: call Encoder.TakeStart
// (or Decoder.TakeSkipStartEnd) before emitting (or consuming) their own
// wrapping element.
type Marshaler interface {
	MarshalXMLSerde(e Encoder) error
	UnmarshalXMLSerde(d Decoder) error
}

// interface Codec is the interface by which the marshalling of types which are
// not natively supported may be defined.
//
// Codecs may be registered with a Coder in order to specify how to handle a
// specific type.
type Codec interface {
	// Encodes v into the encoder e.
	Encode(e Encoder, v reflect.Value) error

	// Decodes v from the decoder d.
	Decode(d Decoder, v reflect.Value) error
}

// interface Coder is the top-level interface to the library
//
// A coder (which may be safely used from multiple threads) provides the ability
// to marshal objects to and from XML. It also contains a repository of Codecs
// which know how to marshal various types
type Coder interface {
	// Marshals o into the returned buffer
	Marshal(o interface{}) ([]byte, error)

	// Marshals o into the returned buffer, indenting nested elements
	MarshalIndent(o interface{}, prefix, indent string) ([]byte, error)

	// Unmarshals buf into the object pointed to by op
	Unmarshal(buf []byte, op interface{}) error

	// Write marshals o into the passed writer
	Write(w io.Writer, o interface{}) error

	// Read unmarshals *op out of the passed reader
	Read(r io.Reader, op interface{}) error

	// Constructs a new encoder which writes to w
	NewEncoder(w io.Writer) Encoder

	// Constructs a new decoder which reads from r
	NewDecoder(r io.Reader) Decoder

	// Constructs a new encoder which emits events to w
	NewEventEncoder(w EventWriter) Encoder

	// Constructs a new decoder which pulls events from r
	NewEventDecoder(r EventReader) Decoder

	// Registers the codec. Panics if a codec is already registered for
	// the type, or an attempt is made to register a codec for a type
	// for which it is not permitted to register codecs.
	RegisterCodec(template interface{}, c Codec)
	RegisterCodecReflect(type_ reflect.Type, c Codec)
}

// interface Encoder is the serializer session.
//
// A session is owned by a single call tree and must not be used from more
// than one goroutine at a time.
type Encoder interface {
	// SetStartName designates the element name the next value must use
	// instead of its own default. An empty name clears the override.
	SetStartName(name string)

	// SetSkipStartEnd controls whether the next value emits its own
	// wrapping start and end element.
	SetSkipStartEnd(skip bool)

	// TakeStart returns the element name the current value should use
	// (the pending override, else defaultName) and whether it must skip its
	// wrapping element. Both settings are reset by the call.
	TakeStart(defaultName string) (name string, skip bool)

	// WriteStart emits a StartElement
	WriteStart(name string, attrs ...Attr) error

	// WriteCharacters emits character data
	WriteCharacters(text string) error

	// WriteEnd closes the most recently started element
	WriteEnd() error

	// Encode writes an object to the encoder
	Encode(o interface{}) error

	// EncodeValue encodes an object to the encoder (via reflection)
	EncodeValue(v reflect.Value) error

	// Flush flushes any buffered output to the underlying writer
	Flush() error

	// Logger returns the logger of the owning Coder
	Logger() logrus.FieldLogger
}

// interface Decoder is the deserializer session.
//
// A session is owned by a single call tree and must not be used from more
// than one goroutine at a time.
type Decoder interface {
	// Peek returns the next event without consuming it
	Peek() (Event, error)

	// Next consumes and returns the next event
	Next() (Event, error)

	// SetSkipStartEnd controls whether the next value consumes its own
	// wrapping start and end element.
	SetSkipStartEnd(skip bool)

	// TakeSkipStartEnd returns and resets the skip flag
	TakeSkipStartEnd() bool

	// ReadStart consumes the next StartElement, ignoring leading whitespace.
	// Any other event yields ErrMissingStartElement.
	ReadStart() (Event, error)

	// ReadText consumes consecutive Characters events and returns their
	// concatenation. ok is false if there were none.
	ReadText() (text string, ok bool, err error)

	// ReadEnd consumes events up to and including the EndElement closing
	// the current element, skipping any nested content.
	ReadEnd() error

	// Skip discards the subtree of the StartElement most recently consumed
	Skip() error

	// Decode reads an object from the stream into *op.
	Decode(op interface{}) error

	// DecodeValue reads an object from the stream
	// v must be a settable value (v.CanSet() is true)
	DecodeValue(v reflect.Value) error

	// Logger returns the logger of the owning Coder
	Logger() logrus.FieldLogger
}
