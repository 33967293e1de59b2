// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package xmlserde

import (
	"io"
	"reflect"

	"github.com/sirupsen/logrus"
	xmlserdeinterfaces "go.e43.eu/xmlserde/interfaces"
	"go.e43.eu/xmlserde/internal/coder"
)

type defaultCoder struct {
	coder.Coder
}

func (d *defaultCoder) RegisterCodec(template interface{}, c xmlserdeinterfaces.Codec) {
	panic("Cannot register type on default codec")
}

func (d *defaultCoder) RegisterCodecReflect(type_ reflect.Type, c xmlserdeinterfaces.Codec) {
	panic("Cannot register type on default codec")
}

// The default coder (used by the package global functions)
//
// This behaves identically to a coder created using NewCoder with no options,
// except that it is not permitted to register any codecs upon it.
var DefaultCoder defaultCoder

// Marshals o into the returned buffer
func Marshal(o interface{}) ([]byte, error) {
	return DefaultCoder.Marshal(o)
}

// Marshals o into the returned buffer, indenting nested elements
func MarshalIndent(o interface{}, prefix, indent string) ([]byte, error) {
	return DefaultCoder.MarshalIndent(o, prefix, indent)
}

// Unmarshals buf into the object pointed to by op
func Unmarshal(buf []byte, op interface{}) error {
	return DefaultCoder.Unmarshal(buf, op)
}

// Write marshals o into the passed writer
func Write(w io.Writer, o interface{}) error {
	return DefaultCoder.Write(w, o)
}

// Read unmarshals *op out of the passed reader
func Read(r io.Reader, op interface{}) error {
	return DefaultCoder.Read(r, op)
}

// Constructs a new encoder which writes to w
func NewEncoder(w io.Writer) Encoder {
	return DefaultCoder.NewEncoder(w)
}

// Constructs a new decoder which reads from r
func NewDecoder(r io.Reader) Decoder {
	return DefaultCoder.NewDecoder(r)
}

// Option configures a Coder created by NewCoder
type Option = coder.Option

// WithLogger sets the logger which receives debug entries for input the
// decoder tolerates (unknown elements and attributes, empty leaf elements)
func WithLogger(l logrus.FieldLogger) Option {
	return coder.WithLogger(l)
}

// WithStrictText makes decoding a leaf element with no character content fail
// with ErrEmptyText, instead of parsing the empty string
func WithStrictText() Option {
	return coder.WithStrictText()
}

// WithIndent makes the coder indent nested elements
func WithIndent(prefix, indent string) Option {
	return coder.WithIndent(prefix, indent)
}

// Construct a new Coder
func NewCoder(opts ...Option) Coder {
	return coder.NewCoder(opts...)
}

// SerializePrimitive writes a leaf value as an element containing format(value).
// It is intended for Marshaler implementations of leaf-like types.
//
// The element is named by the encoder's pending start name if one was set, else
// by defaultName. If the encoder is set to skip start and end elements, only
// the text is written.
func SerializePrimitive[S any](e Encoder, value S, defaultName string, format func(S) string) error {
	return coder.SerializePrimitive(e, value, defaultName, format)
}

// DeserializePrimitive reads a leaf value written by SerializePrimitive
func DeserializePrimitive[S any](d Decoder, parse func(string) (S, error)) (S, error) {
	return coder.DeserializePrimitive(d, parse)
}
