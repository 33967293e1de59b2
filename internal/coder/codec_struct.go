// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package coder

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/sirupsen/logrus"
	xmlserdeinterfaces "go.e43.eu/xmlserde/interfaces"
	"go.e43.eu/xmlserde/internal/errors"
	"go.e43.eu/xmlserde/internal/naming"
	"go.e43.eu/xmlserde/internal/stream"
	"go.e43.eu/xmlserde/internal/tags"
)

type field struct {
	index int
	name  string
	label string
	attr  bool
	text  bool
	shape Shape

	// Codec of the field type. Unset for attribute and text fields
	codec xCodec
	// Set for KindVec fields, which are decoded one item at a time
	vec *sliceCodec
	// Set for attribute and text fields; the codec of the (optional) leaf
	leaf textual
}

type structCodec struct {
	t      reflect.Type
	name   string
	ctx    *naming.Context
	fields []field
	// Index into fields of the text content field, or -1
	textField int
}

var _ xCodec = &structCodec{}

type taggedField struct {
	sf  reflect.StructField
	tag tags.FieldTag
}

// taggedFields returns the exported, non-skipped fields of t with their tags
func taggedFields(t reflect.Type) ([]taggedField, error) {
	out := make([]taggedField, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" || sf.Name == tags.TypeNameField {
			continue
		}

		tag, err := tags.ParseFieldTag(sf)
		if err != nil {
			return nil, fmt.Errorf("Parsing tag of field '%s' of '%s': %v", sf.Name, t, err)
		}

		if !tag.Skip {
			out = append(out, taggedField{sf, tag})
		}
	}
	return out, nil
}

// elementName computes the default element name of a struct type
func elementName(t reflect.Type, tt tags.TypeTag, ctx *naming.Context) string {
	local := tt.Rename
	if local == "" {
		local = t.Name()
	}
	if local == "" {
		return ""
	}
	return ctx.Label("", local, tt.Prefix)
}

func makeStructCodec(cr *Coder, t reflect.Type) xCodec {
	tt, err := tags.TypeTagOf(t)
	if err != nil {
		return &errorCodec{err}
	}

	fields, err := taggedFields(t)
	if err != nil {
		return &errorCodec{err}
	}

	for _, tf := range fields {
		if tf.tag.Enum {
			c, err := newEnumCodec(cr, t, tt, fields)
			if err != nil {
				return &errorCodec{err}
			}
			return c
		}
	}

	c, err := newStructCodec(cr, t, tt, fields)
	if err != nil {
		return &errorCodec{err}
	}
	return c
}

func newStructCodec(cr *Coder, t reflect.Type, tt tags.TypeTag, fields []taggedField) (*structCodec, error) {
	ctx := tt.Context()
	c := &structCodec{
		t:         t,
		name:      elementName(t, tt, ctx),
		ctx:       ctx,
		fields:    make([]field, 0, len(fields)),
		textField: -1,
	}

	for _, tf := range fields {
		if tf.tag.Variant {
			return nil, fmt.Errorf("Field '%s' of '%s' is a variant, but '%s' has no `enum` field",
				tf.sf.Name, t, t)
		}

		f, err := cr.makeField(ctx, tf)
		if err != nil {
			return nil, errors.WithFieldError(err, t.Name(), tf.sf.Name)
		}

		if f.text {
			if c.textField != -1 {
				return nil, fmt.Errorf("'%s' has more than one `text` field", t)
			}
			c.textField = len(c.fields)
		}
		c.fields = append(c.fields, f)
	}

	return c, nil
}

// structCodecFor builds the codec of a struct type whose fields are inlined
// into another element
func structCodecFor(cr *Coder, t reflect.Type) (*structCodec, error) {
	if t.Kind() != reflect.Struct || cr.isRegistered(t) || implementsMarshaler(t) || implementsText(t) {
		return nil, errors.InvalidTagForTypeError{T: t, Tag: "fields"}
	}

	tt, err := tags.TypeTagOf(t)
	if err != nil {
		return nil, err
	}

	fields, err := taggedFields(t)
	if err != nil {
		return nil, err
	}

	for _, tf := range fields {
		if tf.tag.Enum {
			return nil, errors.InvalidTagForTypeError{T: t, Tag: "fields"}
		}
	}
	return newStructCodec(cr, t, tt, fields)
}

func (cr *Coder) makeField(ctx *naming.Context, tf taggedField) (field, error) {
	sf, tag := tf.sf, tf.tag

	shape, err := cr.Classify(sf.Type)
	if err != nil {
		return field{}, err
	}

	f := field{
		index: sf.Index[0],
		name:  sf.Name,
		label: ctx.Label(sf.Name, tag.Rename, tag.Prefix),
		attr:  tag.Attr,
		text:  tag.Text,
		shape: shape,
	}

	switch {
	case f.attr || f.text:
		leafType := sf.Type
		if shape.Kind == KindOption {
			leafType = leafType.Elem()
		}

		if f.leaf = cr.leafCodec(leafType); f.leaf == nil {
			tagName := "attr"
			if f.text {
				tagName = "text"
			}
			return field{}, errors.InvalidTagForTypeError{T: sf.Type, Tag: tagName}
		}

	case shape.Kind == KindVec:
		f.vec = newSliceCodec(cr, sf.Type)
		f.codec = f.vec

	default:
		f.codec = cr.getCodec(sf.Type)
	}

	return f, nil
}

// formatLeaf returns the textual form of an attribute or text field, and
// false if the field is an absent Option
func (f *field) formatLeaf(v reflect.Value) (string, bool, error) {
	if f.shape.Kind == KindOption {
		if v.IsNil() {
			return "", false, nil
		}
		v = v.Elem()
	}

	s, err := f.leaf.formatText(v)
	return s, true, err
}

func (f *field) parseLeaf(s string, v reflect.Value) error {
	if f.shape.Kind == KindOption {
		p := reflect.New(v.Type().Elem())
		if err := f.leaf.parseText(s, p.Elem()); err != nil {
			return err
		}
		v.Set(p)
		return nil
	}
	return f.leaf.parseText(s, v)
}

func (f *field) encode(e xmlserdeinterfaces.Encoder, v reflect.Value) error {
	if f.text {
		s, ok, err := f.formatLeaf(v)
		if err != nil || !ok {
			return err
		}
		return e.WriteCharacters(s)
	}

	e.SetStartName(f.label)
	e.SetSkipStartEnd(false)
	return f.codec.Encode(e, v)
}

func (c *structCodec) defaultName() string {
	return c.name
}

// lookup finds the child element (or attribute) field named n
func (c *structCodec) lookup(n xmlserdeinterfaces.Name, attr bool) *field {
	for i := range c.fields {
		f := &c.fields[i]
		if f.attr == attr && !f.text && c.ctx.Matches(f.label, n) {
			return f
		}
	}
	return nil
}

// elementLabels returns the labels of the child element fields
func (c *structCodec) elementLabels() []string {
	var out []string
	for i := range c.fields {
		if f := &c.fields[i]; !f.attr && !f.text {
			out = append(out, f.label)
		}
	}
	return out
}

// mayBeEmpty reports whether a value can be written without any child
// element: every element field is an Option or Vec
func (c *structCodec) mayBeEmpty() bool {
	for i := range c.fields {
		f := &c.fields[i]
		if !f.attr && !f.text && f.shape.Kind != KindOption && f.shape.Kind != KindVec {
			return false
		}
	}
	return true
}

// matchAttrs counts the attributes of start belonging to attribute fields.
// It returns false if a required attribute field is missing
func (c *structCodec) matchAttrs(start xmlserdeinterfaces.Event) (int, bool) {
	n := 0
	for _, a := range start.Attrs {
		if !stream.IsNamespaceDecl(a) && c.lookup(a.Name, true) != nil {
			n++
		}
	}

	for i := range c.fields {
		f := &c.fields[i]
		if !f.attr || f.shape.Kind == KindOption {
			continue
		}

		found := false
		for _, a := range start.Attrs {
			if c.ctx.Matches(f.label, a.Name) {
				found = true
				break
			}
		}
		if !found {
			return n, false
		}
	}
	return n, true
}

func (c *structCodec) encodeAttrs(v reflect.Value) ([]xmlserdeinterfaces.Attr, error) {
	attrs := c.ctx.Declarations()
	for i := range c.fields {
		f := &c.fields[i]
		if !f.attr {
			continue
		}

		s, ok, err := f.formatLeaf(v.Field(f.index))
		if err != nil {
			return nil, errors.WithFieldError(err, c.t.Name(), f.name)
		}
		if ok {
			attrs = append(attrs, xmlserdeinterfaces.Attr{
				Name:  xmlserdeinterfaces.Name{Local: f.label},
				Value: s,
			})
		}
	}
	return attrs, nil
}

// encodeBody writes the child elements and text content of v
func (c *structCodec) encodeBody(e xmlserdeinterfaces.Encoder, v reflect.Value) error {
	for i := range c.fields {
		f := &c.fields[i]
		if f.attr {
			continue
		}

		if err := f.encode(e, v.Field(f.index)); err != nil {
			return errors.WithFieldError(err, c.t.Name(), f.name)
		}
	}
	return nil
}

func (c *structCodec) Encode(e xmlserdeinterfaces.Encoder, v reflect.Value) error {
	name, skip := e.TakeStart(c.name)

	if !skip {
		attrs, err := c.encodeAttrs(v)
		if err != nil {
			return err
		}
		if err := e.WriteStart(name, attrs...); err != nil {
			return errors.WithFieldError(err, c.t.Name())
		}
	}

	if err := c.encodeBody(e, v); err != nil {
		return err
	}

	if !skip {
		return errors.WithFieldError(e.WriteEnd(), c.t.Name())
	}
	return nil
}

func (c *structCodec) decodeAttrs(d xmlserdeinterfaces.Decoder, start xmlserdeinterfaces.Event, v reflect.Value) error {
	for _, a := range start.Attrs {
		if stream.IsNamespaceDecl(a) {
			continue
		}

		f := c.lookup(a.Name, true)
		if f == nil {
			d.Logger().WithFields(logrus.Fields{
				"type":      c.t.String(),
				"attribute": a.Name.String(),
			}).Debug("xmlserde: ignoring unknown attribute")
			continue
		}

		if err := f.parseLeaf(a.Value, v.Field(f.index)); err != nil {
			return errors.WithFieldError(errors.ParseError{Text: a.Value, Err: err}, c.t.Name(), f.name)
		}
	}
	return nil
}

// decodeBody reads child elements and text up to the end of the current
// element, which is consumed if consumeEnd is set. leading is character
// content of the element already consumed by the caller.
//
// Unknown child elements are skipped. A Vec field collects every child
// element carrying its label, wherever they occur.
func (c *structCodec) decodeBody(d xmlserdeinterfaces.Decoder, v reflect.Value, consumeEnd bool, leading string) error {
	var (
		text    strings.Builder
		sawText = leading != "" && c.textField != -1
		counts  map[int]int
	)
	text.WriteString(leading)

	for i := range c.fields {
		if f := &c.fields[i]; f.vec != nil {
			f.vec.reset(v.Field(f.index))
		}
	}

	for {
		ev, err := d.Peek()
		if err != nil {
			return readError(err)
		}

		switch ev.Kind {
		case xmlserdeinterfaces.Characters:
			d.Next()
			if c.textField != -1 {
				text.WriteString(ev.Text)
				sawText = true
			} else if !isWhitespace(ev.Text) {
				d.Logger().WithFields(logrus.Fields{
					"type": c.t.String(),
				}).Debug("xmlserde: ignoring character content")
			}

		case xmlserdeinterfaces.StartElement:
			f := c.lookup(ev.Name, false)
			if f == nil {
				d.Logger().WithFields(logrus.Fields{
					"type":    c.t.String(),
					"element": ev.Name.String(),
				}).Debug("xmlserde: skipping unknown element")

				d.Next()
				if err := d.Skip(); err != nil {
					return err
				}
				continue
			}

			fv := v.Field(f.index)
			d.SetSkipStartEnd(false)
			if f.vec != nil {
				if counts == nil {
					counts = make(map[int]int)
				}
				n := counts[f.index]
				counts[f.index] = n + 1
				err = f.vec.decodeItem(d, fv, n)
			} else {
				err = f.codec.Decode(d, fv)
			}
			if err != nil {
				return errors.WithFieldError(err, c.t.Name(), f.name)
			}

		case xmlserdeinterfaces.EndElement:
			if sawText {
				f := &c.fields[c.textField]
				s := text.String()
				if err := f.parseLeaf(s, v.Field(f.index)); err != nil {
					return errors.WithFieldError(errors.ParseError{Text: s, Err: err}, c.t.Name(), f.name)
				}
			}

			if consumeEnd {
				d.Next()
			}
			return nil
		}
	}
}

func (c *structCodec) Decode(d xmlserdeinterfaces.Decoder, v reflect.Value) error {
	skip := d.TakeSkipStartEnd()

	if !skip {
		start, err := d.ReadStart()
		if err != nil {
			return err
		}
		if err := c.decodeAttrs(d, start, v); err != nil {
			return err
		}
	}

	return c.decodeBody(d, v, !skip, "")
}
