// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package coder

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	xmlserdeinterfaces "go.e43.eu/xmlserde/interfaces"
	"go.e43.eu/xmlserde/internal/errors"
	"go.e43.eu/xmlserde/internal/naming"
	"go.e43.eu/xmlserde/internal/tags"
)

type variantKind uint8

const (
	// No payload; written as the decimal discriminant
	variantUnit variantKind = iota
	// Payload struct whose fields are inlined into the enum element
	variantFields
	// Single payload value wrapped in an element named by the variant
	variantValue
)

type variant struct {
	disc  int64
	index int
	name  string
	label string
	kind  variantKind

	// variantFields
	fields *structCodec

	// variantValue: shape of the payload, and codec of each item (the
	// payload itself, or its element when an Option or Vec)
	value Shape
	codec xCodec
}

func (vr *variant) path() string {
	return fmt.Sprintf("variant=%d", vr.disc)
}

// enumCodec handles structs tagged with an `enum` discriminant field. Exactly
// one variant field (selected by the discriminant) is encoded.
type enumCodec struct {
	t         reflect.Type
	name      string
	ctx       *naming.Context
	switchIdx int
	unsigned  bool
	variants  []variant
	byDisc    map[int64]int
	// Index of the fields variant taking character content, or -1
	textVariant int
}

var _ xCodec = &enumCodec{}

func newEnumCodec(cr *Coder, t reflect.Type, tt tags.TypeTag, fields []taggedField) (*enumCodec, error) {
	sw := fields[0]
	if !sw.tag.Enum {
		return nil, fmt.Errorf("`enum` must tag the first field of '%s'", t)
	}

	ctx := tt.Context()
	c := &enumCodec{
		t:         t,
		name:      elementName(t, tt, ctx),
		ctx:       ctx,
		switchIdx: sw.sf.Index[0],
		variants:  make([]variant, 0, len(fields)-1),
		byDisc:    make(map[int64]int, len(fields)-1),

		textVariant: -1,
	}

	switch sw.sf.Type.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		c.unsigned = true
	default:
		return nil, errors.WithFieldError(errors.InvalidTagForTypeError{T: sw.sf.Type, Tag: "enum"}, t.Name(), sw.sf.Name)
	}

	for _, tf := range fields[1:] {
		sf, tag := tf.sf, tf.tag
		if !tag.Variant {
			return nil, fmt.Errorf("Field '%s' of enum '%s' is not a variant", sf.Name, t)
		}
		if _, dup := c.byDisc[tag.Discriminant]; dup {
			return nil, fmt.Errorf("Variant %d of '%s' duplicated", tag.Discriminant, t)
		}

		vr := variant{
			disc:  tag.Discriminant,
			index: sf.Index[0],
			name:  sf.Name,
			label: ctx.Label(sf.Name, tag.Rename, tag.Prefix),
		}

		switch {
		case tag.Fields:
			sc, err := structCodecFor(cr, sf.Type)
			if err != nil {
				return nil, errors.WithFieldError(err, t.Name(), sf.Name, vr.path())
			}
			vr.kind = variantFields
			vr.fields = sc

			if sc.textField != -1 {
				if c.textVariant != -1 {
					return nil, fmt.Errorf("Variants %d and %d of '%s' both take text content",
						c.variants[c.textVariant].disc, vr.disc, t)
				}
				c.textVariant = len(c.variants)
			}

		case sf.Type.Kind() == reflect.Struct && sf.Type.NumField() == 0 &&
			!cr.isRegistered(sf.Type) && !implementsMarshaler(sf.Type):
			vr.kind = variantUnit

		default:
			shape, err := cr.Classify(sf.Type)
			if err != nil {
				return nil, errors.WithFieldError(err, t.Name(), sf.Name, vr.path())
			}

			item := shape
			if shape.Kind == KindOption || shape.Kind == KindVec {
				item = *shape.Elem
			}
			vr.kind = variantValue
			vr.value = shape
			vr.codec = cr.getCodec(item.Type)
		}

		c.byDisc[vr.disc] = len(c.variants)
		c.variants = append(c.variants, vr)
	}

	if err := c.checkLabels(); err != nil {
		return nil, err
	}
	return c, nil
}

// labels returns the child element labels which select the variant
func (vr *variant) labels() []string {
	switch vr.kind {
	case variantValue:
		return []string{vr.label}
	case variantFields:
		return vr.fields.elementLabels()
	default:
		return nil
	}
}

// mayBeEmpty reports whether the variant can be written without any child
// element or character content
func (vr *variant) mayBeEmpty() bool {
	switch vr.kind {
	case variantValue:
		return vr.value.Kind == KindOption || vr.value.Kind == KindVec
	case variantFields:
		return vr.fields.mayBeEmpty()
	default:
		return false
	}
}

// overlaps reports whether some element could match both labels
func overlaps(a, b string) bool {
	pa, la := naming.Split(a)
	pb, lb := naming.Split(b)
	return la == lb && (pa == pb || pa == "" || pb == "")
}

// checkLabels rejects enums where one child element could select more than
// one variant
func (c *enumCodec) checkLabels() error {
	for i := range c.variants {
		for j := i + 1; j < len(c.variants); j++ {
			for _, a := range c.variants[i].labels() {
				for _, b := range c.variants[j].labels() {
					if overlaps(a, b) {
						return fmt.Errorf("Variants %d and %d of '%s' are both selected by element '%s'",
							c.variants[i].disc, c.variants[j].disc, c.t, b)
					}
				}
			}
		}
	}
	return nil
}

func (c *enumCodec) defaultName() string {
	return c.name
}

func (c *enumCodec) discriminant(v reflect.Value) int64 {
	sv := v.Field(c.switchIdx)
	if c.unsigned {
		return int64(sv.Uint())
	}
	return sv.Int()
}

func (c *enumCodec) setDiscriminant(v reflect.Value, disc int64) {
	sv := v.Field(c.switchIdx)
	if c.unsigned {
		sv.SetUint(uint64(disc))
	} else {
		sv.SetInt(disc)
	}
}

func (c *enumCodec) Encode(e xmlserdeinterfaces.Encoder, v reflect.Value) error {
	name, skip := e.TakeStart(c.name)

	disc := c.discriminant(v)
	i, ok := c.byDisc[disc]
	if !ok {
		return errors.WithFieldError(errors.DiscriminantError{Value: strconv.FormatInt(disc, 10)}, c.t.Name())
	}
	vr := &c.variants[i]

	if !skip {
		attrs := c.ctx.Declarations()
		if vr.kind == variantFields {
			fattrs, err := vr.fields.encodeAttrs(v.Field(vr.index))
			if err != nil {
				return err
			}
			attrs = append(attrs, fattrs...)
		}

		if err := e.WriteStart(name, attrs...); err != nil {
			return errors.WithFieldError(err, c.t.Name())
		}
	}

	var err error
	switch vr.kind {
	case variantUnit:
		err = e.WriteCharacters(strconv.FormatInt(vr.disc, 10))
	case variantFields:
		err = vr.fields.encodeBody(e, v.Field(vr.index))
	default:
		err = c.encodeValue(e, vr, v.Field(vr.index))
	}
	if err != nil {
		return errors.WithFieldError(err, c.t.Name(), vr.name, vr.path())
	}

	if !skip {
		return errors.WithFieldError(e.WriteEnd(), c.t.Name())
	}
	return nil
}

func (c *enumCodec) encodeValue(e xmlserdeinterfaces.Encoder, vr *variant, v reflect.Value) error {
	switch vr.value.Kind {
	case KindOption:
		if v.IsNil() {
			return nil
		}
		return c.encodeItem(e, vr, v.Elem())

	case KindVec:
		for i := 0; i < v.Len(); i++ {
			if err := c.encodeItem(e, vr, v.Index(i)); err != nil {
				return err
			}
		}
		return nil

	default:
		return c.encodeItem(e, vr, v)
	}
}

// encodeItem wraps one payload item in the variant's element. The item
// itself writes no element of its own
func (c *enumCodec) encodeItem(e xmlserdeinterfaces.Encoder, vr *variant, v reflect.Value) error {
	if err := e.WriteStart(vr.label); err != nil {
		return err
	}

	e.SetStartName("")
	e.SetSkipStartEnd(true)
	if err := vr.codec.Encode(e, v); err != nil {
		return err
	}

	return e.WriteEnd()
}

type decodeState uint8

const (
	awaitingVariant decodeState = iota
	// A Vec variant has been selected and further items may follow
	decodingItems
	variantComplete
)

// match finds the variant introduced by a child element. checkLabels ensures
// no two variants claim the same element
func (c *enumCodec) match(n xmlserdeinterfaces.Name) *variant {
	for i := range c.variants {
		vr := &c.variants[i]
		switch vr.kind {
		case variantValue:
			if c.ctx.Matches(vr.label, n) {
				return vr
			}
		case variantFields:
			if vr.fields.lookup(n, false) != nil {
				return vr
			}
		}
	}
	return nil
}

// unitVariant finds the unit variant denoted by text
func (c *enumCodec) unitVariant(text string) (*variant, error) {
	text = strings.TrimSpace(text)
	disc, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, errors.DiscriminantError{Value: text}
	}

	i, ok := c.byDisc[disc]
	if !ok || c.variants[i].kind != variantUnit {
		return nil, errors.DiscriminantError{Value: text}
	}
	return &c.variants[i], nil
}

// emptyVariant finds the variant denoted by an element with no content: the
// only variant whose payload may be written as nothing at all. Attributes on
// the start element decide between fields variants
func (c *enumCodec) emptyVariant(start xmlserdeinterfaces.Event) *variant {
	var (
		found *variant
		best  = -1
		tied  bool
	)

	for i := range c.variants {
		vr := &c.variants[i]
		if !vr.mayBeEmpty() {
			continue
		}

		score := 0
		if vr.kind == variantFields {
			var ok bool
			if score, ok = vr.fields.matchAttrs(start); !ok {
				continue
			}
		}

		switch {
		case score > best:
			found, best, tied = vr, score, false
		case score == best:
			tied = true
		}
	}

	if tied {
		return nil
	}
	return found
}

func (c *enumCodec) Decode(d xmlserdeinterfaces.Decoder, v reflect.Value) error {
	skip := d.TakeSkipStartEnd()

	var start xmlserdeinterfaces.Event
	if !skip {
		var err error
		if start, err = d.ReadStart(); err != nil {
			return err
		}
	}

	var (
		state   = awaitingVariant
		current *variant
		items   int
	)

	for {
		ev, err := d.Peek()
		if err != nil {
			return readError(err)
		}

		switch ev.Kind {
		case xmlserdeinterfaces.Characters:
			if state != awaitingVariant || isWhitespace(ev.Text) {
				d.Next()
				continue
			}

			text, _, err := d.ReadText()
			if err != nil {
				return err
			}

			vr, err := c.unitVariant(text)
			if err != nil {
				if c.textVariant == -1 {
					return errors.WithFieldError(err, c.t.Name())
				}

				// Content of the text field, followed by the rest of the variant
				current = &c.variants[c.textVariant]
				c.setDiscriminant(v, current.disc)
				if err := c.decodeFields(d, current, start, skip, v.Field(current.index), text); err != nil {
					return errors.WithFieldError(err, c.t.Name(), current.name, current.path())
				}
				state = variantComplete
				continue
			}
			c.setDiscriminant(v, vr.disc)
			state = variantComplete

		case xmlserdeinterfaces.StartElement:
			switch {
			case state == awaitingVariant:
				current = c.match(ev.Name)
				if current == nil {
					return errors.WithFieldError(errors.VariantError{Name: ev.Name.String()}, c.t.Name())
				}
				c.setDiscriminant(v, current.disc)

				state = variantComplete
				if current.kind == variantValue && current.value.Kind == KindVec {
					state = decodingItems
				}

				err = c.decodeVariant(d, current, start, skip, v.Field(current.index))

			case state == decodingItems && c.ctx.Matches(current.label, ev.Name):
				items++
				err = c.decodeValue(d, current, v.Field(current.index), items)

			default:
				d.Logger().WithFields(logrus.Fields{
					"type":    c.t.String(),
					"element": ev.Name.String(),
				}).Debug("xmlserde: skipping element following enum variant")

				d.Next()
				err = d.Skip()
			}

			if err != nil {
				if current != nil {
					return errors.WithFieldError(err, c.t.Name(), current.name, current.path())
				}
				return err
			}

		case xmlserdeinterfaces.EndElement:
			if state == awaitingVariant {
				vr := c.emptyVariant(start)
				if vr == nil {
					return errors.WithFieldError(errors.VariantError{}, c.t.Name())
				}
				c.setDiscriminant(v, vr.disc)

				if vr.kind == variantFields {
					if err := c.decodeFields(d, vr, start, skip, v.Field(vr.index), ""); err != nil {
						return errors.WithFieldError(err, c.t.Name(), vr.name, vr.path())
					}
				} else {
					v.Field(vr.index).Set(reflect.Zero(vr.value.Type))
				}
			}

			if !skip {
				d.Next()
			}
			return nil
		}
	}
}

func (c *enumCodec) decodeVariant(d xmlserdeinterfaces.Decoder, vr *variant, start xmlserdeinterfaces.Event, skip bool, v reflect.Value) error {
	if vr.kind == variantFields {
		return c.decodeFields(d, vr, start, skip, v, "")
	}

	if vr.value.Kind == KindVec {
		v.Set(reflect.Zero(vr.value.Type))
	}
	return c.decodeValue(d, vr, v, 0)
}

// decodeFields decodes a fields variant from the attributes of the enum
// element and its remaining content
func (c *enumCodec) decodeFields(d xmlserdeinterfaces.Decoder, vr *variant, start xmlserdeinterfaces.Event, skip bool, v reflect.Value, leading string) error {
	v.Set(reflect.Zero(v.Type()))
	if !skip {
		if err := vr.fields.decodeAttrs(d, start, v); err != nil {
			return err
		}
	}
	return vr.fields.decodeBody(d, v, false, leading)
}

// decodeValue decodes the n'th payload item of a value variant
func (c *enumCodec) decodeValue(d xmlserdeinterfaces.Decoder, vr *variant, v reflect.Value, n int) error {
	switch vr.value.Kind {
	case KindOption:
		p := reflect.New(vr.value.Type.Elem())
		if err := c.decodeItem(d, vr, p.Elem()); err != nil {
			return err
		}
		v.Set(p)
		return nil

	case KindVec:
		if v.Kind() == reflect.Array {
			if n >= v.Len() {
				return errors.LengthError{Actual: uint64(n + 1), Max: uint64(v.Len())}
			}
			return c.decodeItem(d, vr, v.Index(n))
		}

		item := reflect.New(vr.value.Type.Elem()).Elem()
		if err := c.decodeItem(d, vr, item); err != nil {
			return err
		}
		v.Set(reflect.Append(v, item))
		return nil

	default:
		return c.decodeItem(d, vr, v)
	}
}

func (c *enumCodec) decodeItem(d xmlserdeinterfaces.Decoder, vr *variant, v reflect.Value) error {
	if _, err := d.ReadStart(); err != nil {
		return err
	}

	d.SetSkipStartEnd(true)
	if err := vr.codec.Decode(d, v); err != nil {
		return err
	}

	return d.ReadEnd()
}
