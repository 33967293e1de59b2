// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package coder

import (
	"github.com/sirupsen/logrus"
	xmlserdeinterfaces "go.e43.eu/xmlserde/interfaces"
	"go.e43.eu/xmlserde/internal/errors"
)

// SerializePrimitive writes a leaf value as an element containing its
// textual form. The element is named by the session's pending start name if
// set, else by defaultName; when the session asks to skip the wrapping
// element only the text is written.
//
// The session's pending settings are consumed.
func SerializePrimitive[S any](e xmlserdeinterfaces.Encoder, value S, defaultName string, format func(S) string) error {
	name, skip := e.TakeStart(defaultName)

	if !skip {
		if err := e.WriteStart(name); err != nil {
			return err
		}
	}

	if err := e.WriteCharacters(format(value)); err != nil {
		return err
	}

	if !skip {
		return e.WriteEnd()
	}
	return nil
}

type strictTexter interface {
	strictText() bool
}

// DeserializePrimitive reads a leaf value written by SerializePrimitive.
//
// An element with no character content is parsed as the empty string, unless
// the session was created by a Coder with strict text handling.
func DeserializePrimitive[S any](d xmlserdeinterfaces.Decoder, parse func(string) (S, error)) (S, error) {
	var zero S
	skip := d.TakeSkipStartEnd()

	var start xmlserdeinterfaces.Event
	if !skip {
		var err error
		if start, err = d.ReadStart(); err != nil {
			return zero, err
		}
	}

	text, ok, err := d.ReadText()
	if err != nil {
		return zero, err
	}

	if !ok {
		if st, isStrict := d.(strictTexter); isStrict && st.strictText() {
			return zero, errors.ParseError{Err: errors.ErrEmptyText}
		}
		d.Logger().WithFields(logrus.Fields{
			"element": start.Name.String(),
		}).Debug("xmlserde: leaf element has no character content")
	}

	value, err := parse(text)
	if err != nil {
		if _, isParseErr := err.(errors.ParseError); !isParseErr {
			err = errors.ParseError{Text: text, Err: err}
		}
		return zero, err
	}

	if !skip {
		if err := d.ReadEnd(); err != nil {
			return zero, err
		}
	}
	return value, nil
}
