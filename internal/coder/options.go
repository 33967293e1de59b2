// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package coder

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Option configures a Coder
type Option func(*Coder)

// WithLogger sets the logger which receives debug entries for tolerated
// input (skipped unknown elements and attributes, empty leaf content)
func WithLogger(l logrus.FieldLogger) Option {
	return func(cr *Coder) {
		cr.log = l
	}
}

// WithStrictText makes decoding a leaf element without character content an
// error, rather than parsing the empty string
func WithStrictText() Option {
	return func(cr *Coder) {
		cr.strictText = true
	}
}

// WithIndent makes encoders created from io.Writers indent nested elements
func WithIndent(prefix, indent string) Option {
	return func(cr *Coder) {
		cr.indentPrefix = prefix
		cr.indent = indent
	}
}

var discardLogger = newDiscardLogger()

func newDiscardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}
