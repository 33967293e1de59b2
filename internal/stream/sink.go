// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package stream

import (
	"encoding/xml"
	"fmt"

	xmlserdeinterfaces "go.e43.eu/xmlserde/interfaces"
	"mellium.im/xmlstream"
)

// TokenSink turns an xmlstream.TokenWriter (such as an *xml.Encoder) into an
// EventWriter.
//
// Names are written verbatim: a prefixed label "p:local" is emitted as is,
// and the matching xmlns declarations are expected among the attributes.
type TokenSink struct {
	w xmlstream.TokenWriter
}

var _ xmlserdeinterfaces.EventWriter = &TokenSink{}

func NewTokenSink(w xmlstream.TokenWriter) *TokenSink {
	return &TokenSink{w}
}

func (s *TokenSink) WriteEvent(ev xmlserdeinterfaces.Event) error {
	var tok xml.Token

	switch ev.Kind {
	case xmlserdeinterfaces.StartElement:
		start := xml.StartElement{Name: xml.Name{Local: ev.Name.String()}}
		if len(ev.Attrs) != 0 {
			start.Attr = make([]xml.Attr, len(ev.Attrs))
			for i, a := range ev.Attrs {
				start.Attr[i] = xml.Attr{Name: xml.Name{Local: a.Name.String()}, Value: a.Value}
			}
		}
		tok = start

	case xmlserdeinterfaces.EndElement:
		tok = xml.EndElement{Name: xml.Name{Local: ev.Name.String()}}

	case xmlserdeinterfaces.Characters:
		tok = xml.CharData(ev.Text)

	default:
		return fmt.Errorf("xmlserde: Cannot write event of kind %s", ev.Kind)
	}

	return s.w.EncodeToken(tok)
}

// Flush flushes the underlying writer if it buffers
func (s *TokenSink) Flush() error {
	if f, ok := s.w.(xmlstream.Flusher); ok {
		return f.Flush()
	}
	return nil
}
