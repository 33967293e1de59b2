// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

// Package stream adapts encoding/xml token streams to the event interfaces
// used by the coder.
package stream

import (
	"encoding/xml"

	xmlserdeinterfaces "go.e43.eu/xmlserde/interfaces"
)

// TokenSource turns an xml.TokenReader into an EventReader. Comments,
// processing instructions and directives are dropped.
type TokenSource struct {
	r xml.TokenReader
}

var _ xmlserdeinterfaces.EventReader = &TokenSource{}

func NewTokenSource(r xml.TokenReader) *TokenSource {
	return &TokenSource{r}
}

func (s *TokenSource) Next() (xmlserdeinterfaces.Event, error) {
	for {
		tok, err := s.r.Token()
		if err != nil {
			return xmlserdeinterfaces.Event{}, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			ev := xmlserdeinterfaces.Event{
				Kind: xmlserdeinterfaces.StartElement,
				Name: xmlserdeinterfaces.Name{Space: t.Name.Space, Local: t.Name.Local},
			}
			if len(t.Attr) != 0 {
				ev.Attrs = make([]xmlserdeinterfaces.Attr, len(t.Attr))
				for i, a := range t.Attr {
					ev.Attrs[i] = xmlserdeinterfaces.Attr{
						Name:  xmlserdeinterfaces.Name{Space: a.Name.Space, Local: a.Name.Local},
						Value: a.Value,
					}
				}
			}
			return ev, nil

		case xml.EndElement:
			return xmlserdeinterfaces.Event{
				Kind: xmlserdeinterfaces.EndElement,
				Name: xmlserdeinterfaces.Name{Space: t.Name.Space, Local: t.Name.Local},
			}, nil

		case xml.CharData:
			// CharData is only valid until the next call to Token
			return xmlserdeinterfaces.Event{
				Kind: xmlserdeinterfaces.Characters,
				Text: string(t),
			}, nil
		}
	}
}

// IsNamespaceDecl reports whether an attribute read by a TokenSource is an
// xmlns declaration
func IsNamespaceDecl(a xmlserdeinterfaces.Attr) bool {
	return a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns")
}
