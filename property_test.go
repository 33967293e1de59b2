// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package xmlserde

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"unicode"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// xmlText generates strings made of characters which survive a trip through
// an XML document, including those which must be escaped
func xmlText() *rapid.Generator[string] {
	return rapid.StringOf(rapid.RuneFrom(
		[]rune{' ', '\t', '\n', '<', '>', '&', '"', '\''},
		unicode.L, unicode.N, unicode.P, unicode.S,
	))
}

func checkRoundTrip[T any](t *rapid.T, o T) string {
	out, doc := roundTrip(t, o)
	if diff := cmp.Diff(o, out.(T)); diff != "" {
		t.Fatalf("round trip of %q mismatch (-want +got):\n%s", doc, diff)
	}
	return doc
}

func TestScalarRoundTripProperty(t *testing.T) {
	t.Run("int64", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			v := rapid.Int64().Draw(t, "v")
			doc := checkRoundTrip(t, v)
			require.Equal(t, "<int64>"+strconv.FormatInt(v, 10)+"</int64>", doc)
		})
	})

	t.Run("uint64", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			checkRoundTrip(t, rapid.Uint64().Draw(t, "v"))
		})
	})

	t.Run("int8", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			checkRoundTrip(t, rapid.Int8().Draw(t, "v"))
		})
	})

	t.Run("uint16", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			checkRoundTrip(t, rapid.Uint16().Draw(t, "v"))
		})
	})

	t.Run("float64", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			checkRoundTrip(t, rapid.Float64().Draw(t, "v"))
		})
	})

	t.Run("float32", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			checkRoundTrip(t, rapid.Float32().Draw(t, "v"))
		})
	})

	t.Run("bool", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			checkRoundTrip(t, rapid.Bool().Draw(t, "v"))
		})
	})

	t.Run("string", func(t *testing.T) {
		rapid.Check(t, func(t *rapid.T) {
			checkRoundTrip(t, xmlText().Draw(t, "v"))
		})
	})
}

type Reading struct {
	Sensor  string  `xml:"sensor,attr"`
	Comment *string `xml:"comment,attr"`
	Value   float64
	Samples []int32 `xml:"sample"`
	Offset  *int16
	Flags   [2]bool `xml:"flag"`
	Unit    Unit    `xml:"unit"`
}

type Unit struct {
	Kind    uint8    `xml:",enum"`
	Celsius struct{} `xml:",variant=0"`
	Kelvin  struct{} `xml:",variant=1"`
	Custom  string   `xml:"custom,variant=2"`
	Scaled  []uint32 `xml:"factor,variant=3"`
}

func drawUnit(t *rapid.T) Unit {
	u := Unit{Kind: rapid.Uint8Range(0, 3).Draw(t, "unit")}
	switch u.Kind {
	case 2:
		u.Custom = xmlText().Draw(t, "custom")
	case 3:
		u.Scaled = rapid.SliceOfN(rapid.Uint32(), 1, 4).Draw(t, "factors")
	}
	return u
}

func drawReading(t *rapid.T) Reading {
	r := Reading{
		Sensor:  xmlText().Draw(t, "sensor"),
		Value:   rapid.Float64().Draw(t, "value"),
		Samples: rapid.SliceOfN(rapid.Int32(), 0, 5).Draw(t, "samples"),
		Flags:   [2]bool{rapid.Bool().Draw(t, "flag0"), rapid.Bool().Draw(t, "flag1")},
		Unit:    drawUnit(t),
	}
	if len(r.Samples) == 0 {
		// An empty Vec decodes as nil
		r.Samples = nil
	}
	if rapid.Bool().Draw(t, "hasComment") {
		c := xmlText().Draw(t, "comment")
		r.Comment = &c
	}
	if rapid.Bool().Draw(t, "hasOffset") {
		o := rapid.Int16().Draw(t, "offset")
		r.Offset = &o
	}
	return r
}

func TestStructRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := drawReading(t)
		doc := checkRoundTrip(t, r)

		require.Equal(t, len(r.Samples), strings.Count(doc, "<sample>"), "one element per Vec item")
		require.Equal(t, r.Offset != nil, strings.Contains(doc, "<Offset>"), "absent Option is omitted")
		require.Equal(t, r.Comment != nil, strings.Contains(doc, ` comment="`), "absent Option attribute is omitted")
	})
}

func escapeText(t *rapid.T, s string) string {
	var b bytes.Buffer
	require.NoError(t, xml.EscapeText(&b, []byte(s)))
	return b.String()
}

// Children may appear in any order and be interleaved with unknown elements
func TestUnknownFieldToleranceProperty(t *testing.T) {
	type Record struct {
		A int32
		B string
		C bool
	}

	rapid.Check(t, func(t *rapid.T) {
		want := Record{
			A: rapid.Int32().Draw(t, "A"),
			B: xmlText().Draw(t, "B"),
			C: rapid.Bool().Draw(t, "C"),
		}

		children := []string{
			fmt.Sprintf("<A>%d</A>", want.A),
			fmt.Sprintf("<B>%s</B>", escapeText(t, want.B)),
			fmt.Sprintf("<C>%t</C>", want.C),
		}
		for i, n := 0, rapid.IntRange(0, 3).Draw(t, "unknowns"); i < n; i++ {
			children = append(children, fmt.Sprintf(
				"<Unknown%d attr=\"x\"><A>0</A>%s</Unknown%d>",
				i, escapeText(t, xmlText().Draw(t, "junk")), i))
		}
		children = rapid.Permutation(children).Draw(t, "order")

		var got Record
		doc := "<Record>" + strings.Join(children, "") + "</Record>"
		require.NoError(t, Unmarshal([]byte(doc), &got), "Unmarshal of %q", doc)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("decode of %q mismatch (-want +got):\n%s", doc, diff)
		}
	})
}

func TestUnitVariantOrdinalProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		kind := rapid.Uint8Range(0, 2).Draw(t, "kind")
		buf, err := Marshal(color{Kind: kind})
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("<color>%d</color>", kind), string(buf))
	})

	rapid.Check(t, func(t *rapid.T) {
		ordinal := rapid.Int64Min(3).Draw(t, "ordinal")
		var c color
		err := Unmarshal([]byte(fmt.Sprintf("<color>%d</color>", ordinal)), &c)
		require.True(t, errors.Is(err, ErrUnknownDiscriminant), "ordinal %d gave %v", ordinal, err)
	})
}

// series writes each of its values with the wrapping element skipped, so the
// whole sequence shares the series' single element
type series struct {
	Values []uint8
}

func (s *series) MarshalXMLSerde(e Encoder) error {
	name, skip := e.TakeStart("series")
	if !skip {
		if err := e.WriteStart(name); err != nil {
			return err
		}
	}

	for _, v := range s.Values {
		e.SetSkipStartEnd(true)
		if err := e.Encode(fmt.Sprintf("[%d]", v)); err != nil {
			return err
		}
	}

	if !skip {
		return e.WriteEnd()
	}
	return nil
}

func (s *series) UnmarshalXMLSerde(d Decoder) error {
	return errors.New("series cannot be decoded")
}

func TestTransparentDelegationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := series{Values: rapid.SliceOfN(rapid.Uint8(), 0, 8).Draw(t, "values")}

		var rec eventRecorder
		require.NoError(t, NewCoder().NewEventEncoder(&rec).Encode(&s))
		require.Equal(t, 1, rec.count(StartElement))
		require.Equal(t, 1, rec.count(EndElement))
		require.Equal(t, len(s.Values), rec.count(Characters))
	})
}
