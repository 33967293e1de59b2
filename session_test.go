// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package xmlserde

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eventRecorder is an EventWriter which captures every event, optionally
// failing on the first event of a given kind
type eventRecorder struct {
	events []Event
	failOn EventKind
}

var errBrokenSink = errors.New("sink is broken")

func (r *eventRecorder) WriteEvent(ev Event) error {
	if ev.Kind == r.failOn {
		return errBrokenSink
	}
	r.events = append(r.events, ev)
	return nil
}

func (r *eventRecorder) count(kind EventKind) int {
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

// eventReplayer is an EventReader over a fixed list of events
type eventReplayer struct {
	events []Event
}

func (r *eventReplayer) Next() (Event, error) {
	if len(r.events) == 0 {
		return Event{}, io.EOF
	}
	ev := r.events[0]
	r.events = r.events[1:]
	return ev, nil
}

// triple writes its values as text inside a single element, by delegating to
// SerializePrimitive with start and end elements skipped
type triple struct {
	V [3]int32
}

func formatInt32(v int32) string {
	return strconv.FormatInt(int64(v), 10)
}

func (tr *triple) MarshalXMLSerde(e Encoder) error {
	name, skip := e.TakeStart("triple")
	if !skip {
		if err := e.WriteStart(name); err != nil {
			return err
		}
	}

	for i, v := range tr.V {
		if i != 0 {
			if err := e.WriteCharacters(","); err != nil {
				return err
			}
		}

		e.SetSkipStartEnd(true)
		if err := SerializePrimitive(e, v, "v", formatInt32); err != nil {
			return err
		}
	}

	if !skip {
		return e.WriteEnd()
	}
	return nil
}

func (tr *triple) UnmarshalXMLSerde(d Decoder) error {
	skip := d.TakeSkipStartEnd()
	if !skip {
		if _, err := d.ReadStart(); err != nil {
			return err
		}
	}

	text, _, err := d.ReadText()
	if err != nil {
		return err
	}

	parts := strings.Split(text, ",")
	if len(parts) != len(tr.V) {
		return fmt.Errorf("expected %d values, got %d", len(tr.V), len(parts))
	}
	for i, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return err
		}
		tr.V[i] = int32(v)
	}

	if !skip {
		return d.ReadEnd()
	}
	return nil
}

// hexByte is a leaf with a custom textual form
type hexByte uint8

func (h *hexByte) MarshalXMLSerde(e Encoder) error {
	return SerializePrimitive(e, *h, "hex", func(v hexByte) string {
		return fmt.Sprintf("%02x", uint8(v))
	})
}

func (h *hexByte) UnmarshalXMLSerde(d Decoder) error {
	v, err := DeserializePrimitive(d, func(s string) (hexByte, error) {
		b, err := strconv.ParseUint(strings.TrimSpace(s), 16, 8)
		return hexByte(b), err
	})
	if err == nil {
		*h = v
	}
	return err
}

type holder struct {
	T   triple  `xml:"t"`
	H   hexByte `xml:"h"`
	Hs  []hexByte
	Opt *hexByte `xml:"opt"`
}

type packet struct {
	Kind uint8   `xml:",enum"`
	Raw  hexByte `xml:"raw,variant=1"`
	Trip triple  `xml:"trip,variant=2"`
}

func TestMarshaler(t *testing.T) {
	testcases := []testcase{
		{
			Name:   "transparent delegation",
			Object: triple{V: [3]int32{1, -2, 3}},
			XML:    "<triple>1,-2,3</triple>",
		}, {
			Name:   "primitive adapter",
			Object: hexByte(0xab),
			XML:    "<hex>ab</hex>",
		}, {
			Name:       "primitive adapter parse failure",
			Direction:  decodeTest,
			Object:     hexByte(0),
			XML:        "<hex>zz</hex>",
			DecErrorIs: ErrParse,
		}, {
			Name: "as fields",
			Object: holder{
				T:   triple{V: [3]int32{4, 5, 6}},
				H:   0x0f,
				Hs:  []hexByte{1, 2},
				Opt: nil,
			},
			XML: "<holder><t>4,5,6</t><h>0f</h><Hs>01</Hs><Hs>02</Hs></holder>",
		}, {
			Name:   "as variant",
			Object: packet{Kind: 1, Raw: 0x10},
			XML:    "<packet><raw>10</raw></packet>",
		}, {
			Name:   "as struct variant",
			Object: packet{Kind: 2, Trip: triple{V: [3]int32{7, 8, 9}}},
			XML:    "<packet><trip>7,8,9</trip></packet>",
		},
	}

	RunTestcases(t, testcases)
}

func TestTransparentDelegationWritesOneWrapper(t *testing.T) {
	var rec eventRecorder
	e := NewCoder().NewEventEncoder(&rec)
	require.NoError(t, e.Encode(triple{V: [3]int32{1, 2, 3}}))

	assert.Equal(t, 1, rec.count(StartElement), "one start element")
	assert.Equal(t, 1, rec.count(EndElement), "one end element")
	assert.Equal(t, 5, rec.count(Characters), "three values and two separators")
	assert.Equal(t, Name{Local: "triple"}, rec.events[0].Name)
	assert.Equal(t, Name{Local: "triple"}, rec.events[len(rec.events)-1].Name)
}

func TestStartNameOverride(t *testing.T) {
	var rec eventRecorder
	e := NewCoder().NewEventEncoder(&rec)

	e.SetStartName("renamed")
	require.NoError(t, e.Encode(int32(5)))
	e.SetSkipStartEnd(true)
	require.NoError(t, e.Encode(int32(6)))
	require.NoError(t, e.Encode(int32(7)))

	assert.Equal(t, []Event{
		{Kind: StartElement, Name: Name{Local: "renamed"}},
		{Kind: Characters, Text: "5"},
		{Kind: EndElement, Name: Name{Local: "renamed"}},
		{Kind: Characters, Text: "6"},
		{Kind: StartElement, Name: Name{Local: "int32"}},
		{Kind: Characters, Text: "7"},
		{Kind: EndElement, Name: Name{Local: "int32"}},
	}, rec.events)
}

func TestWriteFailureStages(t *testing.T) {
	type point struct {
		X int32
	}

	for kind, stage := range map[EventKind]WriteStage{
		StartElement: StageStart,
		Characters:   StageCharacters,
		EndElement:   StageEnd,
	} {
		rec := eventRecorder{failOn: kind}
		err := NewCoder().NewEventEncoder(&rec).Encode(point{X: 1})
		require.Error(t, err, "%s write should fail", kind)
		assert.True(t, errors.Is(err, ErrWriteFailure), "%v should be a write failure", err)
		assert.True(t, errors.Is(err, errBrokenSink), "%v should wrap the sink error", err)

		var we WriteError
		if assert.True(t, errors.As(err, &we), "%v should be a WriteError", err) {
			assert.Equal(t, stage, we.Stage)
		}
	}
}

func TestEventRoundTrip(t *testing.T) {
	o := holder{
		T:   triple{V: [3]int32{1, 2, 3}},
		H:   0xff,
		Opt: new(hexByte),
	}

	var rec eventRecorder
	cr := NewCoder()
	require.NoError(t, cr.NewEventEncoder(&rec).Encode(o))

	var out holder
	require.NoError(t, cr.NewEventDecoder(&eventReplayer{rec.events}).Decode(&out))
	assert.Equal(t, o, out)
}

func TestDecodeErrors(t *testing.T) {
	type point struct {
		X int32
	}

	var p point
	err := Unmarshal([]byte("<point><X>1</X>"), &p)
	var se *xml.SyntaxError
	assert.True(t, errors.As(err, &se), "truncated document should report a syntax error, got %v", err)

	assert.True(t, errors.Is(Unmarshal([]byte("<point/>"), p), ErrNotPointer))
	assert.True(t, errors.Is(Unmarshal([]byte("<point/>"), (*point)(nil)), ErrNilPointer))

	var empty eventReplayer
	err = NewCoder().NewEventDecoder(&empty).Decode(&p)
	assert.True(t, errors.Is(err, ErrMissingStartElement), "empty event stream, got %v", err)

	truncated := eventReplayer{events: []Event{
		{Kind: StartElement, Name: Name{Local: "point"}},
		{Kind: StartElement, Name: Name{Local: "X"}},
		{Kind: Characters, Text: "1"},
	}}
	err = NewCoder().NewEventDecoder(&truncated).Decode(&p)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF), "truncated event stream, got %v", err)
}

func TestStrictText(t *testing.T) {
	type doc struct {
		S string
		T *string
	}

	var lenient doc
	require.NoError(t, Unmarshal([]byte("<doc><S></S><T/></doc>"), &lenient))
	assert.Equal(t, doc{T: strptr("")}, lenient)

	var strict doc
	err := NewCoder(WithStrictText()).Unmarshal([]byte("<doc><S></S></doc>"), &strict)
	assert.True(t, errors.Is(err, ErrEmptyText), "expected empty text error, got %v", err)
	assert.True(t, errors.Is(err, ErrParse), "expected parse error, got %v", err)

	var fe FieldError
	if assert.True(t, errors.As(err, &fe)) {
		assert.Contains(t, fe.Path, "S")
	}
}

func TestLoggerReceivesSkippedContent(t *testing.T) {
	type point struct {
		X int32 `xml:"x"`
	}

	logger, hook := logrustest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	var p point
	cr := NewCoder(WithLogger(logger))
	require.NoError(t, cr.Unmarshal([]byte(`<point extra="1"><unknown><x>9</x></unknown><x>1</x></point>`), &p))
	assert.Equal(t, point{X: 1}, p)

	var elements, attrs []interface{}
	for _, entry := range hook.AllEntries() {
		assert.Equal(t, logrus.DebugLevel, entry.Level)
		if v, ok := entry.Data["element"]; ok {
			elements = append(elements, v)
		}
		if v, ok := entry.Data["attribute"]; ok {
			attrs = append(attrs, v)
		}
	}
	assert.Equal(t, []interface{}{"unknown"}, elements)
	assert.Equal(t, []interface{}{"extra"}, attrs)
}

func TestMarshalIndent(t *testing.T) {
	type point struct {
		X int32
		Y int32
	}

	buf, err := MarshalIndent(point{X: 1, Y: 2}, "", "  ")
	require.NoError(t, err)
	assert.Equal(t, "<point>\n  <X>1</X>\n  <Y>2</Y>\n</point>", string(buf))

	buf, err = NewCoder(WithIndent("", "\t")).Marshal(point{X: 1, Y: 2})
	require.NoError(t, err)
	assert.Equal(t, "<point>\n\t<X>1</X>\n\t<Y>2</Y>\n</point>", string(buf))

	var p point
	require.NoError(t, Unmarshal(buf, &p))
	assert.Equal(t, point{X: 1, Y: 2}, p)
}

type rgb struct {
	R, G, B uint8
}

type rgbCodec struct{}

func (rgbCodec) Encode(e Encoder, v reflect.Value) error {
	return SerializePrimitive(e, v.Interface().(rgb), "rgb", func(c rgb) string {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	})
}

func (rgbCodec) Decode(d Decoder, v reflect.Value) error {
	c, err := DeserializePrimitive(d, func(s string) (c rgb, err error) {
		_, err = fmt.Sscanf(strings.TrimSpace(s), "#%02x%02x%02x", &c.R, &c.G, &c.B)
		return c, err
	})
	if err == nil {
		v.Set(reflect.ValueOf(c))
	}
	return err
}

func TestRegisterCodec(t *testing.T) {
	type palette struct {
		Colors []rgb `xml:"color"`
	}

	cr := NewCoder()
	cr.RegisterCodec(rgb{}, rgbCodec{})

	o := palette{Colors: []rgb{{0xff, 0, 0}, {0x12, 0x34, 0x56}}}
	buf, err := cr.Marshal(o)
	require.NoError(t, err)
	assert.Equal(t, "<palette><color>#ff0000</color><color>#123456</color></palette>", string(buf))

	var out palette
	require.NoError(t, cr.Unmarshal(buf, &out))
	assert.Equal(t, o, out)

	assert.Panics(t, func() { cr.RegisterCodec(rgb{}, &rgbCodec{}) }, "registering twice")
	assert.Panics(t, func() { cr.RegisterCodec("", rgbCodec{}) }, "registering a primitive")
	assert.Panics(t, func() { cr.RegisterCodec([]rgb{}, rgbCodec{}) }, "registering a slice")
	assert.Panics(t, func() { DefaultCoder.RegisterCodec(rgb{}, rgbCodec{}) }, "registering on the default coder")
}
