package codec

import (
	"bytes"
	"reflect"
	"sync"
	"testing"

	"github.com/wippyai/spac"
	"github.com/wippyai/spac/errors"
	"github.com/wippyai/spac/shape"
)

func mustBind(t *testing.T, reg *Registry, s shape.Shape, mem Mem, wire Wire) *Codec {
	t.Helper()
	c, err := reg.Bind(s, mem, wire)
	if err != nil {
		t.Fatalf("Bind(%s) failed: %v", s, err)
	}
	return c
}

func TestMarshal_Bytes(t *testing.T) {
	point := shape.NewRecord("Point", shape.F("x", shape.Int()), shape.F("y", shape.Int()))

	tests := []struct {
		shape shape.Shape
		value any
		name  string
		want  []byte
	}{
		{name: "true", shape: shape.Bool{}, value: true, want: []byte{0x01}},
		{name: "false", shape: shape.Bool{}, value: false, want: []byte{0x00}},
		{name: "uint 300", shape: shape.UInt(), value: 300, want: []byte{0xac, 0x02}},
		{name: "int -1", shape: shape.Int(), value: -1, want: []byte{0x01}},
		{name: "int 1", shape: shape.Int(), value: int64(1), want: []byte{0x02}},
		{name: "json number", shape: shape.UInt(), value: float64(5), want: []byte{0x05}},
		{name: "empty string", shape: shape.String{}, value: "", want: []byte{0x00}},
		{name: "string", shape: shape.String{}, value: "hi", want: []byte{0x04, 0x68, 0x00, 0x69, 0x00}},
		{name: "bytes", shape: shape.Bytes{}, value: []byte{0xde, 0xad}, want: []byte{0x02, 0xde, 0xad}},
		{name: "void", shape: shape.Void{}, value: nil, want: []byte{}},
		{
			name:  "token record",
			shape: shape.NewRecord("Session", shape.F("token", shape.String{})),
			value: map[string]any{"token": "abc"},
			want:  []byte{0x07, 0x06, 0x61, 0x00, 0x62, 0x00, 0x63, 0x00},
		},
		{
			name:  "two bools in one byte",
			shape: shape.NewRecord("Flags", shape.F("a", shape.Bool{}), shape.F("b", shape.Bool{})),
			value: map[string]any{"a": true, "b": false},
			want:  []byte{0x01, 0x01},
		},
		{
			name: "bool integer bool",
			shape: shape.NewRecord("Mixed",
				shape.F("a", shape.Bool{}), shape.F("n", shape.UInt()), shape.F("b", shape.Bool{})),
			value: map[string]any{"a": true, "n": 5, "b": true},
			want:  []byte{0x03, 0x01, 0x05, 0x01},
		},
		{
			name:  "empty record",
			shape: shape.NewRecord("Empty"),
			value: map[string]any{},
			want:  []byte{0x00},
		},
		{
			name:  "positional union",
			shape: shape.NewUnion("Maybe", shape.Void{}, shape.Int()),
			value: map[string]any{"_type": "1", "value": -5},
			want:  []byte{0x01, 0x01, 0x09},
		},
		{
			name:  "void alternative",
			shape: shape.NewUnion("Maybe", shape.Void{}, shape.Int()),
			value: map[string]any{"_type": "0"},
			want:  []byte{0x00, 0x00},
		},
		{
			name: "record alternative shares its tag",
			shape: shape.NewTaggedUnion("Geometry",
				shape.Alt("point", point), shape.Alt("none", shape.Void{})),
			value: map[string]any{"_type": "point", "x": 1, "y": 2},
			want:  []byte{0x00, 0x02, 0x02, 0x04},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mustBind(t, NewRegistry(), tt.shape, nil, nil)

			got, err := c.Marshal(tt.value)
			if err != nil {
				t.Fatalf("Marshal() error: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Marshal() = % x, want % x", got, tt.want)
			}

			n, err := c.Length(tt.value)
			if err != nil {
				t.Fatalf("Length() error: %v", err)
			}
			if n != len(tt.want) {
				t.Errorf("Length() = %d, want %d", n, len(tt.want))
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	item := shape.NewRecord("Item",
		shape.F("sku", shape.String{}),
		shape.F("qty", shape.IntRange(0, 255)),
		shape.F("gift", shape.Bool{}),
	)
	order := shape.NewRecord("Order",
		shape.F("id", shape.UInt()),
		shape.F("paid", shape.Bool{}),
		shape.F("first", item),
		shape.F("second", item),
		shape.F("note", shape.Bytes{}),
		shape.F("delta", shape.Int()),
		shape.F("status", shape.NewTaggedUnion("Status",
			shape.Alt("open", shape.Void{}),
			shape.Alt("shipped", shape.NewRecord("Shipment", shape.F("carrier", shape.String{}))),
			shape.Alt("failed", shape.String{}),
		)),
		shape.F("empty", shape.Void{}),
	)
	c := mustBind(t, NewRegistry(), order, nil, nil)

	tests := []struct {
		value map[string]any
		name  string
	}{
		{
			name: "shipped",
			value: map[string]any{
				"id":     int64(9007199254740991),
				"paid":   true,
				"first":  map[string]any{"sku": "A-1", "qty": int64(3), "gift": false},
				"second": map[string]any{"sku": "日本😀", "qty": int64(255), "gift": true},
				"note":   []byte{1, 2, 3},
				"delta":  int64(-9007199254740991),
				"status": map[string]any{"_type": "shipped", "carrier": "post"},
				"empty":  nil,
			},
		},
		{
			name: "failed",
			value: map[string]any{
				"id":     int64(0),
				"paid":   false,
				"first":  map[string]any{"sku": "", "qty": int64(0), "gift": true},
				"second": map[string]any{"sku": "x", "qty": int64(1), "gift": false},
				"note":   []byte{},
				"delta":  int64(-1),
				"status": map[string]any{"_type": "failed", "value": "lost"},
				"empty":  nil,
			},
		},
		{
			name: "open",
			value: map[string]any{
				"id":     int64(1),
				"paid":   true,
				"first":  map[string]any{"sku": "a", "qty": int64(1), "gift": true},
				"second": map[string]any{"sku": "b", "qty": int64(2), "gift": true},
				"note":   []byte{0xff},
				"delta":  int64(64),
				"status": map[string]any{"_type": "open", "value": nil},
				"empty":  nil,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := c.Marshal(tt.value)
			if err != nil {
				t.Fatalf("Marshal() error: %v", err)
			}

			got, err := c.Unmarshal(data)
			if err != nil {
				t.Fatalf("Unmarshal() error: %v", err)
			}
			if !reflect.DeepEqual(got, any(tt.value)) {
				t.Errorf("round trip mismatch:\n got  %#v\n want %#v", got, tt.value)
			}
		})
	}
}

func TestEncode_CursorContract(t *testing.T) {
	reg := NewRegistry()
	flag := mustBind(t, reg, shape.Bool{}, nil, nil)
	num := mustBind(t, reg, shape.UInt(), nil, nil)

	buf := make([]byte, 4)
	cur, err := flag.Encode(buf, spac.Cursor{}, true)
	if err != nil {
		t.Fatal(err)
	}
	cur, err = flag.Encode(buf, cur, false)
	if err != nil {
		t.Fatal(err)
	}
	if cur != (spac.Cursor{Byte: 0, Bit: 2}) {
		t.Fatalf("cursor after two bools = %+v, want 0.2", cur)
	}
	if buf[0] != 0x01 {
		t.Errorf("byte 0 = %08b, want bit 0 set and bit 1 clear", buf[0])
	}

	cur, err = num.Encode(buf, cur, 7)
	if err != nil {
		t.Fatal(err)
	}
	if cur != spac.At(2) || buf[1] != 0x07 {
		t.Errorf("integer after bools: cursor %+v buf % x, want aligned write at byte 1", cur, buf)
	}

	v, next, err := flag.Decode(buf, spac.Cursor{})
	if err != nil || v != true || next != (spac.Cursor{Bit: 1}) {
		t.Errorf("Decode(bit 0) = %v, %+v, %v", v, next, err)
	}
	v, next, err = flag.Decode(buf, next)
	if err != nil || v != false {
		t.Errorf("Decode(bit 1) = %v, %v", v, err)
	}
	v, next, err = num.Decode(buf, next)
	if err != nil || v != int64(7) || next != spac.At(2) {
		t.Errorf("Decode(integer) = %v, %+v, %v", v, next, err)
	}
}

func TestEncode_ClearsBits(t *testing.T) {
	c := mustBind(t, NewRegistry(), shape.Bool{}, nil, nil)
	buf := []byte{0xff}
	if _, err := c.Encode(buf, spac.Cursor{Bit: 3}, false); err != nil {
		t.Fatal(err)
	}
	if buf[0] != 0x07 {
		t.Errorf("buf = %08b, want bits below 3 kept and the rest cleared", buf[0])
	}
}

func TestEncode_ReusedBufferMatchesMarshal(t *testing.T) {
	flags := shape.NewRecord("Flags", shape.F("a", shape.Bool{}))
	mixed := shape.NewRecord("Mixed",
		shape.F("on", shape.Bool{}),
		shape.F("choice", shape.NewTaggedUnion("Choice",
			shape.Alt("flag", shape.Bool{}),
			shape.Alt("pair", shape.NewRecord("Pair",
				shape.F("x", shape.Bool{}),
				shape.F("y", shape.Bool{}),
			)),
		)),
		shape.F("off", shape.Bool{}),
	)

	tests := []struct {
		name  string
		shape shape.Shape
		value any
	}{
		{"record with one bool", flags, map[string]any{"a": true}},
		{"bool payload", mixed, map[string]any{
			"on": true, "off": false,
			"choice": map[string]any{"_type": "flag", "value": false},
		}},
		{"record alternative", mixed, map[string]any{
			"on": false, "off": true,
			"choice": map[string]any{"_type": "pair", "x": true, "y": false},
		}},
		{"top-level bool", shape.Bool{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mustBind(t, NewRegistry(), tt.shape, nil, nil)
			want, err := c.Marshal(tt.value)
			if err != nil {
				t.Fatalf("Marshal() error: %v", err)
			}
			buf := bytes.Repeat([]byte{0xff}, len(want)+2)
			if _, err := c.Encode(buf, spac.Cursor{}, tt.value); err != nil {
				t.Fatalf("Encode() error: %v", err)
			}
			if !bytes.Equal(buf[:len(want)], want) {
				t.Errorf("Encode() into used buffer = % x, Marshal() = % x", buf[:len(want)], want)
			}
			if buf[len(want)] != 0xff {
				t.Errorf("byte after the value was touched: % x", buf)
			}
		})
	}
}

func TestDecode_AppendedBoolAfterReusedBuffer(t *testing.T) {
	v1 := mustBind(t, NewRegistry(), shape.NewRecord("Flags", shape.F("a", shape.Bool{})), nil, nil)
	v2 := mustBind(t, NewRegistry(), shape.NewRecord("Flags",
		shape.F("a", shape.Bool{}),
		shape.F("b", shape.Bool{}),
	), nil, nil)

	buf := []byte{0xff, 0xff}
	if _, err := v1.Encode(buf, spac.Cursor{}, map[string]any{"a": true}); err != nil {
		t.Fatal(err)
	}
	if buf[1] != 0x01 {
		t.Fatalf("payload = % x, want 01 01", buf)
	}
	got, err := v2.Unmarshal(buf)
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	want := map[string]any{"a": true, "b": false}
	if !reflect.DeepEqual(got, any(want)) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

// linkedList returns List = nil | cons(Node{head, tail List}).
func linkedList() *shape.Union {
	list := &shape.Union{Name: "List"}
	node := shape.NewRecord("Node", shape.F("head", shape.Int()), shape.F("tail", list))
	list.Alternatives = []shape.Alternative{
		shape.Alt("nil", shape.Void{}),
		shape.Alt("cons", node),
	}
	return list
}

func TestRecursiveShape(t *testing.T) {
	value := map[string]any{
		"_type": "cons", "head": 1,
		"tail": map[string]any{
			"_type": "cons", "head": 2,
			"tail": map[string]any{"_type": "nil"},
		},
	}
	wantBytes := []byte{0x01, 0x06, 0x02, 0x01, 0x03, 0x04, 0x00, 0x00}
	wantValue := map[string]any{
		"_type": "cons", "head": int64(1),
		"tail": map[string]any{
			"_type": "cons", "head": int64(2),
			"tail": map[string]any{"_type": "nil", "value": nil},
		},
	}

	tests := []struct {
		name string
		mem  func(*shape.Union) Mem
		wire func(*shape.Union) Wire
	}{
		{"derived", func(*shape.Union) Mem { return nil }, func(*shape.Union) Wire { return nil }},
		{"explicit defaults", func(s *shape.Union) Mem { return DefaultMem(s) }, func(s *shape.Union) Wire { return DefaultWire(s) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := linkedList()
			if err := shape.Validate(list); err != nil {
				t.Fatalf("Validate() error: %v", err)
			}
			reg := NewRegistry()
			c := mustBind(t, reg, list, tt.mem(list), tt.wire(list))
			if reg.Len() != 2 {
				t.Errorf("Len() = %d, want 2", reg.Len())
			}

			data, err := c.Marshal(value)
			if err != nil {
				t.Fatalf("Marshal() error: %v", err)
			}
			if !bytes.Equal(data, wantBytes) {
				t.Errorf("Marshal() = % x, want % x", data, wantBytes)
			}
			got, err := c.Unmarshal(data)
			if err != nil {
				t.Fatalf("Unmarshal() error: %v", err)
			}
			if !reflect.DeepEqual(got, any(wantValue)) {
				t.Errorf("got %#v, want %#v", got, wantValue)
			}
			if deps := c.Dependencies(""); len(deps) != 0 {
				t.Errorf("Dependencies() = %v, want none", deps)
			}
		})
	}
}

func TestSize_Bits(t *testing.T) {
	fields := make([]shape.Field, 9)
	value := make(map[string]any, 9)
	for i := range fields {
		name := string(rune('a' + i))
		fields[i] = shape.F(name, shape.Bool{})
		value[name] = i%2 == 0
	}
	c := mustBind(t, NewRegistry(), shape.NewRecord("Nine", fields...), nil, nil)

	data, err := c.Marshal(value)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0x02, 0x55, 0x01}
	if !bytes.Equal(data, want) {
		t.Errorf("Marshal() = % x, want % x", data, want)
	}

	bits := mustBind(t, NewRegistry(), shape.Bool{}, nil, nil)
	s, err := bits.Size(true)
	if err != nil {
		t.Fatal(err)
	}
	if s != (spac.Size{Bits: 1}) {
		t.Errorf("Size(bool) = %+v, want 1 bit", s)
	}
}

func TestLength_Accuracy(t *testing.T) {
	s := shape.NewRecord("Doc",
		shape.F("title", shape.String{}),
		shape.F("body", shape.Bytes{}),
		shape.F("n", shape.Int()),
	)
	c := mustBind(t, NewRegistry(), s, nil, nil)

	for _, n := range []int{0, 1, 63, 64, 127, 128, 8191, 8192, 1 << 20} {
		v := map[string]any{
			"title": string(bytes.Repeat([]byte("é"), n%300)),
			"body":  make([]byte, n),
			"n":     n,
		}
		length, err := c.Length(v)
		if err != nil {
			t.Fatalf("Length() error: %v", err)
		}
		buf := make([]byte, length+3)
		end, err := c.Encode(buf, spac.Cursor{}, v)
		if err != nil {
			t.Fatalf("Encode() error: %v", err)
		}
		if end.Byte != length || !end.IsAligned() {
			t.Errorf("n=%d: Encode() ended at %+v, Length() = %d", n, end, length)
		}
	}
}

func TestDecode_UnknownAlternative(t *testing.T) {
	newer := shape.NewUnion("Maybe", shape.Void{}, shape.Int())
	older := shape.NewUnion("Maybe", shape.Void{})

	data, err := mustBind(t, NewRegistry(), newer, nil, nil).
		Marshal(map[string]any{"_type": 1, "value": -5})
	if err != nil {
		t.Fatal(err)
	}

	c := mustBind(t, NewRegistry(), older, nil, nil)
	v, next, err := c.Decode(data, spac.Cursor{})
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	want := UnknownVariant{Index: 1, Payload: []byte{0x09}}
	if !reflect.DeepEqual(v, want) {
		t.Errorf("Decode() = %#v, want %#v", v, want)
	}
	if next != spac.At(3) {
		t.Errorf("cursor = %+v, want 3", next)
	}

	if _, err := c.Marshal(v); !errors.IsValue(err) {
		t.Errorf("Marshal(UnknownVariant) error = %v, want value error", err)
	}
}

func TestDecode_SkipsUnknownInsideRecord(t *testing.T) {
	build := func(alts ...shape.Alternative) shape.Shape {
		return shape.NewRecord("Envelope",
			shape.F("event", shape.NewTaggedUnion("Event", alts...)),
			shape.F("seq", shape.UInt()),
		)
	}
	newer := build(
		shape.Alt("ping", shape.Void{}),
		shape.Alt("move", shape.NewRecord("Move", shape.F("dx", shape.Int()), shape.F("dy", shape.Int()))),
	)
	older := build(shape.Alt("ping", shape.Void{}))

	data, err := mustBind(t, NewRegistry(), newer, nil, nil).Marshal(map[string]any{
		"event": map[string]any{"_type": "move", "dx": 10, "dy": -10},
		"seq":   42,
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := mustBind(t, NewRegistry(), older, nil, nil).Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	m := got.(map[string]any)
	if m["seq"] != int64(42) {
		t.Errorf("seq = %v, want 42", m["seq"])
	}
	unknown, ok := m["event"].(UnknownVariant)
	if !ok || unknown.Index != 1 {
		t.Errorf("event = %#v, want UnknownVariant at index 1", m["event"])
	}
}

func TestDecode_SchemaEvolution(t *testing.T) {
	v1 := func() shape.Shape {
		return shape.NewRecord("Outer",
			shape.F("user", shape.NewRecord("User", shape.F("id", shape.UInt()))),
			shape.F("tail", shape.UInt()),
		)
	}
	v2 := func() shape.Shape {
		return shape.NewRecord("Outer",
			shape.F("user", shape.NewRecord("User",
				shape.F("id", shape.UInt()),
				shape.F("name", shape.String{}),
				shape.F("admin", shape.Bool{}),
			)),
			shape.F("tail", shape.UInt()),
		)
	}

	t.Run("older reader skips new fields", func(t *testing.T) {
		data, err := mustBind(t, NewRegistry(), v2(), nil, nil).Marshal(map[string]any{
			"user": map[string]any{"id": 7, "name": "ann", "admin": true},
			"tail": 99,
		})
		if err != nil {
			t.Fatal(err)
		}
		got, err := mustBind(t, NewRegistry(), v1(), nil, nil).Unmarshal(data)
		if err != nil {
			t.Fatalf("Unmarshal() error: %v", err)
		}
		want := map[string]any{"user": map[string]any{"id": int64(7)}, "tail": int64(99)}
		if !reflect.DeepEqual(got, any(want)) {
			t.Errorf("got %#v, want %#v", got, want)
		}
	})

	t.Run("newer reader leaves missing fields out", func(t *testing.T) {
		data, err := mustBind(t, NewRegistry(), v1(), nil, nil).Marshal(map[string]any{
			"user": map[string]any{"id": 7},
			"tail": 99,
		})
		if err != nil {
			t.Fatal(err)
		}
		got, err := mustBind(t, NewRegistry(), v2(), nil, nil).Unmarshal(data)
		if err != nil {
			t.Fatalf("Unmarshal() error: %v", err)
		}
		want := map[string]any{"user": map[string]any{"id": int64(7)}, "tail": int64(99)}
		if !reflect.DeepEqual(got, any(want)) {
			t.Errorf("got %#v, want %#v", got, want)
		}
	})
}

func TestDecode_Errors(t *testing.T) {
	token := shape.NewRecord("Session", shape.F("token", shape.String{}))
	maybe := shape.NewUnion("Maybe", shape.Void{}, shape.Int())

	tests := []struct {
		shape   shape.Shape
		name    string
		input   []byte
		corrupt bool
	}{
		{name: "empty input", shape: token, input: nil},
		{name: "short record", shape: token, input: []byte{0x07, 0x06, 0x61}},
		{name: "read past window", shape: token, input: append([]byte{0x03, 0x0a, 0x61, 0x00}, make([]byte, 20)...)},
		{name: "odd utf-16", shape: token, input: []byte{0x02, 0x01, 0x61}, corrupt: true},
		{name: "dangling varint", shape: shape.UInt(), input: []byte{0x80, 0x80}},
		{name: "varint overflow", shape: shape.UInt(), input: bytes.Repeat([]byte{0xff}, 11), corrupt: true},
		{name: "unsafe integer", shape: shape.UInt(), input: []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x10}, corrupt: true},
		{name: "payload shorter than tag", shape: maybe, input: []byte{0x01, 0x02, 0x09, 0x00}, corrupt: true},
		{name: "union truncated", shape: maybe, input: []byte{0x01, 0x05, 0x09}},
		{name: "bool past end", shape: shape.Bool{}, input: []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mustBind(t, NewRegistry(), tt.shape, nil, nil)
			_, err := c.Unmarshal(tt.input)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.IsCorrupt(err) {
				t.Fatalf("error %v is not a decode error", err)
			}
			var e *errors.Error
			errors.As(err, &e)
			if tt.corrupt && e.Kind != errors.KindCorrupt {
				t.Errorf("kind = %s, want corrupt", e.Kind)
			}
			if !tt.corrupt && e.Kind != errors.KindTruncated {
				t.Errorf("kind = %s, want truncated", e.Kind)
			}
		})
	}
}

func TestDecode_EveryPrefix(t *testing.T) {
	s := shape.NewRecord("Doc",
		shape.F("title", shape.String{}),
		shape.F("flag", shape.Bool{}),
		shape.F("kind", shape.NewUnion("Kind", shape.Void{}, shape.Bytes{})),
	)
	c := mustBind(t, NewRegistry(), s, nil, nil)
	data, err := c.Marshal(map[string]any{
		"title": "hello",
		"flag":  true,
		"kind":  map[string]any{"_type": "1", "value": []byte{1, 2, 3}},
	})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < len(data); i++ {
		if _, err := c.Unmarshal(data[:i]); !errors.IsCorrupt(err) {
			t.Errorf("prefix %d: error = %v, want truncated", i, err)
		}
	}
	if _, err := c.Unmarshal(data); err != nil {
		t.Errorf("full payload: %v", err)
	}
}

func TestEncode_ValueErrors(t *testing.T) {
	rec := shape.NewRecord("R", shape.F("n", shape.IntRange(0, 255)), shape.F("s", shape.String{}))
	union := shape.NewTaggedUnion("U", shape.Alt("a", shape.Void{}), shape.Alt("b", shape.Int())).Deprecate(0)

	tests := []struct {
		shape shape.Shape
		value any
		name  string
		kind  errors.Kind
	}{
		{name: "above bound", shape: rec, value: map[string]any{"n": 256, "s": ""}, kind: errors.KindOutOfRange},
		{name: "negative unsigned", shape: shape.UInt(), value: -1, kind: errors.KindOutOfRange},
		{name: "beyond safe range", shape: shape.Int(), value: int64(1) << 53, kind: errors.KindOutOfRange},
		{name: "fractional", shape: shape.Int(), value: 1.5, kind: errors.KindTypeMismatch},
		{name: "wrong type", shape: shape.String{}, value: 5, kind: errors.KindTypeMismatch},
		{name: "not a map", shape: rec, value: []int{1}, kind: errors.KindTypeMismatch},
		{name: "missing field", shape: rec, value: map[string]any{"n": 1}, kind: errors.KindFieldMissing},
		{name: "no discriminant", shape: union, value: map[string]any{"value": 1}, kind: errors.KindFieldMissing},
		{name: "unknown alternative", shape: union, value: map[string]any{"_type": "c"}, kind: errors.KindInvalidVariant},
		{name: "index out of range", shape: union, value: map[string]any{"_type": 5}, kind: errors.KindInvalidVariant},
		{name: "deprecated alternative", shape: union, value: map[string]any{"_type": "a"}, kind: errors.KindInvalidVariant},
		{name: "missing payload", shape: union, value: map[string]any{"_type": "b"}, kind: errors.KindFieldMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mustBind(t, NewRegistry(), tt.shape, nil, nil)

			_, err := c.Length(tt.value)
			if !errors.IsValue(err) {
				t.Fatalf("Length() error = %v, want value error", err)
			}
			var e *errors.Error
			errors.As(err, &e)
			if e.Kind != tt.kind {
				t.Errorf("Length() kind = %s, want %s", e.Kind, tt.kind)
			}

			buf := make([]byte, 64)
			if _, err := c.Encode(buf, spac.Cursor{}, tt.value); !errors.IsValue(err) {
				t.Errorf("Encode() error = %v, want value error", err)
			}
		})
	}
}

func TestEncode_NoPartialWrite(t *testing.T) {
	s := shape.NewRecord("R", shape.F("a", shape.UInt()), shape.F("b", shape.IntRange(0, 9)))
	c := mustBind(t, NewRegistry(), s, nil, nil)

	buf := bytes.Repeat([]byte{0xee}, 8)
	if _, err := c.Encode(buf, spac.Cursor{}, map[string]any{"a": 1, "b": 10}); err == nil {
		t.Fatal("expected out of range error")
	}
	if !bytes.Equal(buf, bytes.Repeat([]byte{0xee}, 8)) {
		t.Errorf("buffer modified on failed encode: % x", buf)
	}

	small := make([]byte, 2)
	_, err := c.Encode(small, spac.Cursor{}, map[string]any{"a": 1, "b": 2})
	var e *errors.Error
	if !errors.As(err, &e) || e.Kind != errors.KindOutOfBounds {
		t.Fatalf("Encode() into short buffer error = %v, want out_of_bounds", err)
	}
	if small[0] != 0 || small[1] != 0 {
		t.Errorf("short buffer modified: % x", small)
	}
}

func TestEncode_InvalidCursor(t *testing.T) {
	c := mustBind(t, NewRegistry(), shape.Bool{}, nil, nil)
	for _, at := range []spac.Cursor{{Byte: -1}, {Bit: 8}, {Byte: 5}} {
		if _, err := c.Encode(make([]byte, 2), at, true); err == nil {
			t.Errorf("Encode at %+v: expected error", at)
		}
		if _, _, err := c.Decode(make([]byte, 2), at); err == nil {
			t.Errorf("Decode at %+v: expected error", at)
		}
	}
}

func TestDecode_DeprecatedAlternative(t *testing.T) {
	live := shape.NewUnion("U", shape.Void{}, shape.Int())
	retired := shape.NewUnion("U", shape.Void{}, shape.Int()).Deprecate(1)

	data, err := mustBind(t, NewRegistry(), live, nil, nil).Marshal(map[string]any{"_type": "1", "value": 3})
	if err != nil {
		t.Fatal(err)
	}
	got, err := mustBind(t, NewRegistry(), retired, nil, nil).Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	want := map[string]any{"_type": "1", "value": int64(3)}
	if !reflect.DeepEqual(got, any(want)) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestDecode_UnknownField(t *testing.T) {
	s := shape.NewRecord("Holder", shape.F("extra", shape.Unknown{}), shape.F("n", shape.UInt()))
	c := mustBind(t, NewRegistry(), s, nil, nil)

	got, err := c.Unmarshal([]byte{0x05, 0x04, 0x02, 0xaa, 0xbb, 0x01})
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	want := map[string]any{
		"extra": UnknownVariant{Index: 4, Payload: []byte{0xaa, 0xbb}},
		"n":     int64(1),
	}
	if !reflect.DeepEqual(got, any(want)) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestVoidSentinel(t *testing.T) {
	s := shape.NewRecord("R", shape.F("nothing", shape.Void{}))
	mem := &MemRecord{Fields: map[string]Mem{"nothing": MemVoid{Sentinel: VoidUnit}}}
	c := mustBind(t, NewRegistry(), s, mem, nil)

	got, err := c.Unmarshal([]byte{0x00})
	if err != nil {
		t.Fatal(err)
	}
	if got.(map[string]any)["nothing"] != (Unit{}) {
		t.Errorf("nothing = %#v, want Unit{}", got.(map[string]any)["nothing"])
	}
}

func TestDiscriminant(t *testing.T) {
	s := shape.NewTaggedUnion("Shape",
		shape.Alt("circle", shape.NewRecord("Circle", shape.F("r", shape.UInt()))),
		shape.Alt("label", shape.String{}),
	)
	c := mustBind(t, NewRegistry(), s, &MemUnion{Discriminant: "kind"}, nil)

	for _, v := range []map[string]any{
		{"kind": "circle", "r": int64(2)},
		{"kind": "label", "value": "hi"},
	} {
		data, err := c.Marshal(v)
		if err != nil {
			t.Fatal(err)
		}
		got, err := c.Unmarshal(data)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, any(v)) {
			t.Errorf("got %#v, want %#v", got, v)
		}
	}

	byIndex, err := c.Marshal(map[string]any{"kind": "1", "value": "hi"})
	if err != nil {
		t.Fatal(err)
	}
	byName, _ := c.Marshal(map[string]any{"kind": "label", "value": "hi"})
	if !bytes.Equal(byIndex, byName) {
		t.Errorf("index selection % x differs from name selection % x", byIndex, byName)
	}
}

func TestExplicitWireForm(t *testing.T) {
	s := shape.NewRecord("R", shape.F("n", shape.UInt()))
	c := mustBind(t, NewRegistry(), s, nil, &WireRecord{Fields: map[string]Wire{"n": WireInteger{Form: Varsint}}})

	data, err := c.Marshal(map[string]any{"n": 1})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, []byte{0x01, 0x02}) {
		t.Errorf("Marshal() = % x, want zigzag 01 02", data)
	}
}

func TestInspect(t *testing.T) {
	s := shape.NewRecord("Session", shape.F("token", shape.String{}))
	c := mustBind(t, NewRegistry(), s, nil, nil)

	v, spans, err := c.Inspect([]byte{0x07, 0x06, 0x61, 0x00, 0x62, 0x00, 0x63, 0x00}, spac.Cursor{})
	if err != nil {
		t.Fatal(err)
	}
	if v.(map[string]any)["token"] != "abc" {
		t.Errorf("value = %#v", v)
	}
	if len(spans) != 2 {
		t.Fatalf("len(spans) = %d, want 2", len(spans))
	}
	if spans[0].Start != spac.At(0) || spans[0].End != spac.At(8) || spans[0].Shape != "record Session" {
		t.Errorf("spans[0] = %+v", spans[0])
	}
	if spans[1].Start != spac.At(1) || spans[1].End != spac.At(8) || len(spans[1].Path) != 1 {
		t.Errorf("spans[1] = %+v", spans[1])
	}
}

func TestCodec_Concurrent(t *testing.T) {
	s := shape.NewRecord("Pair", shape.F("k", shape.String{}), shape.F("v", shape.Int()))
	c := mustBind(t, NewRegistry(), s, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				v := map[string]any{"k": "key", "v": int64(i*1000 + j)}
				data, err := c.Marshal(v)
				if err != nil {
					t.Error(err)
					return
				}
				got, err := c.Unmarshal(data)
				if err != nil || !reflect.DeepEqual(got, any(v)) {
					t.Errorf("round trip %v: %v, %v", v, got, err)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestEncode_DeepNesting(t *testing.T) {
	c := mustBind(t, NewRegistry(), linkedList(), nil, nil)

	const depth = 500
	v := map[string]any{"_type": "nil"}
	for i := depth; i > 0; i-- {
		v = map[string]any{"_type": "cons", "head": i, "tail": v}
	}

	length, err := c.Length(v)
	if err != nil {
		t.Fatalf("Length() error: %v", err)
	}
	data, err := c.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if len(data) != length {
		t.Fatalf("len(Marshal()) = %d, Length() = %d", len(data), length)
	}

	got, err := c.Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	for i := 1; i <= depth; i++ {
		m, ok := got.(map[string]any)
		if !ok || m["head"] != int64(i) {
			t.Fatalf("element %d = %#v", i, got)
		}
		got = m["tail"]
	}
	if m, _ := got.(map[string]any); m["_type"] != "nil" {
		t.Errorf("list end = %#v, want nil alternative", got)
	}
}
