package wire

import (
	"testing"

	"github.com/grovetools/hspdebug/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestEncode(t *testing.T) {
	assert.Equal(t, `{"type":"pause"}`, Request{Type: TypePause}.Encode())
	assert.Equal(t, `{"type":"next"}`, Request{Type: TypeNext}.Encode())
	assert.Equal(t, `{"type":"globals","id":"abc"}`, Request{Type: TypeGlobals, ID: "abc"}.Encode())
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		text string
		want *Notification
	}{
		{
			name: "stop with file",
			text: `{"type":"stop","file":"main.hsp","line":12}`,
			want: &Notification{Type: TypeStop, File: "main.hsp", Line: 12},
		},
		{
			name: "stop without file",
			text: `{"type":"stop","line":3}`,
			want: &Notification{Type: TypeStop, Line: 3},
		},
		{
			name: "stop with string line",
			text: `{"type":"stop","file":null,"line":"7"}`,
			want: &Notification{Type: TypeStop, Line: 7},
		},
		{
			name: "continue",
			text: `{"type":"continue"}`,
			want: &Notification{Type: TypeContinue},
		},
		{
			name: "globals array",
			text: `{"type":"globals","id":"c1","vars":[{"name":"a","value":"1"},{"name":"s","value":"hi"}]}`,
			want: &Notification{Type: TypeGlobals, ID: "c1", Vars: []Variable{{"a", "1"}, {"s", "hi"}}},
		},
		{
			name: "globals legacy map with raw values",
			text: `{"type":"globals","vars":{"n":42,"arr":[1,2],"x":null}}`,
			want: &Notification{Type: TypeGlobals, Vars: []Variable{{"n", "42"}, {"arr", "[1,2]"}, {"x", "null"}}},
		},
		{
			name: "globals without vars",
			text: `{"type":"globals"}`,
			want: &Notification{Type: TypeGlobals, Vars: []Variable{}},
		},
		{
			name: "breakpoint",
			text: `{"type":"breakpoint","id":4,"verified":true}`,
			want: &Notification{Type: TypeBreakpoint, BreakpointID: 4, Verified: true},
		},
		{
			name: "output",
			text: `{"type":"output","text":"hello\n"}`,
			want: &Notification{Type: TypeOutput, Text: "hello\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeViolations(t *testing.T) {
	for _, text := range []string{
		`not json`,
		`[1,2]`,
		`{"line":3}`,
		`{"type":"explode"}`,
		`{"type":"stop"}`,
		`{"type":"stop","line":"three"}`,
		`{"type":"breakpoint","verified":true}`,
	} {
		t.Run(text, func(t *testing.T) {
			_, err := Decode(text)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeProtocolViolation))
		})
	}
}
