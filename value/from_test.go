package value

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendau/kvclient/errs"
)

func TestFrom(t *testing.T) {
	type myInt int32

	tests := []struct {
		name string
		in   any
		want Value
	}{
		{name: "string", in: "hey", want: String("hey")},
		{name: "bool", in: true, want: Boolean(true)},
		{name: "int", in: 7, want: Number(7)},
		{name: "named int", in: myInt(-3), want: Number(-3)},
		{name: "uint64", in: uint64(9), want: Number(9)},
		{name: "float32", in: float32(0.5), want: Number(0.5)},
		{name: "bytes", in: []byte("hi"), want: Binary("hi")},
		{name: "byte array", in: [2]byte{1, 2}, want: Binary{1, 2}},
		{name: "int slice", in: []int{1, 2}, want: List{Number(1), Number(2)}},
		{name: "any slice", in: []any{"a", 1.5}, want: List{String("a"), Number(1.5)}},
		{name: "map", in: map[string]any{"n": 1}, want: Dict{"n": Number(1)}},
		{name: "typed map", in: map[string]bool{"ok": true}, want: Dict{"ok": Boolean(true)}},
		{name: "value", in: Number(1), want: Number(1)},
		{name: "pointer", in: func() *string { s := "p"; return &s }(), want: String("p")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := From(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromTuple(t *testing.T) {
	tu := NewTuple(String("a"), Number(1))

	got, err := From(tu)
	require.NoError(t, err)
	assert.Same(t, tu, got)
}

func TestFromUnsupported(t *testing.T) {
	tests := []any{
		nil,
		struct{}{},
		map[int]string{1: "a"},
		[]any{"ok", make(chan int)},
		(*int)(nil),
	}
	for _, in := range tests {
		_, err := From(in)
		assert.True(t, errors.Is(err, errs.UnsupportedType), "From(%T) err = %v", in, err)
	}
}
