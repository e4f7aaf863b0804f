package logger

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	var got []bool
	for i := 0; i < 6; i++ {
		got = append(got, s.Allow())
	}
	assert.Equal(t, []bool{true, false, false, true, false, false}, got)

	s.Set(0, 0)
	assert.True(t, s.Allow())
	s.Set(5, 2)
	assert.True(t, s.Allow())
	assert.True(t, s.Allow())
}

func TestParseRatioSpec(t *testing.T) {
	cases := map[string][2]int{
		"1/50": {1, 50},
		" 10 ": {1, 10},
		"0":    {0, 0},
		"x/2":  {0, 0},
		"":     {0, 0},
	}
	for spec, want := range cases {
		num, den := parseRatioSpec(spec)
		assert.Equal(t, want, [2]int{num, den}, spec)
	}
}

func TestAsyncWriterFanOut(t *testing.T) {
	w := newAsyncWriter(nil, 16)
	require.NoError(t, w.Write([]byte("ignored\n")))
	require.NoError(t, w.Close())

	var a, b bytes.Buffer
	w = newAsyncWriter([]io.Writer{&a, &b}, 16)
	require.NoError(t, w.Write([]byte("one\n")))
	require.NoError(t, w.Write([]byte("two\n")))
	require.NoError(t, w.Flush())
	require.NoError(t, w.Close())
	assert.Equal(t, "one\ntwo\n", a.String())
	assert.Equal(t, a.String(), b.String())
}
