package lending

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClassificationID(t *testing.T) {
	cases := []struct {
		in   string
		want ClassificationID
		ok   bool
	}{
		{in: "S01", want: "S01", ok: true},
		{in: " s42 ", want: "s42", ok: true},
		{in: "Я07", want: "Я07", ok: true},
		{in: "S1", ok: false},
		{in: "S001", ok: false},
		{in: "101", ok: false},
		{in: "SA1", ok: false},
		{in: "", ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseClassificationID(tc.in)
			if !tc.ok {
				assert.ErrorIs(t, err, ErrInvalidClassificationID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseCustomerKind(t *testing.T) {
	k, err := ParseCustomerKind("a")
	require.NoError(t, err)
	assert.Equal(t, KindNew, k)
	assert.Equal(t, "A", k.Code())

	k, err = ParseCustomerKind("B")
	require.NoError(t, err)
	assert.Equal(t, KindReturning, k)

	_, err = ParseCustomerKind("C")
	assert.ErrorIs(t, err, ErrInvalidCustomerKind)
}

func TestParseAmount(t *testing.T) {
	a, err := ParseAmount("1000.00")
	require.NoError(t, err)
	assert.Equal(t, "1000.00", a.StringFixed(2))

	a, err = ParseAmount(" 12.5 ")
	require.NoError(t, err)
	assert.Equal(t, "12.50", a.StringFixed(2))

	for _, bad := range []string{"", "abc", "0", "-5", "0.00", "1,5"} {
		_, err := ParseAmount(bad)
		assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", bad)
	}
}

func TestErrorCode(t *testing.T) {
	_, err := ParseAmount("x")
	assert.Equal(t, "INVALID_AMOUNT", ErrorCode(err))
	assert.Equal(t, "", ErrorCode(nil))
}
