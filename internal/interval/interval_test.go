package interval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCompileRoundTrip(t *testing.T) {
	var cases = []string{
		"3 days",
		"1 years",
		"2 months - 5 days",
		"10 minutes + 2 hours - 1 days",
		"- 4 hours",
	}
	for _, c := range cases {
		iv, err := Parse(c)
		require.NoError(t, err, c)
		compiled, err := iv.Compile()
		require.NoError(t, err, c)

		iv2, err := Parse(compiled)
		require.NoError(t, err, compiled)
		assert.Equal(t, iv, iv2, "parse(compile(I)) must equal I for %q", c)
	}
}

func TestParseAcceptsSingularUnits(t *testing.T) {
	iv, err := Parse("1 day")
	require.NoError(t, err)
	require.Len(t, iv.Operands, 1)
	assert.Equal(t, Days, iv.Operands[0].Unit)
}

func TestParseRejectsAmbiguousInput(t *testing.T) {
	for _, bad := range []string{
		"",
		"+",
		"3 days +",
		"3 days 4 hours", // missing operator between terms
		"3", "days",
		"3 fortnights",
		"three days",
	} {
		_, err := Parse(bad)
		assert.Error(t, err, bad)
	}
}

func TestDatetimeExprBindsSeparately(t *testing.T) {
	iv, err := Parse("3 days - 2 hours")
	require.NoError(t, err)

	modifiers, args := iv.DatetimeExpr()
	require.Len(t, modifiers, 2)
	for _, m := range modifiers {
		assert.Equal(t, "?", m, "expression text must never embed the operand directly")
	}
	assert.Equal(t, []interface{}{"3 days", "-2 hours"}, args)
}
