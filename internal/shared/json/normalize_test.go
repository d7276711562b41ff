package jsonx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeReturnsMalformedInputUnchanged(t *testing.T) {
	for _, input := range []string{"not json", "", "{", "[1,2", "data:image/png;base64,AA=="} {
		assert.Equal(t, input, Normalize(input), "input %q", input)
	}
}

func TestNormalizeUnwrapsDoublyEncodedList(t *testing.T) {
	got := Normalize(`"[1,2,3]"`)
	assert.Equal(t, []any{float64(1), float64(2), float64(3)}, got)
}

func TestNormalizeUnwrapsNestedStringLayers(t *testing.T) {
	inner := `["data:text/plain;base64,aGVsbG8="]`
	once, err := Marshal(inner)
	require.NoError(t, err)
	twice, err := Marshal(string(once))
	require.NoError(t, err)

	assert.Equal(t, []any{"data:text/plain;base64,aGVsbG8="}, Normalize(string(twice)))
}

func TestNormalizeStopsAtDepthCap(t *testing.T) {
	value := `[1]`
	for i := 0; i < 5; i++ {
		encoded, err := Marshal(value)
		require.NoError(t, err)
		value = string(encoded)
	}

	assert.Equal(t, []any{float64(1)}, NormalizeDepth(value, 10))

	capped := NormalizeDepth(value, 2)
	_, isString := capped.(string)
	assert.True(t, isString, "expected capped normalization to stop at a string, got %T", capped)
}

func TestFormatRoundTripsStructuredValues(t *testing.T) {
	cases := []string{
		`{"query":"weather","limit":3,"nested":{"ok":true,"tags":["a","b"]}}`,
		`[1,"two",{"three":3}]`,
		`{}`,
	}
	for _, raw := range cases {
		want := Normalize(raw)
		formatted := Format(raw)
		assert.Equal(t, want, Normalize(formatted), "round trip of %s", raw)
	}
}

func TestFormatIndentsWithTwoSpaces(t *testing.T) {
	got := Format(`{"a":[1,2]}`)
	assert.Equal(t, "{\n  \"a\": [\n    1,\n    2\n  ]\n}", got)
}

func TestFormatQuotesPrimitives(t *testing.T) {
	assert.Equal(t, `"5"`, Format("5"))
	assert.Equal(t, `"true"`, Format("true"))
	assert.Equal(t, `"hello"`, Format(`"hello"`))
	assert.Equal(t, `"<b>"`, Format(`"<b>"`))
}

// The decoder accepts leading zeros, so padded numbers render by value.
func TestFormatRendersZeroPaddedNumbersByValue(t *testing.T) {
	assert.Equal(t, `"1"`, Format("01"))
}

func TestFormatLeavesUnparsedInputAlone(t *testing.T) {
	assert.Equal(t, "plain text result", Format("plain text result"))
}

func TestFormatLenientRepairsTruncatedArguments(t *testing.T) {
	got := FormatLenient(`{"query": "weather in par`)
	assert.True(t, strings.HasPrefix(got, "{\n  \"query\""), "expected repaired object, got %q", got)
	assert.Equal(t, Format(`{"a":1}`), FormatLenient(`{"a":1}`))
	assert.Equal(t, "", FormatLenient(""))
}

func TestNormalizeStringsKeepsPositions(t *testing.T) {
	got := NormalizeStrings(`["a", 3, "", "b"]`)
	assert.Equal(t, []string{"a", "", "", "b"}, got)
}

func TestNormalizeStringsAcceptsBareReference(t *testing.T) {
	assert.Equal(t, []string{"https://example.com/a.png"}, NormalizeStrings("https://example.com/a.png"))
	assert.Nil(t, NormalizeStrings(""))
	assert.Nil(t, NormalizeStrings(`{"a":1}`))
}
