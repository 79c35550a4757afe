package jsonutil_test

import (
	"testing"

	"github.com/safechecks/safechecks/pkg/jsonutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalMarshal_SortedKeys(t *testing.T) {
	out, err := jsonutil.CanonicalMarshal(map[string]string{
		"temp_value":    "4.5",
		"temp_location": "Walk-in Fridge",
		"temp_status":   "OK",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"temp_location":"Walk-in Fridge","temp_status":"OK","temp_value":"4.5"}`, string(out))
}

func TestCanonicalMarshal_Nested(t *testing.T) {
	input := map[string]any{
		"b": map[string]any{"z": 1, "a": 2},
		"a": 0,
	}
	out, err := jsonutil.CanonicalMarshal(input)
	require.NoError(t, err)
	assert.Equal(t, `{"a":0,"b":{"a":2,"z":1}}`, string(out))
}

func TestCanonicalMarshal_NoHTMLEscape(t *testing.T) {
	out, err := jsonutil.CanonicalString(map[string]string{"probe_product": "Fish & Chips <large>"})
	require.NoError(t, err)
	assert.Equal(t, `{"probe_product":"Fish & Chips <large>"}`, out)
}

func TestCanonicalMarshal_KeepsNumberPrecision(t *testing.T) {
	out, err := jsonutil.CanonicalString(map[string]any{"n": 12345678901234567})
	require.NoError(t, err)
	assert.Equal(t, `{"n":12345678901234567}`, out)
}

func TestCanonicalMarshal_Deterministic(t *testing.T) {
	in := map[string]any{"x": []any{"b", "a"}, "k": nil, "m": true}
	first, err := jsonutil.CanonicalMarshal(in)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := jsonutil.CanonicalMarshal(in)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, `{"k":null,"m":true,"x":["b","a"]}`, string(first))
}

func TestCanonicalMarshal_Unmarshalable(t *testing.T) {
	_, err := jsonutil.CanonicalMarshal(map[string]any{"ch": make(chan int)})
	assert.Error(t, err)
}
