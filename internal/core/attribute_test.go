package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributeProbeOrder(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		kind AttrKind
		want any
	}{
		{"small int", `42`, AttrInt, int32(42)},
		{"negative int", `-7`, AttrInt, int32(-7)},
		{"bool", `true`, AttrBool, true},
		{"int64", `4294967296`, AttrInt64, int64(4294967296)},
		{"double", `1.5`, AttrDouble, 1.5},
		{"integral double", `3.0`, AttrDouble, 3.0},
		{"exponent", `1e3`, AttrDouble, 1000.0},
		{"string", `"hello"`, AttrString, "hello"},
		{"numeric string stays string", `"12"`, AttrString, "12"},
		{"null", `null`, AttrString, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var a Attribute
			require.NoError(t, json.Unmarshal([]byte(tc.raw), &a))
			assert.Equal(t, tc.kind, a.Kind())
			assert.Equal(t, tc.want, a.Value())
		})
	}
}

func TestAttributeObjectAndList(t *testing.T) {
	var attrs map[string]Attribute
	require.NoError(t, json.Unmarshal([]byte(`{"o":{"a":1},"l":[1,"x"]}`), &attrs))

	assert.Equal(t, AttrObject, attrs["o"].Kind())
	assert.Contains(t, attrs["o"].Object(), "a")
	assert.Equal(t, AttrList, attrs["l"].Kind())
	assert.Len(t, attrs["l"].List(), 2)
}

func TestAttributeKindSurvivesRoundTrip(t *testing.T) {
	in := map[string]Attribute{
		"i": IntAttr(5),
		"b": BoolAttr(false),
		"l": Int64Attr(1 << 40),
		"d": DoubleAttr(2),
		"s": StringAttr("5"),
		"o": ObjectAttr(map[string]any{"k": "v"}),
		"a": ListAttr([]any{"x"}),
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	var out map[string]Attribute
	require.NoError(t, json.Unmarshal(data, &out))
	for k, v := range in {
		assert.Equal(t, v.Kind(), out[k].Kind(), "attribute %s", k)
	}
	assert.Equal(t, 2.0, out["d"].Double())
}

func TestAttributeRejectsNonFiniteDouble(t *testing.T) {
	_, err := json.Marshal(map[string]Attribute{"nan": DoubleAttr(nan())})
	require.Error(t, err)
}

func nan() float64 {
	zero := 0.0
	return zero / zero
}
