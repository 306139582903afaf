package projection

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSchemaValidateFillsDefaults(t *testing.T) {
	s := Schema{{Key: "limit", Type: OptionNumber, Default: 10.0}}
	out, err := s.Validate(map[string]any{})
	require.NoError(t, err)
	require.Equal(t, 10.0, out["limit"])
}

func TestSchemaValidateRejectsUnknownKey(t *testing.T) {
	s := Schema{{Key: "limit", Type: OptionNumber, Default: 10.0}}
	_, err := s.Validate(map[string]any{"bogus": 1})
	require.Error(t, err)
}

func TestSchemaValidateRejectsWrongType(t *testing.T) {
	s := Schema{{Key: "limit", Type: OptionNumber, Default: 10.0}}
	_, err := s.Validate(map[string]any{"limit": "ten"})
	require.Error(t, err)
}

func TestSchemaValidateEnforcesRange(t *testing.T) {
	min, max := 1.0, 5.0
	s := Schema{{Key: "n", Type: OptionNumber, Min: &min, Max: &max}}

	_, err := s.Validate(map[string]any{"n": 0.0})
	require.Error(t, err)

	_, err = s.Validate(map[string]any{"n": 6.0})
	require.Error(t, err)

	_, err = s.Validate(map[string]any{"n": 3.0})
	require.NoError(t, err)
}

// TestCoerceQueryStringsConvertsDeclaredTypes covers the GET-style
// projection query path (§6): query-string values are always strings,
// so CoerceQueryStrings must turn "false"/"10" into a bool/number
// before Validate runs, the way an encoding/json-decoded POST body
// would have delivered them natively.
func TestCoerceQueryStringsConvertsDeclaredTypes(t *testing.T) {
	min, max := 0.0, 100.0
	s := Schema{
		{Key: "includeSpacers", Type: OptionBoolean, Default: true},
		{Key: "limit", Type: OptionNumber, Min: &min, Max: &max},
		{Key: "mode", Type: OptionEnum, Enum: []string{"a", "b"}},
	}

	coerced := s.CoerceQueryStrings(map[string]string{
		"includeSpacers": "false",
		"limit":          "10",
		"mode":           "b",
	})

	out, err := s.Validate(coerced)
	require.NoError(t, err)
	require.Equal(t, false, out["includeSpacers"])
	require.Equal(t, 10.0, out["limit"])
	require.Equal(t, "b", out["mode"])
}

func TestCoerceQueryStringsLeavesUnparseableAndUnknownValuesForValidateToReject(t *testing.T) {
	s := Schema{{Key: "includeSpacers", Type: OptionBoolean, Default: true}}

	coerced := s.CoerceQueryStrings(map[string]string{
		"includeSpacers": "not-a-bool",
		"bogus":          "1",
	})
	require.Equal(t, "not-a-bool", coerced["includeSpacers"])

	_, err := s.Validate(coerced)
	require.Error(t, err)
}

func TestSchemaValidateEnforcesEnumMembership(t *testing.T) {
	s := Schema{{Key: "mode", Type: OptionEnum, Enum: []string{"a", "b"}}}

	_, err := s.Validate(map[string]any{"mode": "c"})
	require.Error(t, err)

	out, err := s.Validate(map[string]any{"mode": "b"})
	require.NoError(t, err)
	require.Equal(t, "b", out["mode"])
}
