package params

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/yungbote/newsboy-backend/internal/pkg/errors"
)

func TestParamsDecodeAcceptsPermittedShapes(t *testing.T) {
	var p Params
	err := json.Unmarshal([]byte(`{"max_length":500,"format":"markdown","strict":true,"focus_points":["perf","api"]}`), &p)
	require.NoError(t, err)

	assert.Equal(t, KindNumber, p["max_length"].Kind())
	assert.Equal(t, 500, p.Int("max_length", 0))
	assert.Equal(t, "markdown", p.String("format", ""))
	assert.True(t, p.Bool("strict", false))
	assert.Equal(t, []string{"perf", "api"}, p.Strings("focus_points", nil))
}

func TestParamsDecodeRejectsOtherShapes(t *testing.T) {
	for _, body := range []string{
		`{"nested":{"a":1}}`,
		`{"n":null}`,
		`{"mixed":["a",1]}`,
		`[1,2]`,
	} {
		var p Params
		err := json.Unmarshal([]byte(body), &p)
		require.Error(t, err, body)
		assert.True(t, errors.Is(err, errs.ErrInvalidArgument), "want ErrInvalidArgument for %s, got %v", body, err)
	}
}

func TestMergeIsRightBiased(t *testing.T) {
	base := Params{"max_length": Int(2000), "format": String("markdown")}
	overrides := Params{"max_length": Int(500)}

	merged := Merge(base, overrides)

	assert.Len(t, merged, 2)
	assert.Equal(t, 500, merged.Int("max_length", 0))
	assert.Equal(t, "markdown", merged.String("format", ""))
	assert.Equal(t, 2000, base.Int("max_length", 0), "base must not be modified")
}

func TestMergeWithEmptyInputs(t *testing.T) {
	overrides := Params{"tags": Strings("go")}
	assert.Equal(t, []string{"go"}, Merge(nil, overrides).Strings("tags", nil))
	assert.Empty(t, Merge(nil, nil))
}

func TestAccessorsFallBackOnWrongShape(t *testing.T) {
	p := Params{"max_length": String("long"), "focus_points": String("perf")}
	assert.Equal(t, 2000, p.Int("max_length", 2000))
	assert.Nil(t, p.Strings("focus_points", nil))
	assert.Equal(t, "markdown", p.String("format", "markdown"))
}

func TestIntSaturatesOutOfRange(t *testing.T) {
	var p Params
	require.NoError(t, json.Unmarshal([]byte(`{"max_length":1e300,"min":-1e300,"ok":2500.9}`), &p))
	assert.Equal(t, math.MaxInt32, p.Int("max_length", 0))
	assert.Equal(t, math.MinInt32, p.Int("min", 0))
	assert.Equal(t, 2500, p.Int("ok", 0))
	assert.Equal(t, math.MaxInt32, Params{"n": Number(math.MaxInt32 + 1)}.Int("n", 0))
}

func TestMarshalRoundTripKeepsShapes(t *testing.T) {
	p := Params{"n": Number(1.5), "l": Strings()}
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1.5,"l":[]}`, string(raw))
}

func TestMaskedHidesValues(t *testing.T) {
	p := Params{"token": String("secret")}
	assert.Equal(t, "********", p.Masked().String("token", ""))
}
