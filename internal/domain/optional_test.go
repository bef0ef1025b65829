package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptional_PresentAndAbsent(t *testing.T) {
	some := Some(decimal.RequireFromString("10.50"))
	v, ok := some.Get()
	assert.True(t, ok)
	assert.True(t, some.IsPresent())
	assert.True(t, v.Equal(decimal.RequireFromString("10.5")))

	none := None[decimal.Decimal]()
	_, ok = none.Get()
	assert.False(t, ok)
	assert.False(t, none.IsPresent())
	assert.True(t, none.OrElse(decimal.NewFromInt(7)).Equal(decimal.NewFromInt(7)))

	// The zero value is absent
	var zero Optional[int]
	assert.False(t, zero.IsPresent())
}

func TestOptional_JSON(t *testing.T) {
	type payload struct {
		Change Optional[decimal.Decimal] `json:"change"`
		Avg    Optional[decimal.Decimal] `json:"avg"`
	}

	in := payload{
		Change: Some(decimal.RequireFromString("-3.25")),
		Avg:    None[decimal.Decimal](),
	}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"change":"-3.25","avg":null}`, string(data))

	var out payload
	require.NoError(t, json.Unmarshal(data, &out))

	change, ok := out.Change.Get()
	assert.True(t, ok)
	assert.True(t, change.Equal(decimal.RequireFromString("-3.25")))
	assert.False(t, out.Avg.IsPresent())
}
