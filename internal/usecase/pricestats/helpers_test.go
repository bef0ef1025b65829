package pricestats

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/essentialstracker/backend/internal/domain"
)

var essentialID = uuid.MustParse("11111111-1111-1111-1111-111111111111")

func obs(ts time.Time, price string) domain.Observation {
	return domain.Observation{
		ID:          uuid.New(),
		EssentialID: essentialID,
		Timestamp:   ts,
		Value:       decimal.RequireFromString(price),
	}
}

func shuffled(in []domain.Observation, seed int64) []domain.Observation {
	out := make([]domain.Observation, len(in))
	copy(out, in)
	rnd := rand.New(rand.NewSource(seed))
	rnd.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func assertPresent(t *testing.T, want string, got domain.Optional[decimal.Decimal], msgAndArgs ...interface{}) {
	t.Helper()
	v, ok := got.Get()
	if !assert.True(t, ok, msgAndArgs...) {
		return
	}
	assert.Equal(t, want, v.StringFixed(2), msgAndArgs...)
}

func assertAbsent(t *testing.T, got domain.Optional[decimal.Decimal], msgAndArgs ...interface{}) {
	t.Helper()
	assert.False(t, got.IsPresent(), msgAndArgs...)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2), msgAndArgs...)
}
