package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIsDeterministic(t *testing.T) {
	a, b := New(42), New(42)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
	assert.Equal(t, New(0).Int63(), New(1).Int63(), "zero seed maps to 1")
}

func TestScriptCycles(t *testing.T) {
	s := NewScript(0.1, 0.9)
	assert.Equal(t, []float64{0.1, 0.9, 0.1}, []float64{s.Float64(), s.Float64(), s.Float64()})

	s = NewScript(0.5, 0.999999, 0)
	assert.Equal(t, 5, s.Intn(10))
	assert.Equal(t, 9, s.Intn(10))
	assert.Equal(t, 0, s.Intn(10))
	assert.Panics(t, func() { s.Intn(0) })

	assert.Zero(t, NewScript().Float64())
}
