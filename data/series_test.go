package data

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestNewSeries(t *testing.T) {
	assert := assert.New(t)

	y := []float64{1.0, math.NaN(), 3.0}
	s := NewSeries(y)
	assert.Equal(3, s.Len())
	assert.Equal(1.0, s.Get(0))
	assert.True(s.IsMissing(1))
	assert.False(s.IsMissing(2))
	assert.Nil(s.InitialState())
	assert.Equal(1, s.MissingCount())

	// values are copied
	y[0] = 10.0
	assert.Equal(1.0, s.Get(0))
}

func TestNewSeriesWithState(t *testing.T) {
	assert := assert.New(t)

	s, err := NewSeriesWithState([]float64{1.0}, mat.NewVecDense(2, []float64{0.5, 0.6}))
	assert.NoError(err)
	assert.NotNil(s)
	assert.Equal(2, s.InitialState().Len())
	assert.Equal(0.6, s.InitialState().AtVec(1))

	s, err = NewSeriesWithState([]float64{1.0}, nil)
	assert.Error(err)
	assert.Nil(s)
}

func TestSetMissing(t *testing.T) {
	assert := assert.New(t)

	s := NewSeries([]float64{1.0, 2.0, 3.0})
	assert.NoError(s.SetMissing(0, 2))
	assert.Equal(2, s.MissingCount())
	assert.True(s.IsMissing(0))
	assert.True(s.IsMissing(2))

	assert.Error(s.SetMissing(3))
	assert.Error(s.SetMissing(-1))

	v := s.Values()
	v[1] = 5.0
	assert.Equal(2.0, s.Get(1))
}
