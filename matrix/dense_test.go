// SPDX-License-Identifier: MIT

package matrix_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/depdual/matrix"
)

// TestNewDense_InvalidDimensions verifies the shape guard of the constructor.
func TestNewDense_InvalidDimensions(t *testing.T) {
	_, err := matrix.NewDense(0, 3)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)

	_, err = matrix.NewDense(3, -1)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)
}

// TestDense_AtSet covers the happy path and the out-of-range path.
func TestDense_AtSet(t *testing.T) {
	m, err := matrix.NewDense(2, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Rows())
	assert.Equal(t, 3, m.Cols())

	require.NoError(t, m.Set(1, 2, 4.5))
	v, err := m.At(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 4.5, v)

	_, err = m.At(2, 0)
	assert.ErrorIs(t, err, matrix.ErrOutOfRange)
	assert.ErrorIs(t, m.Set(0, 3, 1), matrix.ErrOutOfRange)
}

// TestDense_NumericPolicy checks that -Inf is legal and NaN/+Inf are not.
func TestDense_NumericPolicy(t *testing.T) {
	m, err := matrix.NewDense(2, 2)
	require.NoError(t, err)

	require.NoError(t, m.Set(0, 1, math.Inf(-1)))
	assert.ErrorIs(t, m.Set(0, 1, math.NaN()), matrix.ErrNaN)
	assert.ErrorIs(t, m.Set(0, 1, math.Inf(1)), matrix.ErrPositiveInf)

	// The rejected writes must not have clobbered the stored value.
	v, err := m.At(0, 1)
	require.NoError(t, err)
	assert.True(t, math.IsInf(v, -1))
}

// TestNewDenseFrom copies rows and rejects ragged input.
func TestNewDenseFrom(t *testing.T) {
	src := [][]float64{{0, 1}, {2, 3}}
	m, err := matrix.NewDenseFrom(src)
	require.NoError(t, err)

	src[0][1] = 99 // mutation of the source must not leak into m
	v, _ := m.At(0, 1)
	assert.Equal(t, 1.0, v)

	_, err = matrix.NewDenseFrom([][]float64{{0, 1}, {2}})
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)

	_, err = matrix.NewDenseFrom(nil)
	assert.ErrorIs(t, err, matrix.ErrInvalidDimensions)

	_, err = matrix.NewDenseFrom([][]float64{{0, math.NaN()}, {0, 0}})
	assert.True(t, errors.Is(err, matrix.ErrNaN))
}

// TestDense_Clone ensures deep-copy semantics.
func TestDense_Clone(t *testing.T) {
	m, _ := matrix.NewDenseFrom([][]float64{{1, 2}, {3, 4}})
	c := m.Clone()
	require.NoError(t, c.Set(0, 0, 10))

	v, _ := m.At(0, 0)
	assert.Equal(t, 1.0, v)
	assert.Equal(t, "[1, 2]\n[3, 4]\n", m.String())
}

// TestValidateScores covers the composite validator.
func TestValidateScores(t *testing.T) {
	assert.ErrorIs(t, matrix.ValidateScores(nil), matrix.ErrNilMatrix)

	rect, _ := matrix.NewDense(2, 3)
	assert.ErrorIs(t, matrix.ValidateScores(rect), matrix.ErrNonSquare)

	ok, _ := matrix.NewDenseFrom([][]float64{
		{0, 1, math.Inf(-1)},
		{math.Inf(-1), 0, 2},
		{math.Inf(-1), 3, 0},
	})
	assert.NoError(t, matrix.ValidateScores(ok))
}
