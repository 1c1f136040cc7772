package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTridiagonal(t *testing.T) {
	// [2 1 0; 1 2 1; 0 1 2] x = [4 8 8] -> x = [1 2 3]
	m, err := NewTridiagonal(
		[]float64{0, 1, 1},
		[]float64{2, 2, 2},
		[]float64{1, 1, 0},
	)
	require.NoError(t, err)
	defer m.Destroy()
	assert.Equal(t, 3, m.Size)

	for i, b := range []float64{4, 8, 8} {
		require.NoError(t, m.SetRHS(i+1, b))
	}
	x, err := m.Solve()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(x), 4)
	assert.InDelta(t, 1.0, x[1], 1e-12)
	assert.InDelta(t, 2.0, x[2], 1e-12)
	assert.InDelta(t, 3.0, x[3], 1e-12)
}

func TestNewTridiagonal_BadBands(t *testing.T) {
	_, err := NewTridiagonal([]float64{0}, []float64{1, 2}, []float64{0, 0})
	assert.Error(t, err)

	_, err = NewTridiagonal(nil, nil, nil)
	assert.Error(t, err)
}

func TestMatrix_ReuseFactorization(t *testing.T) {
	m, err := New(2)
	require.NoError(t, err)
	defer m.Destroy()

	require.NoError(t, m.AddElement(1, 1, 4))
	require.NoError(t, m.AddElement(2, 2, 2))

	require.NoError(t, m.SetRHS(1, 8))
	require.NoError(t, m.SetRHS(2, 2))
	x, err := m.Solve()
	require.NoError(t, err)
	assert.InDelta(t, 2.0, x[1], 1e-12)
	assert.InDelta(t, 1.0, x[2], 1e-12)

	m.ClearRHS()
	require.NoError(t, m.SetRHS(1, 4))
	x, err = m.Solve()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, x[1], 1e-12)
	assert.InDelta(t, 0.0, x[2], 1e-12)
}

func TestMatrix_Bounds(t *testing.T) {
	_, err := New(0)
	assert.Error(t, err)

	m, err := New(1)
	require.NoError(t, err)
	defer m.Destroy()
	assert.Error(t, m.AddElement(2, 1, 1))
	assert.Error(t, m.SetRHS(0, 1))
}
