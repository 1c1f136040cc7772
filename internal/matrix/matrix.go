// Package matrix wraps the sparse LU solver for the banded systems used when
// resampling waveforms.
package matrix

import (
	"fmt"

	"github.com/edp1096/sparse"
)

// Matrix is a real square system A·x = b with 1-based indexing.
type Matrix struct {
	Size     int
	matrix   *sparse.Matrix
	rhs      []float64
	factored bool
}

func New(size int) (*Matrix, error) {
	if size <= 0 {
		return nil, fmt.Errorf("matrix size must be positive, got %d", size)
	}

	config := &sparse.Configuration{
		Real:                    true,
		Complex:                 false,
		SeparatedComplexVectors: false,
		Expandable:              true,
		Translate:               false,
		ModifiedNodal:           false,
		TiesMultiplier:          5,
		PrinterWidth:            140,
		Annotate:                0,
	}

	mat, err := sparse.Create(int64(size), config)
	if err != nil {
		return nil, fmt.Errorf("creating sparse matrix: %v", err)
	}

	return &Matrix{
		Size:   size,
		matrix: mat,
		rhs:    make([]float64, size+1), // 1-based indexing
	}, nil
}

func (m *Matrix) AddElement(i, j int, value float64) error {
	if i <= 0 || j <= 0 || i > m.Size || j > m.Size {
		return fmt.Errorf("matrix index out of bounds (i=%d, j=%d, size=%d)", i, j, m.Size)
	}
	m.matrix.GetElement(int64(i), int64(j)).Real += value
	m.factored = false
	return nil
}

func (m *Matrix) SetRHS(i int, value float64) error {
	if i <= 0 || i > m.Size {
		return fmt.Errorf("RHS index out of bounds (i=%d, size=%d)", i, m.Size)
	}
	m.rhs[i] = value
	return nil
}

func (m *Matrix) ClearRHS() {
	for i := range m.rhs {
		m.rhs[i] = 0
	}
}

// Solve factors A on first use and solves for the current right-hand side.
// The factorization is reused until AddElement changes A.
func (m *Matrix) Solve() ([]float64, error) {
	if !m.factored {
		if err := m.matrix.Factor(); err != nil {
			return nil, fmt.Errorf("matrix factorization failed: %v", err)
		}
		m.factored = true
	}

	solution, err := m.matrix.Solve(m.rhs)
	if err != nil {
		return nil, fmt.Errorf("matrix solve failed: %v", err)
	}
	return solution, nil
}

func (m *Matrix) Destroy() {
	if m.matrix != nil {
		m.matrix.Destroy()
		m.matrix = nil
	}
}

// NewTridiagonal assembles a system from its sub-, main and super-diagonals
// (lower[0] and upper[n-1] are ignored). Set the right-hand side and call
// Solve as for any Matrix.
func NewTridiagonal(lower, diag, upper []float64) (*Matrix, error) {
	n := len(diag)
	if len(lower) != n || len(upper) != n {
		return nil, fmt.Errorf("tridiagonal bands have lengths %d/%d/%d", len(lower), n, len(upper))
	}

	m, err := New(n)
	if err != nil {
		return nil, err
	}
	for i := 1; i <= n; i++ {
		if i > 1 {
			m.matrix.GetElement(int64(i), int64(i-1)).Real += lower[i-1]
		}
		m.matrix.GetElement(int64(i), int64(i)).Real += diag[i-1]
		if i < n {
			m.matrix.GetElement(int64(i), int64(i+1)).Real += upper[i-1]
		}
	}
	return m, nil
}
