// Package matx provides the column-major matrix types shared by the
// gridder, FFT stage, statistics, labelling, and fitting packages.
//
// Grounded on sincDiffraction.go, which already flattens [][]complex128
// grids into column-major slices for BLAS-style calls (Flatten2D,
// explicit lda/ldb/ldc). gonum.org/v1/gonum/mat stores row-major
// internally and partitions poorly for the gridder's per-column write
// model, so the hot accumulation grids use this dedicated flat-slice
// type; mat.Dense is used instead wherever a true dense linear-algebra
// solve is needed (wproj's Hankel apply).
package matx

import "github.com/bob-anderson-ok/stpimage/stperr"

// Real is an N x N column-major real matrix: element (row, col) lives at
// Data[col*N+row].
type Real struct {
	N    int
	Data []float64
}

// NewReal allocates a zero-initialised N x N real matrix.
func NewReal(n int) *Real {
	return &Real{N: n, Data: make([]float64, n*n)}
}

func (m *Real) At(row, col int) float64 { return m.Data[col*m.N+row] }
func (m *Real) Set(row, col int, v float64) { m.Data[col*m.N+row] = v }
func (m *Real) Add(row, col int, v float64) { m.Data[col*m.N+row] += v }

// Complex is an N x N column-major complex matrix.
type Complex struct {
	N    int
	Data []complex128
}

// NewComplex allocates a zero-initialised N x N complex matrix.
func NewComplex(n int) *Complex {
	return &Complex{N: n, Data: make([]complex128, n*n)}
}

func (m *Complex) At(row, col int) complex128 { return m.Data[col*m.N+row] }
func (m *Complex) Set(row, col int, v complex128) { m.Data[col*m.N+row] = v }
func (m *Complex) Add(row, col int, v complex128) { m.Data[col*m.N+row] += v }

// Int is an N x N column-major integer matrix, used for label maps.
type Int struct {
	N    int
	Data []int
}

// NewInt allocates a zero-initialised N x N integer matrix.
func NewInt(n int) *Int {
	return &Int{N: n, Data: make([]int, n*n)}
}

func (m *Int) At(row, col int) int { return m.Data[col*m.N+row] }
func (m *Int) Set(row, col int, v int) { m.Data[col*m.N+row] = v }

// FromRows builds a Real matrix from a ragged-checked row-major [][]float64,
// the shape most callers (tests, fixtures) naturally produce.
func FromRows(rows [][]float64) (*Real, error) {
	n := len(rows)
	if n == 0 {
		return nil, stperr.New(stperr.InvalidInput, "empty matrix")
	}
	for _, r := range rows {
		if len(r) != n {
			return nil, stperr.New(stperr.InvalidInput, "matrix must be square")
		}
	}
	m := NewReal(n)
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			m.Set(row, col, rows[row][col])
		}
	}
	return m, nil
}

// ToRows renders a Real matrix back into row-major [][]float64, the shape
// most callers consume for display/serialisation at the module boundary.
func (m *Real) ToRows() [][]float64 {
	out := make([][]float64, m.N)
	for row := 0; row < m.N; row++ {
		out[row] = make([]float64, m.N)
		for col := 0; col < m.N; col++ {
			out[row][col] = m.At(row, col)
		}
	}
	return out
}
