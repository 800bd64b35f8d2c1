package model

import (
	"fmt"
)

// Family identifies a top-level component family of a container.
type Family uint8

const (
	// FamilyAssay is a measurement set with one or more layered matrices.
	FamilyAssay Family = iota
	// FamilyReduction is a dimensional reduction derived from an assay.
	FamilyReduction
	// FamilyGraph is a cell-cell neighbor graph tied to an assay.
	FamilyGraph
	// FamilyImage is a spatial image overlay, global by default.
	FamilyImage
)

// String returns the family root name as stored in the container hierarchy.
func (f Family) String() string {
	switch f {
	case FamilyAssay:
		return "assays"
	case FamilyReduction:
		return "reductions"
	case FamilyGraph:
		return "graphs"
	case FamilyImage:
		return "images"
	default:
		return fmt.Sprintf("family(%d)", uint8(f))
	}
}

// Matrix is a dense, row-major 2D matrix with optional axis names.
//
// Orientation is component-specific: assay layers are feature x cell,
// reduction embeddings are cell x component.
type Matrix struct {
	Rows     int       `json:"rows"`
	Cols     int       `json:"cols"`
	RowNames []string  `json:"row_names,omitempty"`
	ColNames []string  `json:"col_names,omitempty"`
	Values   []float64 `json:"values"`
}

// Validate checks internal consistency of the matrix shape.
func (m *Matrix) Validate() error {
	if m.Rows < 0 || m.Cols < 0 {
		return fmt.Errorf("matrix: negative shape %dx%d", m.Rows, m.Cols)
	}
	if len(m.Values) != m.Rows*m.Cols {
		return fmt.Errorf("matrix: %dx%d needs %d values, got %d", m.Rows, m.Cols, m.Rows*m.Cols, len(m.Values))
	}
	if m.RowNames != nil && len(m.RowNames) != m.Rows {
		return fmt.Errorf("matrix: %d row names for %d rows", len(m.RowNames), m.Rows)
	}
	if m.ColNames != nil && len(m.ColNames) != m.Cols {
		return fmt.Errorf("matrix: %d col names for %d cols", len(m.ColNames), m.Cols)
	}
	return nil
}

// At returns the value at row i, column j.
func (m *Matrix) At(i, j int) float64 {
	return m.Values[i*m.Cols+j]
}

// SparseMatrix is a 2D matrix in compressed sparse row (CSR) form.
// Indptr has Rows+1 entries; row i spans Indices[Indptr[i]:Indptr[i+1]].
type SparseMatrix struct {
	Rows    int       `json:"rows"`
	Cols    int       `json:"cols"`
	Indptr  []int64   `json:"indptr"`
	Indices []int32   `json:"indices"`
	Values  []float64 `json:"values"`
}

// Validate checks internal consistency of the CSR structure.
func (s *SparseMatrix) Validate() error {
	if s.Rows < 0 || s.Cols < 0 {
		return fmt.Errorf("sparse: negative shape %dx%d", s.Rows, s.Cols)
	}
	if len(s.Indptr) != s.Rows+1 {
		return fmt.Errorf("sparse: indptr length %d for %d rows", len(s.Indptr), s.Rows)
	}
	if len(s.Indices) != len(s.Values) {
		return fmt.Errorf("sparse: %d indices vs %d values", len(s.Indices), len(s.Values))
	}
	if s.Rows > 0 {
		if s.Indptr[0] != 0 || s.Indptr[s.Rows] != int64(len(s.Indices)) {
			return fmt.Errorf("sparse: indptr bounds [%d,%d] for %d entries", s.Indptr[0], s.Indptr[s.Rows], len(s.Indices))
		}
	}
	for i := 0; i < s.Rows; i++ {
		if s.Indptr[i] > s.Indptr[i+1] {
			return fmt.Errorf("sparse: indptr not monotonic at row %d", i)
		}
	}
	for _, j := range s.Indices {
		if int(j) < 0 || int(j) >= s.Cols {
			return fmt.Errorf("sparse: column index %d out of range [0,%d)", j, s.Cols)
		}
	}
	return nil
}

// Row returns the column indices and values of row i.
// The returned slices alias the matrix and must not be mutated.
func (s *SparseMatrix) Row(i int) ([]int32, []float64) {
	lo, hi := s.Indptr[i], s.Indptr[i+1]
	return s.Indices[lo:hi], s.Values[lo:hi]
}
