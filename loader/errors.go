package loader

import (
	"fmt"

	"github.com/hupe1980/scgo/model"
)

// ReadError wraps a store adapter failure with the path being read.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// DimensionMismatchError reports a dependent whose stored cell
// dimensionality disagrees with its owner assay's authoritative count.
type DimensionMismatchError struct {
	Family model.Family
	Name   string
	Assay  string
	Got    int
	Want   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s/%s: %d cells, owner assay %q has %d", e.Family, e.Name, e.Got, e.Assay, e.Want)
}
