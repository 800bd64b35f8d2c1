package scgo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/scgo/catalog"
	"github.com/hupe1980/scgo/loader"
	"github.com/hupe1980/scgo/request"
)

var (
	// ErrUnknownIdentifier is returned when a request names a component
	// absent from the container's catalog.
	ErrUnknownIdentifier = errors.New("unknown identifier")

	// ErrUnresolvedDependency is returned when a non-global dependent is
	// requested without its owner assay being selected or present.
	ErrUnresolvedDependency = errors.New("unresolved dependency")

	// ErrNoDimensionSource is returned when a selected assay resolves no
	// dimension-defining layer.
	ErrNoDimensionSource = errors.New("no dimension source")

	// ErrDimensionMismatch is returned when a stored component disagrees
	// with its owner assay's cell dimensionality.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrCatalogCorrupt is returned when container metadata is malformed.
	ErrCatalogCorrupt = errors.New("catalog corrupt")

	// ErrStoreRead wraps store adapter failures.
	ErrStoreRead = errors.New("store read failed")

	// ErrClosed is returned when the connection has been closed.
	ErrClosed = errors.New("connection closed")
)

// translateError attaches root sentinels to typed errors from inner
// packages so callers can use errors.Is at the API boundary and errors.As
// for details.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var unknown *request.UnknownIdentifierError
	if errors.As(err, &unknown) {
		return fmt.Errorf("%w: %w", ErrUnknownIdentifier, err)
	}
	var unresolved *request.UnresolvedDependencyError
	if errors.As(err, &unresolved) {
		return fmt.Errorf("%w: %w", ErrUnresolvedDependency, err)
	}
	if errors.Is(err, request.ErrNoDimensionSource) {
		return fmt.Errorf("%w: %w", ErrNoDimensionSource, err)
	}

	var mismatch *loader.DimensionMismatchError
	if errors.As(err, &mismatch) {
		return fmt.Errorf("%w: %w", ErrDimensionMismatch, err)
	}
	var read *loader.ReadError
	if errors.As(err, &read) {
		return fmt.Errorf("%w: %w", ErrStoreRead, err)
	}

	var corrupt *catalog.CorruptError
	if errors.As(err, &corrupt) {
		return fmt.Errorf("%w: %w", ErrCatalogCorrupt, err)
	}

	return err
}
