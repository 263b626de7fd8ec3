package catalog

import "errors"

var (
	// ErrMalformedCatalog indicates a catalog source could not be parsed even after sanitizing.
	ErrMalformedCatalog = errors.New("malformed catalog source")
)
