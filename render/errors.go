package render

import "errors"

var (
	// ErrInvalidCatalog is returned when a YAML template catalog cannot be
	// parsed or contains malformed entries.
	ErrInvalidCatalog = errors.New("render: invalid template catalog")
)
