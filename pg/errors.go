package pg

import "errors"

var (
	ErrParseConfig = errors.New("pg: failed to parse connection config")
	ErrConnect     = errors.New("pg: failed to connect")
	ErrMigrate     = errors.New("pg: failed to apply migrations")
)
