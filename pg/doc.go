// Package pg implements notify.Storage on PostgreSQL using pgx.
//
// The concurrency-critical claim step runs as a single statement, an
// UPDATE over a FOR UPDATE SKIP LOCKED subselect, so any number of
// dispatcher instances can share one deliveries table without ever
// double-claiming a row. Status transitions are conditional updates
// (WHERE status = 'processing'), which makes the pending → sent|failed
// lifecycle enforceable at the storage layer rather than by convention.
//
// Schema migrations are embedded and applied with goose:
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil { … }
//	if err := pg.Migrate(ctx, pool); err != nil { … }
//	storage := pg.NewStorageFromPool(pool)
package pg
