// Package mongo provides a MongoDB-backed implementation of notify.Storage.
//
// Deliveries are claimed one at a time through FindOneAndUpdate, which is
// atomic per document, so multiple dispatcher instances can share a single
// database without double-sending.
//
// Usage:
//
//	var cfg mongo.Config
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//	db, err := mongo.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	storage := mongo.NewStorage(db)
//	if err := storage.EnsureIndexes(ctx); err != nil {
//		log.Fatal(err)
//	}
package mongo
