// Package database provides a unified interface for connecting to the slip ledger.
//
// The ledger records every presigned post that was issued: its generated object key,
// bucket, and expiration. Two backends are supported:
//
//   - PostgreSQL: production backend using a pgx connection pool
//   - SQLite: single-node backend using modernc.org/sqlite (no cgo)
//
// # Usage
//
//	repo, cleanup, err := database.Open(ctx, database.Config{
//	    Type:   "sqlite",
//	    DSN:    "postsign.db",
//	    Tables: postsign.Tables{Slips: "upload_slips"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cleanup()
//
// Open automatically:
//   - Opens the database connection
//   - Runs schema migrations
//   - Validates the schema
//   - Returns a ready-to-use SlipRepo
//
// # Subpackages
//
//   - database/postgres: PostgreSQL implementation using pgx
//   - database/sqlite: SQLite implementation using modernc.org/sqlite
package database
