// Package database provides the SQLite connection behind the chat
// transcript store.
//
// It manages:
//   - Connection setup with WAL mode and a busy timeout
//   - Embedded schema migrations (see the migrations package)
//   - Lifecycle and health checks
//
// All queries use parameterised statements and the database file is
// created with 0600 permissions.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.{up,down}.sql and
// are applied in version order, each in its own transaction.
package database
