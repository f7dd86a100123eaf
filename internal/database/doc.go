// Package database provides the SurrealDB access layer for Rally.
//
// The Database interface has three query methods:
//   - Query: one {status, result} entry per statement in the script
//   - QueryOne: first record of the first statement, ErrNotFound if empty
//   - Execute: mutations where the result is not needed
//
// # Transactions
//
// Transactions are script based. TxBuilder accumulates statements, namespaces
// their variables and wraps them in BEGIN TRANSACTION / COMMIT TRANSACTION so
// the whole script runs atomically on the server. A statement may THROW
// ConflictMarker to cancel the transaction; the driver reports that as
// ErrConflict so callers can re-read and retry:
//
//	tb := database.NewTxBuilder()
//	tb.Add(`IF (SELECT VALUE version FROM ONLY type::record($id)) != $expected { THROW "version_conflict" }`, vars)
//	tb.Add(`UPDATE type::record($id) SET version += 1`, vars)
//	_, err := database.ExecuteTransaction(ctx, db, tb)
//	if errors.Is(err, database.ErrConflict) {
//	    // reload and try again
//	}
//
// # Errors
//
// ErrNotFound, ErrDuplicate (unique index), ErrConflict (guard failed),
// ErrConnection and ErrQuery are matched with errors.Is.
package database
