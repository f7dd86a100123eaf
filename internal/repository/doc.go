// Package repository implements the SurrealDB data access layer for Rally.
//
// Each repository wraps a database.Database and owns the SurrealQL for one
// aggregate: events (and likes), participation records, invites and users.
//
// # Conventions
//
//   - Constructors are NewXxxRepository(db database.Database)
//   - Get returns (nil, nil) when the record does not exist
//   - Ids are "table:key" strings; bare keys are qualified with their table
//   - Record links (event, user, invitee, ...) are written with type::record()
//   - Server timestamps come from time::now()
//
// # Participation Commits
//
// ParticipationRepository.Apply is the only writer of Event.TakenSpots and of
// participation records. It runs one transaction that first re-checks the
// event version (and the invite status when accepting) and THROWs
// database.ConflictMarker if either moved, so the caller can reload and retry.
package repository
