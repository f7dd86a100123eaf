// Package model defines domain entities and data structures for the Rally API.
//
// # Domain Entities
//
//   - Event: a scheduled sports activity with Spots and TakenSpots
//   - Participation: one user's membership in one event, with check-in state
//   - Invite: an offer from an event creator to a user, pending until answered
//   - User: the profile fields the eligibility matcher reads
//   - LikedEvent: an event a user saved for later
//
// # Participation Changes
//
// EventSnapshot and EventMutation describe one optimistic read-modify-write
// of an event: the snapshot is read at Event.Version, the mutation is only
// applied if the stored version still matches.
//
// # Error Responses
//
// ProblemDetails implements RFC 9457 and is written by the handler layer.
package model
