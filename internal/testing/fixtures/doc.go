// Package fixtures creates users, events, participations and invites for
// acceptance tests.
//
// Entities are written through the repositories, so they come back exactly
// as the services will read them:
//
//	f := fixtures.New(tdb.DB)
//	host := f.CreateUser(t)
//	player := f.CreateUser(t, fixtures.WithSport("Tennis", "Beginner"), fixtures.WithAvailability("Saturday"))
//	event := f.CreateEvent(t, host, fixtures.ForSport("Tennis", "Beginner"), fixtures.WithSpots(2))
//	f.CreateParticipation(t, event, player)
//
// CreateParticipation bypasses the services and is only for arranging state;
// the behaviour under test should always go through the HTTP surface.
package fixtures
