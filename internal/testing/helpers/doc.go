// Package helpers holds request builders and assertions shared by the
// acceptance tests.
//
// Requests are authenticated with tokens from a JWTHelper, whose Service is
// also the verifier passed to the auth middleware of the server under test:
//
//	jwtHelper := helpers.NewJWTHelper(t)
//	req := helpers.NewRequest(t, http.MethodPost, "/v1/events/"+id+"/join").
//	    WithAuth(jwtHelper, user).
//	    Build()
//
// Error responses are checked against their problem code:
//
//	helpers.AssertProblemDetails(t, rr, http.StatusConflict, model.ErrCodeCapacityExceeded)
package helpers
