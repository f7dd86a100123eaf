// Package handler provides HTTP request handlers for the Rally API.
//
// Each handler depends on a small interface describing the service calls it
// makes, so handlers can be tested with fakes. Routes are registered with
// RegisterRoutes on a net/http ServeMux, each wrapped in the auth middleware.
//
// # Response Format
//
//   - WriteData: single resource with optional HATEOAS links
//   - WriteCollection: list of resources with a count
//   - WriteError: RFC 9457 Problem Details, with a Retry-After header when the
//     problem carries a retry hint
//
// # Errors
//
// Service errors are translated in one place by MapServiceError. Refused
// participation changes (capacity, double join, check-in window, answered
// invites, contention) are 409 problems with a 35xx code; a check-in that is
// not open yet also reports how many seconds to wait.
package handler
