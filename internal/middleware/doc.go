// Package middleware provides HTTP middleware for the Rally API.
//
// Middleware is composed with Chain, outermost first:
//
//	h := middleware.Chain(mux,
//	    middleware.Recovery,
//	    middleware.RequestID,
//	    middleware.Logger,
//	    middleware.CORS(cfg.Server.AllowedOrigins),
//	)
//
// Auth wraps the routes that need a caller. It validates the bearer token
// and handlers read the caller back with GetUserID(r.Context()).
package middleware
