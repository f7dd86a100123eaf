// Package jwt verifies and issues the RS256 bearer tokens used by the Rally API.
//
// The API never authenticates users itself: an external auth provider issues
// tokens whose subject is the user id. The server only needs the provider's
// public key:
//
//	svc, err := jwt.NewService(jwt.Config{
//	    PublicKeyPath: "./keys/public.pem",
//	    Issuer:        "rally.forgo.software",
//	})
//
//	claims, err := svc.Validate(tokenString)
//	userID := claims.UserID()
//
// With a private key the service can also sign tokens, which the devtoken
// command uses for local development.
package jwt
