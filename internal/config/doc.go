// Package config manages application configuration for the Rally API.
//
// Configuration comes from environment variables. A .env file in the working
// directory is loaded first when present, without overriding variables that
// are already set:
//
//	cfg, err := config.Load()
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
//
// # Configuration Groups
//
//   - ServerConfig: HTTP server settings (port, timeouts, CORS origins)
//   - DatabaseConfig: SurrealDB connection settings
//   - JWTConfig: token verification and signing keys
//   - ParticipationConfig: commit retries, check-in window, skill matching
//   - JobsConfig: background job schedule
//
// # Environment Variables
//
//	SERVER_PORT                        - HTTP server port (default: 8080)
//	SERVER_ENV                         - development, production or test
//	DB_HOST, DB_PORT                   - SurrealDB address
//	DB_NAMESPACE, DB_DATABASE          - SurrealDB namespace and database
//	JWT_PUBLIC_KEY_PATH                - PEM public key used to verify tokens
//	PARTICIPATION_MAX_COMMIT_ATTEMPTS  - optimistic retries per change (default: 8)
//	PARTICIPATION_CHECKIN_LEAD         - check-in opens this long before start (default: 15m)
//	PARTICIPATION_CHECKIN_GRACE        - check-in closes this long after start (default: never)
//	PARTICIPATION_ENFORCE_SKILL_MATCH  - also match on skill level (default: false)
//	JOBS_INVITE_EXPIRY_INTERVAL        - how often stale invites are declined (default: 5m)
//	LOG_LEVEL                          - debug, info, warn or error
package config
