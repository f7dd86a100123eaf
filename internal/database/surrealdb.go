package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
)

// SurrealDB implements the Database interface for SurrealDB
type SurrealDB struct {
	db     *surrealdb.DB
	config Config
}

// NewSurrealDB creates a new SurrealDB instance
func NewSurrealDB(cfg Config) *SurrealDB {
	return &SurrealDB{
		config: cfg,
	}
}

// Connect establishes a connection to SurrealDB
func (s *SurrealDB) Connect(ctx context.Context) error {
	endpoint := fmt.Sprintf("ws://%s:%s", s.config.Host, s.config.Port)

	db, err := surrealdb.FromEndpointURLString(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	_, err = db.SignIn(ctx, &surrealdb.Auth{
		Username: s.config.User,
		Password: s.config.Password,
	})
	if err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: signin failed: %v", ErrConnection, err)
	}

	if err := db.Use(ctx, s.config.Namespace, s.config.Database); err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: use failed: %v", ErrConnection, err)
	}

	s.db = db
	return nil
}

// Close closes the database connection
func (s *SurrealDB) Close() error {
	if s.db != nil {
		return s.db.Close(context.Background())
	}
	return nil
}

// Ping checks the database connection
func (s *SurrealDB) Ping(ctx context.Context) error {
	if s.db == nil {
		return ErrConnection
	}
	if _, err := s.db.Version(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// Query executes a query and returns one {status, result} entry per statement.
// A failed statement fails the whole call; guarded transactions that were
// cancelled by ConflictMarker report ErrConflict.
func (s *SurrealDB) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	if s.db == nil {
		return nil, ErrConnection
	}

	results, err := surrealdb.Query[interface{}](ctx, s.db, query, vars)
	if err != nil {
		return nil, classifyError(err.Error())
	}
	if results == nil {
		return nil, nil
	}

	// Scan every statement first: in a cancelled transaction the THROW is not
	// necessarily the first failing statement.
	var messages []string
	for _, r := range *results {
		if r.Status == "OK" {
			continue
		}
		if r.Error != nil {
			messages = append(messages, r.Error.Message)
		} else {
			messages = append(messages, r.Status)
		}
	}
	if len(messages) > 0 {
		return nil, classifyError(strings.Join(messages, "; "))
	}

	output := make([]interface{}, 0, len(*results))
	for _, r := range *results {
		output = append(output, map[string]interface{}{
			"status": r.Status,
			"result": r.Result,
		})
	}

	return output, nil
}

// QueryOne executes a query and returns a single result
func (s *SurrealDB) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	results, err := s.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	return FirstRecord(results)
}

// Execute runs a query without returning results
func (s *SurrealDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	_, err := s.Query(ctx, query, vars)
	return err
}

// FirstRecord unwraps the first record of the first statement result.
// Scalar results are returned as-is.
func FirstRecord(results []interface{}) (interface{}, error) {
	if len(results) == 0 {
		return nil, ErrNotFound
	}

	first := results[0]
	if resp, ok := first.(map[string]interface{}); ok {
		if status, ok := resp["status"].(string); ok && status == "OK" {
			if resultData, ok := resp["result"].([]interface{}); ok {
				if len(resultData) == 0 {
					return nil, ErrNotFound
				}
				return resultData[0], nil
			}
			if resp["result"] == nil {
				return nil, ErrNotFound
			}
			return resp["result"], nil
		}
	}

	return first, nil
}

// StatementRecords returns the records produced by statement i of a script
func StatementRecords(results []interface{}, i int) []interface{} {
	if i < 0 || i >= len(results) {
		return nil
	}
	resp, ok := results[i].(map[string]interface{})
	if !ok {
		return nil
	}
	switch v := resp["result"].(type) {
	case []interface{}:
		return v
	case nil:
		return nil
	default:
		return []interface{}{v}
	}
}

// classifyError maps a SurrealDB error message onto the package sentinels
func classifyError(msg string) error {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, ConflictMarker),
		strings.Contains(lower, "can be retried"):
		// the storage engine rejects overlapping writers the same way
		return fmt.Errorf("%w: %s", ErrConflict, msg)
	case strings.Contains(lower, "already contains"),
		strings.Contains(lower, "unique"),
		strings.Contains(lower, "duplicate"),
		strings.Contains(lower, "already exists"):
		return fmt.Errorf("%w: %s", ErrDuplicate, msg)
	case strings.Contains(lower, "connection"),
		strings.Contains(lower, "websocket"):
		return fmt.Errorf("%w: %s", ErrConnection, msg)
	}
	return fmt.Errorf("%w: %s", ErrQuery, msg)
}
