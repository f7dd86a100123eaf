package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDB struct {
	query string
	vars  map[string]interface{}
	err   error
}

func (r *recordingDB) Connect(ctx context.Context) error { return nil }
func (r *recordingDB) Close() error                      { return nil }
func (r *recordingDB) Ping(ctx context.Context) error    { return nil }

func (r *recordingDB) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	r.query = query
	r.vars = vars
	return nil, r.err
}

func (r *recordingDB) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	_, err := r.Query(ctx, query, vars)
	return nil, err
}

func (r *recordingDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	_, err := r.Query(ctx, query, vars)
	return err
}

func TestTxBuilder_NamespacesVariablesPerStatement(t *testing.T) {
	t.Parallel()

	tb := NewTxBuilder()
	first := tb.Add("UPDATE type::record($event_id) SET taken_spots = $taken", map[string]interface{}{
		"event_id": "event:a",
		"taken":    3,
	})
	second := tb.Add("DELETE type::record($event_id)", map[string]interface{}{
		"event_id": "participation:b",
	})

	assert.NotEqual(t, first["event_id"], second["event_id"])

	query, vars := tb.Build()
	assert.True(t, strings.HasPrefix(query, "BEGIN TRANSACTION;\n"))
	assert.True(t, strings.HasSuffix(query, "COMMIT TRANSACTION;"))
	assert.Equal(t, "event:a", vars[first["event_id"]])
	assert.Equal(t, 3, vars[first["taken"]])
	assert.Equal(t, "participation:b", vars[second["event_id"]])
	assert.NotContains(t, query, "$event_id")
}

func TestTxBuilder_DoesNotRewritePrefixOfLongerVariable(t *testing.T) {
	t.Parallel()

	tb := NewTxBuilder()
	mapping := tb.Add("SELECT * FROM participation WHERE event = $event AND user = $event_user", map[string]interface{}{
		"event": "event:a",
	})

	query, _ := tb.Build()
	assert.Contains(t, query, "$"+mapping["event"]+" AND")
	assert.Contains(t, query, "$event_user")
}

func TestTxBuilder_EmptyBuildsNothing(t *testing.T) {
	t.Parallel()

	query, vars := NewTxBuilder().Build()
	assert.Empty(t, query)
	assert.Nil(t, vars)
}

func TestTxBuilder_RawStatementKeptVerbatim(t *testing.T) {
	t.Parallel()

	tb := NewTxBuilder()
	tb.AddRaw(`THROW "version_conflict"`)
	query, _ := tb.Build()
	assert.Contains(t, query, "THROW \"version_conflict\";\n")
	assert.Equal(t, 1, tb.Len())
}

func TestAtomicBatch_ExecutesOneScript(t *testing.T) {
	t.Parallel()

	db := &recordingDB{}
	err := NewAtomicBatch().
		Add("DELETE type::record($id)", map[string]interface{}{"id": "invite:1"}).
		Add("DELETE type::record($id)", map[string]interface{}{"id": "invite:2"}).
		Execute(context.Background(), db)
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(db.query, "DELETE"))
	assert.Len(t, db.vars, 2)
}

func TestAtomicBatch_EmptyDoesNotQuery(t *testing.T) {
	t.Parallel()

	db := &recordingDB{}
	require.NoError(t, NewAtomicBatch().Execute(context.Background(), db))
	assert.Empty(t, db.query)
}

func TestAtomicBatch_PropagatesError(t *testing.T) {
	t.Parallel()

	db := &recordingDB{err: ErrConflict}
	err := NewAtomicBatch().Add("UPDATE x", nil).Execute(context.Background(), db)
	assert.True(t, errors.Is(err, ErrConflict))
}
