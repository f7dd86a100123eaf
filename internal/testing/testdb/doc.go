// Package testdb runs acceptance tests against a real SurrealDB.
//
// Every TestDB lives in a namespace of its own with the migrations from
// migrations/ applied, so tests can run side by side:
//
//	tdb := testdb.New(t)
//	defer tdb.Close()
//
// The server address comes from TEST_DB_HOST, TEST_DB_PORT, TEST_DB_USER and
// TEST_DB_PASSWORD. Tests are skipped when no server answers, unless
// TEST_DB_REQUIRED is set. When tests run outside the module tree, RALLY_ROOT points
// at the checkout so the migrations can be found.
package testdb
