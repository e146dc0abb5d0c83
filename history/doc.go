// Package history records finished pipeline runs in the SQLite database
// opened by package database.
//
// Every run is stored once, after it reaches a terminal state, together
// with one row per executed stage. Failed runs keep their error code,
// message and failing stage so the CLI can list what went wrong without the
// original log output.
package history
