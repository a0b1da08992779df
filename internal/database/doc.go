// Package database stores the run history of Prism in SQLite.
//
// Every orchestrated run is saved with its summary and the artifacts it
// produced, so `prism history` can show what was generated, when, and from
// which settings file. The driver is modernc.org/sqlite, which needs no cgo,
// and the database is a single file in the XDG data directory.
package database
