// Package cli implements the omnisyncra command line interface.
//
// Every command operates on the locally configured replica: it loads the
// CUE config, opens the durable store, recovers the replication manager,
// runs one operation, and persists on the way out. Output honors the
// global --format flag so scripts can consume JSON while humans read
// text; diagnostics go to stderr to keep JSON output parseable.
package cli
