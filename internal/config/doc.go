// Package config loads and validates node configuration.
//
// Configuration is written in CUE and checked against an embedded schema
// before anything touches it: required fields, the closed set of store
// backends, and value constraints are all enforced by the schema rather
// than by ad hoc Go checks, so a bad config fails at load with a position
// in the user's file.
package config
