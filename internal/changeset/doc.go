// Package changeset persists pending change records as individual YAML files
// in the project's changeset directory.
//
// Each record is written once by Create, optionally rewritten by Edit, and
// removed either individually or in bulk when its release has been committed
// (Consume). Record ids are word triples (adjective-noun-verb) drawn at random
// and retried against the directory until unique.
//
// Listing never fails because of a single bad record: structurally invalid
// files are reported through the store's warning writer and skipped.
package changeset
