// Package ingestion imports catalog resources into the document store.
//
// The Importer upserts resources keyed by the content hash of their
// normalized service name, so importing the same file twice is idempotent.
// It reports how many records were created, updated, skipped or rejected and
// which fields were missing. When an embedder is configured, written
// resources are embedded concurrently on a worker pool.
package ingestion
