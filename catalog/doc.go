// Package catalog holds the in-memory resource catalog and its loaders.
//
// Resources come from a static JSON-like file (comment lines and trailing
// commas tolerated) or from a storage.ResourceRepository. Records without a
// service name are skipped and counted, never fatal.
package catalog
