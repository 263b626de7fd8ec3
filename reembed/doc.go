// Package reembed regenerates the embedding vectors of stored resources,
// typically after switching embedding models.
//
// Resources are streamed from the repository in batches. Each batch is
// embedded with retry and exponential backoff, requests are paced by a rate
// limiter, batches run concurrently on a worker pool and vectors are
// normalized to unit length before being written back.
package reembed
