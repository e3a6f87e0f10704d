// Package pool provides the fixed worker pool that runs the concurrent
// reduction rounds.
//
// Work is submitted as closures. Dispatch splits a column range into batches,
// submits one closure per batch and blocks until every batch has finished,
// which is the join barrier between reduction rounds.
package pool
