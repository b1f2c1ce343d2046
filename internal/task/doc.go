// Package task provides background task processing over an in-memory
// queue with a fixed worker pool.
//
// The only task type today is the learner-profile recompute, scheduled
// after note mutations. Tasks are idempotent and re-derivable from store
// state, so the runner keeps no persistence and performs no crash
// recovery.
package task
