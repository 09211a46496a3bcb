// Package expiration provides the TTL scheduler of the identity cache.
//
// A Scheduler keeps at most one pending one-shot task per key in a delay queue
// ordered by deadline. A single background goroutine sleeps until the earliest
// deadline and hands expired tasks to the expire callback, one at a time.
//
// Scheduling a key that already has a pending task replaces that task. Every task
// carries a Token, so the owner of the callback can tell a task it armed apart from
// a task that was replaced after the worker had already picked it up.
package expiration
