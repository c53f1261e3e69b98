// Package task runs persisted background work. Tasks are saved to the
// store before they are queued, often in the same transaction as the write
// that caused them. Work that was pending or in flight when the process
// stopped is rebuilt through a Registry and resumed on the next Start, and
// a periodic sweep queues pending tasks that never made it into the queue.
// A worker claims a task in the store before running it, so a task queued
// twice still runs once.
package task
