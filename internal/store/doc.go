// Package store defines the persistence interfaces for users, questions,
// answers, votes, notifications and tasks, together with the sentinel
// errors every implementation reports. Services depend on these
// interfaces; internal/platform/postgres provides the implementations.
package store
