// Package shared holds request context keys and the JSON request and
// response helpers used by both the api package and its middleware.
package shared
