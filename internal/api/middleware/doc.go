// Package middleware contains the HTTP middleware of the API: bearer token
// authentication, trace IDs with request-scoped loggers, request metrics and
// rate limiting.
package middleware
