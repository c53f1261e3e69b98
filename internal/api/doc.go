// Package api exposes the question-and-answer services over HTTP. Handlers
// decode and validate JSON requests, call a service and translate the
// result, or its error, into a JSON response.
package api
