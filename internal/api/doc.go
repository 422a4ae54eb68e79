// Package api contains the HTTP handlers for the question and answer API.
//
// Handlers decode and validate request payloads, resolve the authenticated
// identity placed in the context by the auth middleware, call the question
// service, and translate sentinel errors into HTTP status codes. No business
// rules live here.
package api
