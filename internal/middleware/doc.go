// Package middleware holds the cross-cutting HTTP middleware, currently the
// bearer-token authentication guard for the REST routes.
package middleware
