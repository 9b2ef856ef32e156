// Package handlers provides the HTTP handlers for the payment server.
//
// The payment API handlers (payments.go, notifications.go) implement the
// merchant-facing surface: creating trades on the gateway and processing the
// gateway's asynchronous payment notifications.
//
// General infrastructure handlers (health, readiness, version, jwks) are
// also included here.
package handlers
