// Package server provides the HTTP server for the merchant payment service.
//
// the server is configured through environment variables
// (see internal/config/config.go for details)
//
// Routes:
//   - the payment API (create payment, payment status)
//   - the gateway notification callback
//   - common infrastructure handlers (health, readiness, version, jwks)
//
// handlers are in internal/server/handlers, middleware is in
// internal/server/middleware
package server
