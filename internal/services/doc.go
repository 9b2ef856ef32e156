// Package services provides external service integrations for the payment server.
//
// This package abstracts external dependencies (the payment gateway, and any
// future settlement or reconciliation integrations) behind interfaces so that
// handlers can be tested against fakes and production implementations can be
// selected via configuration.
//
// Each service is defined as an interface with its implementation created in
// NewServices.
package services
