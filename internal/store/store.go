// Package store persists payments and gateway notifications.
//
// PostgresStore is the production implementation (pgx connection pool,
// schema managed with goose migrations in sql/schema). MemoryStore is an
// in-memory implementation with the same semantics, used by handler tests.
//
// Notification deduplication happens here: the gateway redelivers
// notifications until it receives an ack, so the same notify_id can arrive
// more than once. RecordNotification reports a redelivery with
// ErrDuplicateNotification and callers ack it without reprocessing.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrPaymentNotFound is returned when no payment exists for the given out_trade_no.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrDuplicateOutTradeNo is returned when a payment with the same out_trade_no already exists.
	ErrDuplicateOutTradeNo = errors.New("payment with this out_trade_no already exists")

	// ErrDuplicateNotification is returned when a notification with the same
	// (out_trade_no, notify_id) pair has already been recorded.
	ErrDuplicateNotification = errors.New("notification already recorded")
)

// Payment is one payment order created by this merchant.
//
// OutTradeNo is the merchant's order number (unique per partner).
// TradeNo is the gateway's trade number, empty until the first
// notification for the payment arrives.
type Payment struct {
	ID          uuid.UUID
	OutTradeNo  string
	RequestNo   string
	PartnerID   string
	Subject     string
	TotalAmount decimal.Decimal
	Currency    string
	Status      string
	TradeNo     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Notification is one verified gateway notification.
//
// RawFields holds the complete verified parameter set as received, so the
// original notification can be audited even if the gateway adds fields this
// service does not know about.
type Notification struct {
	ID          uuid.UUID
	OutTradeNo  string
	NotifyID    string
	TradeNo     string
	TradeStatus string
	RawFields   map[string]string
	ReceivedAt  time.Time
}

type CreatePaymentParams struct {
	OutTradeNo  string
	RequestNo   string
	PartnerID   string
	Subject     string
	TotalAmount decimal.Decimal
	Currency    string
	Status      string
}

type UpdatePaymentStatusParams struct {
	OutTradeNo string
	Status     string
	TradeNo    string
}

type RecordNotificationParams struct {
	OutTradeNo  string
	NotifyID    string
	TradeNo     string
	TradeStatus string
	RawFields   map[string]string
}

// Store is the persistence interface used by the HTTP handlers.
type Store interface {
	CreatePayment(ctx context.Context, arg CreatePaymentParams) (Payment, error)
	GetPaymentByOutTradeNo(ctx context.Context, outTradeNo string) (Payment, error)
	UpdatePaymentStatus(ctx context.Context, arg UpdatePaymentStatusParams) (Payment, error)
	RecordNotification(ctx context.Context, arg RecordNotificationParams) (Notification, error)

	// Ping reports whether the backing storage is reachable.
	Ping(ctx context.Context) error
}
