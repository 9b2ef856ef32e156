package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresStore implements Store on a pgx connection pool.
//
// Amounts are stored as NUMERIC and travel through the driver as fixed
// two-decimal strings so no float conversion ever happens.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// postgres error code for unique_violation
const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

const createPaymentSQL = `
INSERT INTO payments (id, out_trade_no, request_no, partner_id, subject, total_amount, currency, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, out_trade_no, request_no, partner_id, subject, total_amount::text, currency, status, trade_no, created_at, updated_at
`

func (s *PostgresStore) CreatePayment(ctx context.Context, arg CreatePaymentParams) (Payment, error) {
	row := s.pool.QueryRow(ctx, createPaymentSQL,
		uuid.New(),
		arg.OutTradeNo,
		arg.RequestNo,
		arg.PartnerID,
		arg.Subject,
		arg.TotalAmount.StringFixed(2),
		arg.Currency,
		arg.Status,
	)

	payment, err := scanPayment(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Payment{}, fmt.Errorf("out_trade_no %s: %w", arg.OutTradeNo, ErrDuplicateOutTradeNo)
		}
		return Payment{}, fmt.Errorf("failed to create payment: %w", err)
	}
	return payment, nil
}

const getPaymentByOutTradeNoSQL = `
SELECT id, out_trade_no, request_no, partner_id, subject, total_amount::text, currency, status, trade_no, created_at, updated_at
FROM payments
WHERE out_trade_no = $1
`

func (s *PostgresStore) GetPaymentByOutTradeNo(ctx context.Context, outTradeNo string) (Payment, error) {
	row := s.pool.QueryRow(ctx, getPaymentByOutTradeNoSQL, outTradeNo)

	payment, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, fmt.Errorf("out_trade_no %s: %w", outTradeNo, ErrPaymentNotFound)
		}
		return Payment{}, fmt.Errorf("failed to get payment: %w", err)
	}
	return payment, nil
}

// An empty trade_no in the update keeps the stored value: notifications for
// a closed trade do not always carry the gateway trade number.
const updatePaymentStatusSQL = `
UPDATE payments
SET status = $2,
    trade_no = CASE WHEN $3 <> '' THEN $3 ELSE trade_no END,
    updated_at = now()
WHERE out_trade_no = $1
RETURNING id, out_trade_no, request_no, partner_id, subject, total_amount::text, currency, status, trade_no, created_at, updated_at
`

func (s *PostgresStore) UpdatePaymentStatus(ctx context.Context, arg UpdatePaymentStatusParams) (Payment, error) {
	row := s.pool.QueryRow(ctx, updatePaymentStatusSQL,
		arg.OutTradeNo,
		arg.Status,
		arg.TradeNo,
	)

	payment, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Payment{}, fmt.Errorf("out_trade_no %s: %w", arg.OutTradeNo, ErrPaymentNotFound)
		}
		return Payment{}, fmt.Errorf("failed to update payment status: %w", err)
	}
	return payment, nil
}

const recordNotificationSQL = `
INSERT INTO notifications (id, out_trade_no, notify_id, trade_no, trade_status, raw_fields)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, out_trade_no, notify_id, trade_no, trade_status, raw_fields, received_at
`

func (s *PostgresStore) RecordNotification(ctx context.Context, arg RecordNotificationParams) (Notification, error) {
	rawFields, err := json.Marshal(arg.RawFields)
	if err != nil {
		return Notification{}, fmt.Errorf("failed to marshal notification fields: %w", err)
	}

	row := s.pool.QueryRow(ctx, recordNotificationSQL,
		uuid.New(),
		arg.OutTradeNo,
		arg.NotifyID,
		arg.TradeNo,
		arg.TradeStatus,
		rawFields,
	)

	notification, err := scanNotification(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Notification{}, fmt.Errorf("notify_id %s for out_trade_no %s: %w", arg.NotifyID, arg.OutTradeNo, ErrDuplicateNotification)
		}
		return Notification{}, fmt.Errorf("failed to record notification: %w", err)
	}
	return notification, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func scanPayment(row pgx.Row) (Payment, error) {
	var (
		p              Payment
		totalAmountStr string
	)

	err := row.Scan(
		&p.ID,
		&p.OutTradeNo,
		&p.RequestNo,
		&p.PartnerID,
		&p.Subject,
		&totalAmountStr,
		&p.Currency,
		&p.Status,
		&p.TradeNo,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return Payment{}, err
	}

	p.TotalAmount, err = decimal.NewFromString(totalAmountStr)
	if err != nil {
		return Payment{}, fmt.Errorf("invalid stored amount %q: %w", totalAmountStr, err)
	}
	return p, nil
}

func scanNotification(row pgx.Row) (Notification, error) {
	var (
		n         Notification
		rawFields []byte
	)

	err := row.Scan(
		&n.ID,
		&n.OutTradeNo,
		&n.NotifyID,
		&n.TradeNo,
		&n.TradeStatus,
		&rawFields,
		&n.ReceivedAt,
	)
	if err != nil {
		return Notification{}, err
	}

	if err := json.Unmarshal(rawFields, &n.RawFields); err != nil {
		return Notification{}, fmt.Errorf("invalid stored notification fields: %w", err)
	}
	return n, nil
}
