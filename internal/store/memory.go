package store

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used by handler tests.
// It mirrors the PostgresStore semantics, including the
// (out_trade_no, notify_id) uniqueness rule.
type MemoryStore struct {
	mu            sync.Mutex
	payments      map[string]Payment      // keyed by out_trade_no
	notifications map[string]Notification // keyed by out_trade_no + "/" + notify_id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		payments:      make(map[string]Payment),
		notifications: make(map[string]Notification),
	}
}

func (s *MemoryStore) CreatePayment(_ context.Context, arg CreatePaymentParams) (Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.payments[arg.OutTradeNo]; exists {
		return Payment{}, ErrDuplicateOutTradeNo
	}

	now := time.Now().UTC()
	payment := Payment{
		ID:          uuid.New(),
		OutTradeNo:  arg.OutTradeNo,
		RequestNo:   arg.RequestNo,
		PartnerID:   arg.PartnerID,
		Subject:     arg.Subject,
		TotalAmount: arg.TotalAmount,
		Currency:    arg.Currency,
		Status:      arg.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.payments[arg.OutTradeNo] = payment

	return payment, nil
}

func (s *MemoryStore) GetPaymentByOutTradeNo(_ context.Context, outTradeNo string) (Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payment, exists := s.payments[outTradeNo]
	if !exists {
		return Payment{}, ErrPaymentNotFound
	}
	return payment, nil
}

func (s *MemoryStore) UpdatePaymentStatus(_ context.Context, arg UpdatePaymentStatusParams) (Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payment, exists := s.payments[arg.OutTradeNo]
	if !exists {
		return Payment{}, ErrPaymentNotFound
	}

	payment.Status = arg.Status
	if arg.TradeNo != "" {
		payment.TradeNo = arg.TradeNo
	}
	payment.UpdatedAt = time.Now().UTC()
	s.payments[arg.OutTradeNo] = payment

	return payment, nil
}

func (s *MemoryStore) RecordNotification(_ context.Context, arg RecordNotificationParams) (Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := arg.OutTradeNo + "/" + arg.NotifyID
	if _, exists := s.notifications[key]; exists {
		return Notification{}, ErrDuplicateNotification
	}

	notification := Notification{
		ID:          uuid.New(),
		OutTradeNo:  arg.OutTradeNo,
		NotifyID:    arg.NotifyID,
		TradeNo:     arg.TradeNo,
		TradeStatus: arg.TradeStatus,
		RawFields:   maps.Clone(arg.RawFields),
		ReceivedAt:  time.Now().UTC(),
	}
	s.notifications[key] = notification

	return notification, nil
}

func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}
