package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/KanishkRAJ29/capstonebackned/internal/identity"
	"github.com/KanishkRAJ29/capstonebackned/internal/ledger"
	"github.com/KanishkRAJ29/capstonebackned/internal/notification"
)

var (
	// ErrInvalidPin indicates the transaction PIN did not match, or no PIN
	// has been set up yet.
	ErrInvalidPin = errors.New("invalid transaction PIN")

	// ErrSelfPayment rejects paying your own merchant identifier.
	ErrSelfPayment = errors.New("cannot pay yourself")
)

// Service posts wallet payments and pushes confirmations to recipients.
type Service struct {
	ledger   ledger.Ledger
	ids      *identity.Service
	notifier notification.Notifier
}

// NewService constructs a payment service.
func NewService(l ledger.Ledger, ids *identity.Service, notifier notification.Notifier) *Service {
	return &Service{ledger: l, ids: ids, notifier: notifier}
}

// PayMerchantInput captures a PIN-gated payment to a merchant.
type PayMerchantInput struct {
	FromUserID string
	MerchantID string
	Amount     int64
	PIN        string
	ClientTxID string
}

// Result describes the ledger outcome of a payment.
type Result struct {
	TransactionID string    `json:"transaction_id"`
	Balance       int64     `json:"balance"`
	CompletedAt   time.Time `json:"completed_at"`
}

// PayMerchant verifies the sender's transaction PIN, resolves the recipient
// by merchant identifier and posts the transfer. On success the recipient is
// notified over the realtime channel; a recipient with no open connection
// simply misses the push.
func (s *Service) PayMerchant(ctx context.Context, input PayMerchantInput) (Result, error) {
	if input.Amount <= 0 {
		return Result{}, fmt.Errorf("amount must be positive")
	}
	if input.ClientTxID == "" {
		input.ClientTxID = uuid.New().String()
	}

	ok, err := s.ids.VerifyPinFor(ctx, input.FromUserID, input.PIN)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, ErrInvalidPin
	}

	sender, err := s.ids.Get(ctx, input.FromUserID)
	if err != nil {
		return Result{}, err
	}
	recipient, err := s.ids.GetByMerchant(ctx, input.MerchantID)
	if err != nil {
		return Result{}, err
	}
	if recipient.ID == sender.ID {
		return Result{}, ErrSelfPayment
	}

	res, err := s.ledger.Transfer(ctx, sender.ID, recipient.ID, ledger.KindMerchant, input.ClientTxID, input.Amount)
	if err != nil {
		return Result{}, err
	}

	s.notify(ctx, recipient.ID, notification.EventPaymentReceived, confirmation{
		TransactionID: res.TransactionID,
		From:          sender.Username,
		Amount:        input.Amount,
	})
	s.notify(ctx, sender.ID, notification.EventPaymentSent, confirmation{
		TransactionID: res.TransactionID,
		To:            recipient.Username,
		Amount:        input.Amount,
	})

	return Result{TransactionID: res.TransactionID, Balance: res.FromBalance, CompletedAt: time.Now().UTC()}, nil
}

// TransferInput captures a P2P transfer addressed by username or email.
type TransferInput struct {
	FromUserID string
	ToHandle   string
	Amount     int64
	ClientTxID string
}

// Transfer posts a P2P transfer between two users.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (Result, error) {
	if input.Amount <= 0 {
		return Result{}, fmt.Errorf("amount must be positive")
	}
	if input.ClientTxID == "" {
		input.ClientTxID = uuid.New().String()
	}

	sender, err := s.ids.Get(ctx, input.FromUserID)
	if err != nil {
		return Result{}, err
	}
	recipient, err := s.ids.GetByHandle(ctx, input.ToHandle)
	if err != nil {
		return Result{}, err
	}
	if recipient.ID == sender.ID {
		return Result{}, ErrSelfPayment
	}

	res, err := s.ledger.Transfer(ctx, sender.ID, recipient.ID, ledger.KindP2P, input.ClientTxID, input.Amount)
	if err != nil {
		return Result{}, err
	}

	s.notify(ctx, recipient.ID, notification.EventPaymentReceived, confirmation{
		TransactionID: res.TransactionID,
		From:          sender.Username,
		Amount:        input.Amount,
	})

	return Result{TransactionID: res.TransactionID, Balance: res.FromBalance, CompletedAt: time.Now().UTC()}, nil
}

type confirmation struct {
	TransactionID string `json:"transaction_id"`
	From          string `json:"from,omitempty"`
	To            string `json:"to,omitempty"`
	Amount        int64  `json:"amount"`
}

func (s *Service) notify(ctx context.Context, userID, event string, payload confirmation) {
	if s.notifier == nil {
		return
	}
	_ = s.notifier.Send(ctx, notification.Message{UserID: userID, Event: event, Payload: payload})
}
