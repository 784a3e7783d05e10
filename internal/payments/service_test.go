package payments

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/KanishkRAJ29/capstonebackned/internal/identity"
	"github.com/KanishkRAJ29/capstonebackned/internal/ledger"
	"github.com/KanishkRAJ29/capstonebackned/internal/notification"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []notification.Message
}

func (n *recordingNotifier) Send(_ context.Context, message notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
	return nil
}

func (n *recordingNotifier) sent() []notification.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification.Message(nil), n.messages...)
}

type fixture struct {
	svc      *Service
	ids      *identity.Service
	ledger   ledger.Ledger
	notifier *recordingNotifier
	sender   identity.User
	merchant identity.User
}

func setup(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()

	ids := identity.NewService(identity.NewMemoryRepository())
	l := ledger.NewInMemory()
	notifier := &recordingNotifier{}

	sender, err := ids.Register(ctx, identity.RegisterInput{Username: "alice", Email: "a@x.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("register sender: %v", err)
	}
	if _, err := ids.SetPin(ctx, sender.ID, "1234"); err != nil {
		t.Fatalf("set pin: %v", err)
	}

	merchant, err := ids.Register(ctx, identity.RegisterInput{Username: "shop", Email: "shop@x.com", Password: "secret2"})
	if err != nil {
		t.Fatalf("register merchant: %v", err)
	}

	ledger.SeedBalance(l, sender.ID, 1000)
	ledger.SeedBalance(l, merchant.ID, 0)

	return fixture{
		svc:      NewService(l, ids, notifier),
		ids:      ids,
		ledger:   l,
		notifier: notifier,
		sender:   sender,
		merchant: merchant,
	}
}

func TestPayMerchant(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, err := f.svc.PayMerchant(ctx, PayMerchantInput{
		FromUserID: f.sender.ID,
		MerchantID: f.merchant.MerchantID,
		Amount:     400,
		PIN:        "1234",
	})
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if res.Balance != 600 {
		t.Fatalf("expected remaining balance 600, got %d", res.Balance)
	}

	messages := f.notifier.sent()
	if len(messages) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(messages))
	}
	if messages[0].UserID != f.merchant.ID || messages[0].Event != notification.EventPaymentReceived {
		t.Fatalf("unexpected recipient notification: %+v", messages[0])
	}
	if messages[1].UserID != f.sender.ID || messages[1].Event != notification.EventPaymentSent {
		t.Fatalf("unexpected sender notification: %+v", messages[1])
	}
}

func TestPayMerchantWrongPin(t *testing.T) {
	f := setup(t)

	_, err := f.svc.PayMerchant(context.Background(), PayMerchantInput{
		FromUserID: f.sender.ID,
		MerchantID: f.merchant.MerchantID,
		Amount:     400,
		PIN:        "0000",
	})
	if !errors.Is(err, ErrInvalidPin) {
		t.Fatalf("expected ErrInvalidPin, got %v", err)
	}

	if got := len(f.notifier.sent()); got != 0 {
		t.Fatalf("no notification expected on failure, got %d", got)
	}
	balance, _ := f.ledger.Balance(context.Background(), f.sender.ID)
	if balance != 1000 {
		t.Fatalf("failed payment must not move funds, balance %d", balance)
	}
}

func TestPayMerchantWithoutPinSetup(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// The merchant never set a PIN; any candidate must be rejected.
	ledger.SeedBalance(f.ledger, f.merchant.ID, 500)
	_, err := f.svc.PayMerchant(ctx, PayMerchantInput{
		FromUserID: f.merchant.ID,
		MerchantID: f.sender.MerchantID,
		Amount:     100,
		PIN:        "1234",
	})
	if !errors.Is(err, ErrInvalidPin) {
		t.Fatalf("expected ErrInvalidPin without PIN setup, got %v", err)
	}
}

func TestPayMerchantSelf(t *testing.T) {
	f := setup(t)

	_, err := f.svc.PayMerchant(context.Background(), PayMerchantInput{
		FromUserID: f.sender.ID,
		MerchantID: f.sender.MerchantID,
		Amount:     100,
		PIN:        "1234",
	})
	if !errors.Is(err, ErrSelfPayment) {
		t.Fatalf("expected ErrSelfPayment, got %v", err)
	}
}

func TestPayMerchantUnknownMerchant(t *testing.T) {
	f := setup(t)

	_, err := f.svc.PayMerchant(context.Background(), PayMerchantInput{
		FromUserID: f.sender.ID,
		MerchantID: "no-such-merchant",
		Amount:     100,
		PIN:        "1234",
	})
	if !errors.Is(err, identity.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPayMerchantInsufficientFunds(t *testing.T) {
	f := setup(t)

	_, err := f.svc.PayMerchant(context.Background(), PayMerchantInput{
		FromUserID: f.sender.ID,
		MerchantID: f.merchant.MerchantID,
		Amount:     5000,
		PIN:        "1234",
	})
	if !errors.Is(err, ledger.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if got := len(f.notifier.sent()); got != 0 {
		t.Fatalf("no notification expected on failure, got %d", got)
	}
}

func TestTransferP2P(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	res, err := f.svc.Transfer(ctx, TransferInput{
		FromUserID: f.sender.ID,
		ToHandle:   "shop",
		Amount:     250,
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if res.Balance != 750 {
		t.Fatalf("expected remaining balance 750, got %d", res.Balance)
	}

	messages := f.notifier.sent()
	if len(messages) != 1 || messages[0].Event != notification.EventPaymentReceived {
		t.Fatalf("expected one payment_received notification, got %+v", messages)
	}
}
