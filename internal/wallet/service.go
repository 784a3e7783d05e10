package wallet

import (
	"context"
	"time"

	"github.com/KanishkRAJ29/capstonebackned/internal/identity"
	"github.com/KanishkRAJ29/capstonebackned/internal/ledger"
)

// Overview is the wallet view returned to its owner: the public profile plus
// the ledger's answer for the balance.
type Overview struct {
	User    identity.Profile `json:"user"`
	Balance int64            `json:"balance"`
	AsOf    time.Time        `json:"as_of"`
}

// Service is a read facade over the identity record and the ledger. It never
// mutates a balance; that is the ledger's job alone.
type Service struct {
	ids    *identity.Service
	ledger ledger.Ledger
}

// NewService builds a wallet service instance.
func NewService(ids *identity.Service, l ledger.Ledger) *Service {
	return &Service{ids: ids, ledger: l}
}

// Get returns the wallet overview for a user.
func (s *Service) Get(ctx context.Context, userID string) (Overview, error) {
	user, err := s.ids.Get(ctx, userID)
	if err != nil {
		return Overview{}, err
	}
	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return Overview{}, err
	}
	profile := user.Profile()
	profile.Balance = balance
	return Overview{User: profile, Balance: balance, AsOf: time.Now().UTC()}, nil
}

// Statement returns the user's transaction history.
func (s *Service) Statement(ctx context.Context, userID string) ([]ledger.Transaction, error) {
	return s.ledger.History(ctx, userID)
}
