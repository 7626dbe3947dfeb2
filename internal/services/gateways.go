package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/kalhuss/property-manage/internal/models"
)

// StorageGateway is the object-store collaborator. Writes are append-only
// under caller-chosen paths; nothing is ever mutated in place.
type StorageGateway interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
	Download(ctx context.Context, path string) ([]byte, error)
}

// PaymentsGateway is the payment/payout processor collaborator.
type PaymentsGateway interface {
	CreateCheckoutSession(ctx context.Context, amount decimal.Decimal, contractID string) (url string, sessionID string, err error)
	CreateTransfer(ctx context.Context, destinationAccountID string, amount decimal.Decimal) (transferRef string, err error)
	CreatePayoutAccount(ctx context.Context, details models.PayoutAccountDetails) (accountID string, err error)
	CreateVerificationSession(ctx context.Context, accountID, returnURL string) (url string, sessionID string, err error)
	CheckVerificationSession(ctx context.Context, sessionID string) (verified bool, err error)
}
