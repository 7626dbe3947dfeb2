// Package payments is the payments-gateway wrapper around Stripe: checkout
// sessions for capture, transfers for seller payout, custom connected
// accounts as payout destinations, and identity verification sessions.
package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/kalhuss/property-manage/internal/models"
)

// Client wraps the Stripe API for the settlement and bank flows.
type Client struct {
	api        *client.API
	currency   string
	successURL string
	cancelURL  string
}

// NewClient creates a payments client with the given secret key.
func NewClient(secretKey, currency, successURL, cancelURL string) *Client {
	api := &client.API{}
	api.Init(secretKey, nil)

	return &Client{
		api:        api,
		currency:   currency,
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

// minorUnits converts a decimal major-currency amount to integer minor units.
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).IntPart()
}

// CreateCheckoutSession creates a hosted checkout session for a contract and
// returns its URL and session id.
func (c *Client) CreateCheckoutSession(ctx context.Context, amount decimal.Decimal, contractID string) (string, string, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(c.currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Property Purchase"),
					},
					UnitAmount: stripe.Int64(minorUnits(amount)),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(fmt.Sprintf("%s?id=%s", c.successURL, contractID)),
		CancelURL:  stripe.String(c.cancelURL),
	}
	params.Context = ctx

	session, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return "", "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	return session.URL, session.ID, nil
}

// CreateTransfer moves the given amount to a connected payout account and
// returns the transfer reference.
func (c *Client) CreateTransfer(ctx context.Context, destinationAccountID string, amount decimal.Decimal) (string, error) {
	params := &stripe.TransferParams{
		Amount:      stripe.Int64(minorUnits(amount)),
		Currency:    stripe.String(c.currency),
		Destination: stripe.String(destinationAccountID),
	}
	params.Context = ctx

	transfer, err := c.api.Transfers.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create transfer: %w", err)
	}

	return transfer.ID, nil
}

// CreatePayoutAccount registers a custom connected account with an external
// bank account for an individual seller and returns the account id.
func (c *Client) CreatePayoutAccount(ctx context.Context, details models.PayoutAccountDetails) (string, error) {
	params := &stripe.AccountParams{
		Type:            stripe.String(string(stripe.AccountTypeCustom)),
		Country:         stripe.String("GB"),
		Email:           stripe.String(details.Email),
		DefaultCurrency: stripe.String(c.currency),
		BusinessType:    stripe.String(string(stripe.AccountBusinessTypeIndividual)),
		Individual: &stripe.PersonParams{
			Email:     stripe.String(details.Email),
			FirstName: stripe.String(details.Name),
			LastName:  stripe.String(details.Surname),
			Phone:     stripe.String("+44" + details.PhoneNumber),
			DOB: &stripe.PersonDOBParams{
				Day:   stripe.Int64(int64(details.DOBDay)),
				Month: stripe.Int64(int64(details.DOBMonth)),
				Year:  stripe.Int64(int64(details.DOBYear)),
			},
			Address: &stripe.AddressParams{
				Line1:      stripe.String(details.Address),
				City:       stripe.String(details.City),
				PostalCode: stripe.String(details.Postcode),
				Country:    stripe.String("GB"),
			},
		},
		BusinessProfile: &stripe.AccountBusinessProfileParams{
			MCC:                stripe.String("5734"),
			ProductDescription: stripe.String("Property"),
		},
		TOSAcceptance: &stripe.AccountTOSAcceptanceParams{
			Date: stripe.Int64(time.Now().Unix()),
			IP:   stripe.String(details.IP),
		},
		ExternalAccount: &stripe.AccountExternalAccountParams{
			Country:           stripe.String("GB"),
			Currency:          stripe.String(c.currency),
			AccountHolderName: stripe.String(details.Name),
			AccountHolderType: stripe.String("individual"),
			RoutingNumber:     stripe.String(details.SortCode),
			AccountNumber:     stripe.String(details.AccountNumber),
		},
		Capabilities: &stripe.AccountCapabilitiesParams{
			CardPayments: &stripe.AccountCapabilitiesCardPaymentsParams{
				Requested: stripe.Bool(true),
			},
			Transfers: &stripe.AccountCapabilitiesTransfersParams{
				Requested: stripe.Bool(true),
			},
		},
	}
	params.Context = ctx

	account, err := c.api.Accounts.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create payout account: %w", err)
	}

	return account.ID, nil
}

// CreateVerificationSession starts a document identity-verification session
// and returns its hosted URL and id.
func (c *Client) CreateVerificationSession(ctx context.Context, accountID, returnURL string) (string, string, error) {
	params := &stripe.IdentityVerificationSessionParams{
		Type:      stripe.String(string(stripe.IdentityVerificationSessionTypeDocument)),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx
	params.AddMetadata("user_id", accountID)

	session, err := c.api.IdentityVerificationSessions.New(params)
	if err != nil {
		return "", "", fmt.Errorf("failed to create verification session: %w", err)
	}

	return session.URL, session.ID, nil
}

// CheckVerificationSession reports whether a verification session has passed.
func (c *Client) CheckVerificationSession(ctx context.Context, sessionID string) (bool, error) {
	params := &stripe.IdentityVerificationSessionParams{}
	params.Context = ctx

	session, err := c.api.IdentityVerificationSessions.Get(sessionID, params)
	if err != nil {
		return false, fmt.Errorf("failed to retrieve verification session: %w", err)
	}

	return session.Status == stripe.IdentityVerificationSessionStatusVerified, nil
}
