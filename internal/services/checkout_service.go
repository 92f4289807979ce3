package services

import (
	"context"
	"errors"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/preference"
)

var ErrCheckoutNotConfigured = errors.New("payment checkout not configured")

// MercadoPagoCheckout creates hosted checkout sessions (preferences) whose
// init point URL is handed to the client for the deposit charge.
type MercadoPagoCheckout struct {
	client     preference.Client
	payments   payment.Client
	successURL string
	cancelURL  string
}

func NewMercadoPagoCheckout(accessToken string, successURL string, cancelURL string) (*MercadoPagoCheckout, error) {
	if accessToken == "" {
		return nil, ErrCheckoutNotConfigured
	}
	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, err
	}
	return &MercadoPagoCheckout{
		client:     preference.NewClient(cfg),
		payments:   payment.NewClient(cfg),
		successURL: successURL,
		cancelURL:  cancelURL,
	}, nil
}

func (s *MercadoPagoCheckout) CreateCheckoutSession(ctx context.Context, input CheckoutSessionInput) (string, error) {
	if s == nil || s.client == nil {
		return "", ErrCheckoutNotConfigured
	}

	request := preference.Request{
		Items: []preference.ItemRequest{
			{
				Title:      input.Title,
				Quantity:   1,
				UnitPrice:  input.Amount,
				CurrencyID: input.Currency,
			},
		},
		BackURLs: &preference.BackURLsRequest{
			Success: s.successURL,
			Failure: s.cancelURL,
		},
		ExternalReference: input.ExternalReference,
		Metadata:          input.Metadata,
	}

	resource, err := s.client.Create(ctx, request)
	if err != nil {
		return "", err
	}

	return resource.InitPoint, nil
}

// PaymentInfo looks a provider payment up by the id the webhook carries and
// returns its status plus the external reference we tagged the session with.
func (s *MercadoPagoCheckout) PaymentInfo(ctx context.Context, paymentID int) (string, string, error) {
	if s == nil || s.payments == nil {
		return "", "", ErrCheckoutNotConfigured
	}

	resource, err := s.payments.Get(ctx, paymentID)
	if err != nil {
		return "", "", err
	}

	return resource.Status, resource.ExternalReference, nil
}
