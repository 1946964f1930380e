package payments

import (
	"fmt"

	"xports-bot/internal/config"
	"xports-bot/internal/payments/checkout"
	"xports-bot/internal/payments/stub"
)

func NewProvider(cfg config.Config) (Provider, error) {
	switch cfg.PaymentProvider {
	case "checkout":
		return checkout.New(), nil
	case "stub":
		return stub.New(cfg.BasePublicURL), nil
	default:
		return nil, fmt.Errorf("unknown payment provider: %s", cfg.PaymentProvider)
	}
}
