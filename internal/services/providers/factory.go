package providers

import (
	"fmt"

	"github.com/lagiexpress/booking-backend/internal/config"
)

// Factory hands out the provider adapter for a payment method. Built once
// at startup; the registry is read-only afterwards.
type Factory struct {
	registry map[string]PaymentProvider
}

// NewFactory wires the provider registry. Outside production, every
// gateway method is backed by the simulated provider so checkout flows
// work without credentials; zalopay is simulated everywhere until the
// direct integration lands.
func NewFactory(cfg *config.Config) *Factory {
	registry := make(map[string]PaymentProvider)

	if cfg.Server.Environment == "production" {
		registry["vnpay"] = NewVNPay(cfg.Payment.VNPay)
		registry["momo"] = NewMoMo(cfg.Payment.MoMo)
	} else {
		registry["vnpay"] = NewSimulated("vnpay", cfg.Server.PublicURL)
		registry["momo"] = NewSimulated("momo", cfg.Server.PublicURL)
	}
	registry["zalopay"] = NewSimulated("zalopay", cfg.Server.PublicURL)

	return &Factory{registry: registry}
}

// Provider returns the adapter for a method
func (f *Factory) Provider(method string) (PaymentProvider, error) {
	provider, ok := f.registry[method]
	if !ok {
		return nil, fmt.Errorf("no payment provider for method %q", method)
	}
	return provider, nil
}

// Supported lists the registered method names
func (f *Factory) Supported() []string {
	methods := make([]string, 0, len(f.registry))
	for m := range f.registry {
		methods = append(methods, m)
	}
	return methods
}
