// Package providers hides the wire formats of the payment gateways
// behind one capability interface. The reconciler consumes verified
// CallbackResults and never sees a gateway parameter name.
package providers

import "errors"

// ErrInvalidSignature is returned when a callback fails integrity
// verification. Callers must reject the callback outright.
var ErrInvalidSignature = errors.New("callback signature verification failed")

// CheckoutParams is what a provider needs to build a pay URL
type CheckoutParams struct {
	TxnRef    string  // our reference, echoed back in the callback
	Amount    float64 // VND
	OrderInfo string
	ClientIP  string
}

// CallbackResult is a verified, provider-neutral payment outcome
type CallbackResult struct {
	TxnRef        string
	Success       bool
	Amount        float64
	ProviderTxnID string
	ResponseCode  string // the provider's own result code, for logging and acks
}

// PaymentProvider is the capability interface every gateway adapter
// implements
type PaymentProvider interface {
	// Name returns the gateway identifier ("vnpay", "momo", ...)
	Name() string

	// BuildPayURL creates the redirect URL for a checkout
	BuildPayURL(p CheckoutParams) (string, error)

	// VerifyCallback authenticates a return/IPN parameter set and maps
	// it to a neutral outcome. Returns ErrInvalidSignature when the
	// integrity check fails.
	VerifyCallback(params map[string]string) (*CallbackResult, error)
}
