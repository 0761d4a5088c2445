package providers

import (
	"fmt"
	"strconv"
)

// Simulated is a provider that never leaves the process. It backs the
// zalopay method (no direct integration yet) and every gateway method in
// development: the pay URL points at the local simulate endpoint and
// callbacks are accepted without a signature. Never registered in
// production.
type Simulated struct {
	name      string
	publicURL string
}

// NewSimulated creates a simulated adapter masquerading as the named gateway
func NewSimulated(name, publicURL string) *Simulated {
	return &Simulated{name: name, publicURL: publicURL}
}

// Name returns the gateway identifier being simulated
func (s *Simulated) Name() string {
	return s.name
}

// BuildPayURL points the client at the local simulate endpoint
func (s *Simulated) BuildPayURL(p CheckoutParams) (string, error) {
	return fmt.Sprintf("%s/simulate-pay?txnRef=%s&amount=%d", s.publicURL, p.TxnRef, int64(p.Amount)), nil
}

// VerifyCallback accepts the parameters as-is (no signature in dev)
func (s *Simulated) VerifyCallback(params map[string]string) (*CallbackResult, error) {
	amount := 0.0
	if raw, err := strconv.ParseFloat(params["amount"], 64); err == nil {
		amount = raw
	}

	return &CallbackResult{
		TxnRef:        params["txnRef"],
		Success:       params["outcome"] == "paid",
		Amount:        amount,
		ProviderTxnID: params["providerTxnId"],
		ResponseCode:  params["outcome"],
	}, nil
}
