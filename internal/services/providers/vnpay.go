package providers

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lagiexpress/booking-backend/internal/config"
)

// VNPay implements the VNPay redirect checkout: signed pay URL out,
// signed return/IPN parameters back. Signature is HMAC-SHA512 over the
// sorted, URL-encoded parameter string.
type VNPay struct {
	cfg config.VNPayConfig
	now func() time.Time
}

// NewVNPay creates a VNPay adapter
func NewVNPay(cfg config.VNPayConfig) *VNPay {
	return &VNPay{cfg: cfg, now: time.Now}
}

// Name returns the gateway identifier
func (v *VNPay) Name() string {
	return "vnpay"
}

// BuildPayURL creates the signed redirect URL for a checkout
func (v *VNPay) BuildPayURL(p CheckoutParams) (string, error) {
	created := v.now()
	params := map[string]string{
		"vnp_Version":    "2.1.0",
		"vnp_Command":    "pay",
		"vnp_TmnCode":    v.cfg.TmnCode,
		"vnp_Amount":     strconv.FormatInt(int64(p.Amount*100), 10), // VNPay wants amount x100
		"vnp_CurrCode":   "VND",
		"vnp_TxnRef":     p.TxnRef,
		"vnp_OrderInfo":  p.OrderInfo,
		"vnp_OrderType":  "other",
		"vnp_Locale":     "vn",
		"vnp_ReturnUrl":  v.cfg.ReturnURL,
		"vnp_IpAddr":     p.ClientIP,
		"vnp_CreateDate": created.Format("20060102150405"),
		"vnp_ExpireDate": created.Add(15 * time.Minute).Format("20060102150405"),
	}

	query := sortedEncode(params)
	signature := v.sign(query)

	return fmt.Sprintf("%s?%s&vnp_SecureHash=%s", v.cfg.PayURL, query, signature), nil
}

// VerifyCallback authenticates a VNPay return/IPN parameter set.
// vnp_ResponseCode "00" is the only success code.
func (v *VNPay) VerifyCallback(params map[string]string) (*CallbackResult, error) {
	received := params["vnp_SecureHash"]
	if received == "" {
		return nil, ErrInvalidSignature
	}

	signed := make(map[string]string, len(params))
	for k, val := range params {
		if k == "vnp_SecureHash" || k == "vnp_SecureHashType" {
			continue
		}
		if strings.HasPrefix(k, "vnp_") {
			signed[k] = val
		}
	}

	expected := v.sign(sortedEncode(signed))
	if !hmac.Equal([]byte(strings.ToLower(received)), []byte(expected)) {
		return nil, ErrInvalidSignature
	}

	amount := 0.0
	if raw, err := strconv.ParseInt(params["vnp_Amount"], 10, 64); err == nil {
		amount = float64(raw) / 100
	}

	code := params["vnp_ResponseCode"]
	return &CallbackResult{
		TxnRef:        params["vnp_TxnRef"],
		Success:       code == "00",
		Amount:        amount,
		ProviderTxnID: params["vnp_TransactionNo"],
		ResponseCode:  code,
	}, nil
}

// sign computes the lowercase hex HMAC-SHA512 of the query string
func (v *VNPay) sign(query string) string {
	mac := hmac.New(sha512.New, []byte(v.cfg.HashSecret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

// sortedEncode builds the canonical sorted query string VNPay signs
func sortedEncode(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[k]))
	}
	return b.String()
}
