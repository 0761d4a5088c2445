package providers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/lagiexpress/booking-backend/internal/config"
)

// MoMo implements the MoMo wallet checkout. Requests and IPNs carry an
// HMAC-SHA256 signature over a fixed-order raw key=value string (not
// sorted or URL-encoded, per the MoMo spec).
type MoMo struct {
	cfg    config.MoMoConfig
	client *http.Client
}

// NewMoMo creates a MoMo adapter
func NewMoMo(cfg config.MoMoConfig) *MoMo {
	return &MoMo{
		cfg: cfg,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name returns the gateway identifier
func (m *MoMo) Name() string {
	return "momo"
}

// createRequest is the MoMo create-payment payload
type createRequest struct {
	PartnerCode string `json:"partnerCode"`
	RequestID   string `json:"requestId"`
	Amount      int64  `json:"amount"`
	OrderID     string `json:"orderId"`
	OrderInfo   string `json:"orderInfo"`
	RedirectURL string `json:"redirectUrl"`
	IPNURL      string `json:"ipnUrl"`
	RequestType string `json:"requestType"`
	ExtraData   string `json:"extraData"`
	Lang        string `json:"lang"`
	Signature   string `json:"signature"`
}

// createResponse is the MoMo create-payment response
type createResponse struct {
	PayURL     string `json:"payUrl"`
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
}

// BuildPayURL asks the MoMo API for a checkout URL
func (m *MoMo) BuildPayURL(p CheckoutParams) (string, error) {
	requestID := uuid.New().String()
	amount := int64(p.Amount)

	raw := fmt.Sprintf(
		"accessKey=%s&amount=%d&extraData=%s&ipnUrl=%s&orderId=%s&orderInfo=%s&partnerCode=%s&redirectUrl=%s&requestId=%s&requestType=%s",
		m.cfg.AccessKey, amount, "", m.cfg.IPNURL, p.TxnRef, p.OrderInfo,
		m.cfg.PartnerCode, m.cfg.ReturnURL, requestID, "captureWallet",
	)

	req := createRequest{
		PartnerCode: m.cfg.PartnerCode,
		RequestID:   requestID,
		Amount:      amount,
		OrderID:     p.TxnRef,
		OrderInfo:   p.OrderInfo,
		RedirectURL: m.cfg.ReturnURL,
		IPNURL:      m.cfg.IPNURL,
		RequestType: "captureWallet",
		ExtraData:   "",
		Lang:        "vi",
		Signature:   m.sign(raw),
	}

	jsonData, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal momo request: %w", err)
	}

	httpReq, err := http.NewRequest(http.MethodPost, m.cfg.Endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create momo request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to call momo: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read momo response: %w", err)
	}

	var created createResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return "", fmt.Errorf("failed to parse momo response: %w", err)
	}
	if created.ResultCode != 0 || created.PayURL == "" {
		return "", fmt.Errorf("momo rejected checkout: %d %s", created.ResultCode, created.Message)
	}

	return created.PayURL, nil
}

// VerifyCallback authenticates a MoMo IPN parameter set.
// resultCode "0" is the only success code.
func (m *MoMo) VerifyCallback(params map[string]string) (*CallbackResult, error) {
	received := params["signature"]
	if received == "" {
		return nil, ErrInvalidSignature
	}

	raw := fmt.Sprintf(
		"accessKey=%s&amount=%s&extraData=%s&message=%s&orderId=%s&orderInfo=%s&orderType=%s&partnerCode=%s&payType=%s&requestId=%s&responseTime=%s&resultCode=%s&transId=%s",
		m.cfg.AccessKey, params["amount"], params["extraData"], params["message"],
		params["orderId"], params["orderInfo"], params["orderType"], params["partnerCode"],
		params["payType"], params["requestId"], params["responseTime"],
		params["resultCode"], params["transId"],
	)

	expected := m.sign(raw)
	if !hmac.Equal([]byte(received), []byte(expected)) {
		return nil, ErrInvalidSignature
	}

	amount := 0.0
	if raw, err := strconv.ParseInt(params["amount"], 10, 64); err == nil {
		amount = float64(raw)
	}

	code := params["resultCode"]
	return &CallbackResult{
		TxnRef:        params["orderId"],
		Success:       code == "0",
		Amount:        amount,
		ProviderTxnID: params["transId"],
		ResponseCode:  code,
	}, nil
}

// sign computes the lowercase hex HMAC-SHA256 of the raw string
func (m *MoMo) sign(raw string) string {
	mac := hmac.New(sha256.New, []byte(m.cfg.SecretKey))
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}
