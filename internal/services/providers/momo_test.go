package providers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lagiexpress/booking-backend/internal/config"
)

func testMoMoConfig() config.MoMoConfig {
	return config.MoMoConfig{
		PartnerCode: "MOMOTEST",
		AccessKey:   "test-access-key",
		SecretKey:   "test-secret-key",
		ReturnURL:   "http://localhost:8080/payment/momo/return",
		IPNURL:      "http://localhost:8080/api/v1/payments/momo/ipn",
	}
}

// signedMoMoParams self-signs an IPN parameter set the way the wallet would
func signedMoMoParams(m *MoMo, params map[string]string) map[string]string {
	raw := "accessKey=" + m.cfg.AccessKey +
		"&amount=" + params["amount"] +
		"&extraData=" + params["extraData"] +
		"&message=" + params["message"] +
		"&orderId=" + params["orderId"] +
		"&orderInfo=" + params["orderInfo"] +
		"&orderType=" + params["orderType"] +
		"&partnerCode=" + params["partnerCode"] +
		"&payType=" + params["payType"] +
		"&requestId=" + params["requestId"] +
		"&responseTime=" + params["responseTime"] +
		"&resultCode=" + params["resultCode"] +
		"&transId=" + params["transId"]

	signed := make(map[string]string, len(params)+1)
	for k, v := range params {
		signed[k] = v
	}
	signed["signature"] = m.sign(raw)
	return signed
}

func TestMoMoBuildPayURL(t *testing.T) {
	t.Run("successful checkout", func(t *testing.T) {
		var received createRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
			json.NewEncoder(w).Encode(createResponse{
				PayURL:     "https://test-payment.momo.vn/pay/abc123",
				ResultCode: 0,
			})
		}))
		defer server.Close()

		cfg := testMoMoConfig()
		cfg.Endpoint = server.URL
		m := NewMoMo(cfg)

		payURL, err := m.BuildPayURL(CheckoutParams{
			TxnRef:    "LG-20260901-XYZ789-1756300000",
			Amount:    360000,
			OrderInfo: "Ve xe LG-20260901-XYZ789",
		})
		require.NoError(t, err)
		assert.Equal(t, "https://test-payment.momo.vn/pay/abc123", payURL)

		assert.Equal(t, "MOMOTEST", received.PartnerCode)
		assert.Equal(t, int64(360000), received.Amount)
		assert.Equal(t, "LG-20260901-XYZ789-1756300000", received.OrderID)
		assert.Equal(t, "captureWallet", received.RequestType)
		assert.NotEmpty(t, received.Signature)
	})

	t.Run("gateway rejection", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(createResponse{
				ResultCode: 41,
				Message:    "duplicate orderId",
			})
		}))
		defer server.Close()

		cfg := testMoMoConfig()
		cfg.Endpoint = server.URL
		m := NewMoMo(cfg)

		_, err := m.BuildPayURL(CheckoutParams{TxnRef: "LG-X", Amount: 1000})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate orderId")
	})
}

func TestMoMoVerifyCallback(t *testing.T) {
	m := NewMoMo(testMoMoConfig())

	base := map[string]string{
		"partnerCode":  "MOMOTEST",
		"orderId":      "LG-20260901-XYZ789-1756300000",
		"requestId":    "req-1",
		"amount":       "360000",
		"orderInfo":    "Ve xe LG-20260901-XYZ789",
		"orderType":    "momo_wallet",
		"transId":      "9007199254",
		"resultCode":   "0",
		"message":      "Successful.",
		"payType":      "qr",
		"responseTime": "1756300123000",
		"extraData":    "",
	}

	t.Run("valid success callback", func(t *testing.T) {
		result, err := m.VerifyCallback(signedMoMoParams(m, base))
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "LG-20260901-XYZ789-1756300000", result.TxnRef)
		assert.Equal(t, 360000.0, result.Amount)
		assert.Equal(t, "9007199254", result.ProviderTxnID)
	})

	t.Run("failed payment verifies but is not a success", func(t *testing.T) {
		failed := make(map[string]string, len(base))
		for k, v := range base {
			failed[k] = v
		}
		failed["resultCode"] = "1006" // user cancelled
		failed["message"] = "Transaction denied by user."

		result, err := m.VerifyCallback(signedMoMoParams(m, failed))
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "1006", result.ResponseCode)
	})

	t.Run("tampered amount", func(t *testing.T) {
		params := signedMoMoParams(m, base)
		params["amount"] = "1"
		_, err := m.VerifyCallback(params)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("missing signature", func(t *testing.T) {
		_, err := m.VerifyCallback(base)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("wrong secret", func(t *testing.T) {
		cfg := testMoMoConfig()
		cfg.SecretKey = "different-secret"
		other := NewMoMo(cfg)

		_, err := other.VerifyCallback(signedMoMoParams(m, base))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})
}
