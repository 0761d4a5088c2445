package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentMethodIsGateway(t *testing.T) {
	assert.False(t, PaymentMethodCOD.IsGateway())
	assert.True(t, PaymentMethodVNPay.IsGateway())
	assert.True(t, PaymentMethodMoMo.IsGateway())
	assert.True(t, PaymentMethodZaloPay.IsGateway())
}

func TestValidPaymentMethod(t *testing.T) {
	for _, m := range []string{"cod", "vnpay", "momo", "zalopay"} {
		assert.True(t, ValidPaymentMethod(m), m)
	}
	for _, m := range []string{"", "cash", "stripe", "COD"} {
		assert.False(t, ValidPaymentMethod(m), m)
	}
}

func TestBookingCanBeCancelled(t *testing.T) {
	now := time.Now()
	cancelBefore := 2 * time.Hour

	base := func() *Booking {
		return &Booking{
			Status:        BookingStatusConfirmed,
			PaymentStatus: PaymentStatusPaid,
		}
	}

	t.Run("well before departure", func(t *testing.T) {
		assert.NoError(t, base().CanBeCancelled(now.Add(48*time.Hour), now, cancelBefore))
	})

	t.Run("exactly at the threshold is still allowed", func(t *testing.T) {
		assert.NoError(t, base().CanBeCancelled(now.Add(cancelBefore), now, cancelBefore))
	})

	t.Run("inside the window", func(t *testing.T) {
		err := base().CanBeCancelled(now.Add(time.Hour), now, cancelBefore)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too close to departure")
	})

	t.Run("already cancelled", func(t *testing.T) {
		b := base()
		b.Status = BookingStatusCancelled
		err := b.CanBeCancelled(now.Add(48*time.Hour), now, cancelBefore)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cancelled")
	})

	t.Run("completed trip", func(t *testing.T) {
		b := base()
		b.Status = BookingStatusCompleted
		assert.Error(t, b.CanBeCancelled(now.Add(48*time.Hour), now, cancelBefore))
	})

	t.Run("checked in", func(t *testing.T) {
		b := base()
		b.CheckedIn = true
		err := b.CanBeCancelled(now.Add(48*time.Hour), now, cancelBefore)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "checked in")
	})
}

func TestBookingStateHelpers(t *testing.T) {
	paid := &Booking{PaymentStatus: PaymentStatusPaid, Status: BookingStatusConfirmed}
	assert.True(t, paid.IsPaid())
	assert.False(t, paid.IsTerminal())

	pending := &Booking{PaymentStatus: PaymentStatusPending, Status: BookingStatusPending}
	assert.False(t, pending.IsPaid())
	assert.False(t, pending.IsTerminal())

	cancelled := &Booking{Status: BookingStatusCancelled}
	assert.True(t, cancelled.IsTerminal())
}

func TestConfirmBookingRequestValidate(t *testing.T) {
	req := &ConfirmBookingRequest{PaymentMethod: "cod"}
	assert.NoError(t, req.Validate())

	req.PaymentMethod = "paypal"
	err := req.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "paypal")
}

func TestCustomerInfoFromRequest(t *testing.T) {
	email := "a@example.com"
	req := &ConfirmBookingRequest{
		Name:    "Nguyen Van A",
		Phone:   "0901234567",
		Email:   &email,
		Pickup:  "Bến xe Miền Đông",
		Dropoff: "La Gi",
	}

	info := req.CustomerInfoFromRequest()
	assert.Equal(t, "Nguyen Van A", info.Name)
	assert.Equal(t, "0901234567", info.Phone)
	require.NotNil(t, info.Email)
	assert.Equal(t, email, *info.Email)
}
