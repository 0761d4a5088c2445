package mailer

import (
	"fmt"
	"strings"
	"time"
)

// TicketDetails is the data rendered into ticket and reminder emails
type TicketDetails struct {
	Reference   string
	Name        string
	RouteName   string
	DepartAt    time.Time
	Seats       []string
	Pickup      string
	Dropoff     string
	Amount      float64
	Currency    string
}

// TicketPaidMessage builds the "ticket paid" email for a booking
func TicketPaidMessage(toEmail string, d TicketDetails) *Message {
	html := fmt.Sprintf(`
		<h2>Vé của bạn đã được thanh toán</h2>
		<p>Xin chào %s,</p>
		<p>Mã đặt chỗ: <strong>%s</strong></p>
		<p>Tuyến: %s</p>
		<p>Khởi hành: %s</p>
		<p>Ghế: %s</p>
		<p>Điểm đón: %s — Điểm trả: %s</p>
		<p>Tổng tiền: %.0f %s</p>
		<p>Vui lòng có mặt tại điểm đón trước giờ khởi hành 15 phút.</p>`,
		d.Name, d.Reference, d.RouteName,
		d.DepartAt.Format("15:04 02/01/2006"),
		strings.Join(d.Seats, ", "),
		d.Pickup, d.Dropoff, d.Amount, d.Currency,
	)

	return &Message{
		ToName:  d.Name,
		ToEmail: toEmail,
		Subject: fmt.Sprintf("Vé %s — thanh toán thành công", d.Reference),
		HTML:    html,
	}
}

// ReminderMessage builds the departure reminder email for a booking
func ReminderMessage(toEmail string, d TicketDetails) *Message {
	html := fmt.Sprintf(`
		<h2>Sắp đến giờ khởi hành</h2>
		<p>Xin chào %s,</p>
		<p>Chuyến %s của bạn (mã %s) khởi hành lúc <strong>%s</strong>.</p>
		<p>Ghế: %s — Điểm đón: %s</p>`,
		d.Name, d.RouteName, d.Reference,
		d.DepartAt.Format("15:04 02/01/2006"),
		strings.Join(d.Seats, ", "), d.Pickup,
	)

	return &Message{
		ToName:  d.Name,
		ToEmail: toEmail,
		Subject: fmt.Sprintf("Nhắc chuyến %s — %s", d.Reference, d.DepartAt.Format("15:04 02/01")),
		HTML:    html,
	}
}
