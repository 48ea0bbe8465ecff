package models

import (
	"time"

	"github.com/goccy/go-json"
)

// PaymentStatusCompleted marks a payment whose funds were received.
const PaymentStatusCompleted = "completed"

// PaymentStatusPending marks an invoice that has not been paid yet.
const PaymentStatusPending = "pending"

// Payment mirrors one entry of the billing payments file. A payment decoded
// from the file keeps the record as read and is written back with only the
// changes made through Apply, so keys this service does not model survive.
type Payment struct {
	ID            ID        `json:"id"`
	Username      string    `json:"username"`
	Amount        Number    `json:"amount"`
	Status        string    `json:"status"`
	Date          Timestamp `json:"date,omitempty"`
	Month         *Number   `json:"month,omitempty"` // zero-based invoice month
	Year          *Number   `json:"year,omitempty"`
	InvoiceNumber string    `json:"invoiceNumber,omitempty"`
	Method        string    `json:"method,omitempty"`
	Notes         string    `json:"notes,omitempty"`

	record map[string]json.RawMessage
}

type paymentFields Payment

// UnmarshalJSON decodes the typed fields and remembers the raw record.
func (p *Payment) UnmarshalJSON(data []byte) error {
	var record map[string]json.RawMessage
	if err := json.Unmarshal(data, &record); err != nil {
		return err
	}
	var fields paymentFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*p = Payment(fields)
	p.record = record
	return nil
}

// MarshalJSON writes a decoded payment back in its original form.
func (p Payment) MarshalJSON() ([]byte, error) {
	if p.record == nil {
		return json.Marshal(paymentFields(p))
	}
	return json.Marshal(p.record)
}

// Apply records an operator update. Completing the payment stamps it with
// completedAt in UTC.
func (p *Payment) Apply(update PaymentUpdate, completedAt time.Time) {
	p.Status = update.Status
	p.set("status", p.Status)
	if p.Completed() {
		p.Date = Timestamp(completedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"))
		p.set("date", p.Date)
	}
	if update.Amount != nil && *update.Amount != 0 {
		p.Amount = *update.Amount
		p.set("amount", p.Amount.Float64())
	}
	if update.Notes != nil {
		p.Notes = *update.Notes
		p.set("notes", p.Notes)
	}
}

func (p *Payment) set(key string, v any) {
	if p.record == nil {
		return
	}
	if data, err := json.Marshal(v); err == nil {
		p.record[key] = data
	}
}

// Completed reports whether the payment counts as received cash.
func (p Payment) Completed() bool {
	return p.Status == PaymentStatusCompleted
}

// Time parses the payment timestamp. The second value is false when the
// date is missing or cannot be parsed.
func (p Payment) Time() (time.Time, bool) {
	if p.Date == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, string(p.Date)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// InvoicePeriod returns the zero-based month and year the payment bills for.
// Stored month/year fields win; otherwise the payment date in loc is used.
func (p Payment) InvoicePeriod(loc *time.Location) (month, year int, ok bool) {
	if p.Month != nil && p.Year != nil {
		return int(*p.Month), int(*p.Year), true
	}
	t, ok := p.Time()
	if !ok {
		return 0, 0, false
	}
	local := t.In(loc)
	return int(local.Month()) - 1, local.Year(), true
}

// PaymentUpdate is the body accepted when an operator changes a payment.
type PaymentUpdate struct {
	Status string  `json:"status" binding:"required"`
	Amount *Number `json:"amount"`
	Notes  *string `json:"notes"`
}

// BillingSummary holds the headline billing figures shown on the dashboard.
type BillingSummary struct {
	TotalRevenue     float64 `json:"totalRevenue"`
	ThisMonthRevenue float64 `json:"thisMonthRevenue"`
	TodaysRevenue    float64 `json:"todaysRevenue"`
	TotalUnpaid      float64 `json:"totalUnpaid"`
	PendingCount     int     `json:"pendingCount"`
}
