package models

import "time"

// AgentStats is the per-partner line of the admin commission report.
type AgentStats struct {
	ID           ID      `json:"id" bson:"partner_id"`
	Name         string  `json:"name" bson:"name"`
	Role         string  `json:"role" bson:"role"`
	Rate         float64 `json:"rate" bson:"rate"`
	PaidCount    int     `json:"paidCount" bson:"paid_count"`
	UnpaidCount  int     `json:"unpaidCount" bson:"unpaid_count"`
	TotalRevenue float64 `json:"totalRevenue" bson:"total_revenue"`
	Commission   float64 `json:"commission" bson:"commission"`
}

// GrandTotal summarizes cash received and commission owed for a period.
type GrandTotal struct {
	Revenue    float64 `json:"revenue" bson:"revenue"`
	Commission float64 `json:"commission" bson:"commission"`
	NetRevenue float64 `json:"netRevenue" bson:"net_revenue"`
}

// AdminReport is the operator-wide commission view.
type AdminReport struct {
	Role       string       `json:"role"`
	Agents     []AgentStats `json:"agents"`
	GrandTotal GrandTotal   `json:"grandTotal"`
}

// ViewerRole implements the stats report contract.
func (r *AdminReport) ViewerRole() string { return r.Role }

// PartnerStats are a single partner's own totals.
type PartnerStats struct {
	TotalRevenue float64 `json:"totalRevenue"`
	Commission   float64 `json:"commission"`
	PaidCount    int     `json:"paidCount"`
	UnpaidCount  int     `json:"unpaidCount"`
}

// PartnerReport is the self view returned to partners.
type PartnerReport struct {
	Role  string       `json:"role"`
	Stats PartnerStats `json:"stats"`
}

// ViewerRole implements the stats report contract.
func (r *PartnerReport) ViewerRole() string { return r.Role }

// AdminMonthStats is one month of the admin yearly breakdown. Name is the
// chart label.
type AdminMonthStats struct {
	Month int    `json:"month"`
	Name  string `json:"name"`
	GrandTotal
}

// NewAdminMonthStats labels one month of operator totals.
func NewAdminMonthStats(month int, total GrandTotal) AdminMonthStats {
	return AdminMonthStats{Month: month, Name: MonthLabel(month), GrandTotal: total}
}

// PartnerMonthStats is one month of the partner yearly breakdown. Revenue
// repeats TotalRevenue under the key the chart plots.
type PartnerMonthStats struct {
	Month   int     `json:"month"`
	Name    string  `json:"name"`
	Revenue float64 `json:"revenue"`
	PartnerStats
}

// NewPartnerMonthStats labels one month of a partner's totals.
func NewPartnerMonthStats(month int, stats PartnerStats) PartnerMonthStats {
	return PartnerMonthStats{Month: month, Name: MonthLabel(month), Revenue: stats.TotalRevenue, PartnerStats: stats}
}

// MonthLabel returns the short English name of a zero-based month.
func MonthLabel(month int) string {
	if month < 0 || month > 11 {
		return ""
	}
	return time.Month(month + 1).String()[:3]
}

// AdminYearlyReport holds twelve zero-based months of operator totals.
type AdminYearlyReport struct {
	Role        string            `json:"role"`
	Year        int               `json:"year"`
	YearlyStats []AdminMonthStats `json:"yearlyStats"`
}

// ViewerRole implements the stats report contract.
func (r *AdminYearlyReport) ViewerRole() string { return r.Role }

// PartnerYearlyReport holds twelve zero-based months of a partner's totals.
type PartnerYearlyReport struct {
	Role        string              `json:"role"`
	Year        int                 `json:"year"`
	YearlyStats []PartnerMonthStats `json:"yearlyStats"`
}

// ViewerRole implements the stats report contract.
func (r *PartnerYearlyReport) ViewerRole() string { return r.Role }

// CommissionSnapshot is the archived admin report of a closed month.
type CommissionSnapshot struct {
	Month      int          `bson:"month" json:"month"`
	Year       int          `bson:"year" json:"year"`
	Agents     []AgentStats `bson:"agents" json:"agents"`
	GrandTotal GrandTotal   `bson:"grand_total" json:"grandTotal"`
	CreatedAt  time.Time    `bson:"created_at" json:"createdAt"`
}
