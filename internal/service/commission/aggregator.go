package commission

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/isp-dashboard/internal/domain/models"
)

var hundred = decimal.NewFromInt(100)

// Dataset is one snapshot of the three collections the aggregator reads.
type Dataset struct {
	Payments  []models.Payment
	Customers map[string]models.Customer
	Users     []models.User
}

// Period restricts payments to one zero-based month of a year. The zero
// value matches every payment.
type Period struct {
	Month int
	Year  int
	set   bool
}

// AllTime matches every payment, dated or not.
func AllTime() Period {
	return Period{}
}

// MonthOf matches payments made in the given zero-based month and year.
func MonthOf(month, year int) Period {
	return Period{Month: month, Year: year, set: true}
}

// Filtered reports whether the period restricts anything.
func (p Period) Filtered() bool {
	return p.set
}

// Aggregator computes partner commissions. It holds no state besides the
// billing calendar zone and is safe for concurrent use.
type Aggregator struct {
	loc *time.Location
}

// NewAggregator builds an aggregator that buckets payment dates in loc.
func NewAggregator(loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.FixedZone("UTC+7", 7*60*60)
	}
	return &Aggregator{loc: loc}
}

// Filter keeps the payments whose local calendar month falls in period.
// Payments without a parseable date never match a filtered period.
func (a *Aggregator) Filter(payments []models.Payment, period Period) []models.Payment {
	if !period.Filtered() {
		return payments
	}

	out := make([]models.Payment, 0, len(payments))
	for _, p := range payments {
		t, ok := p.Time()
		if !ok {
			continue
		}
		local := t.In(a.loc)
		if int(local.Month())-1 == period.Month && local.Year() == period.Year {
			out = append(out, p)
		}
	}
	return out
}

type partnerTally struct {
	stats      models.AgentStats
	revenue    decimal.Decimal
	commission decimal.Decimal
}

// Admin builds the operator-wide report. Partners appear in the order they
// are first referenced by a payment's customer; partners with no payment in
// the period are absent.
func (a *Aggregator) Admin(ds Dataset, period Period) *models.AdminReport {
	users := indexUsers(ds.Users)

	var order []*partnerTally
	tallies := make(map[models.ID]*partnerTally)
	ensure := func(u models.User, rate models.Number) *partnerTally {
		if t, ok := tallies[u.ID]; ok {
			return t
		}
		t := &partnerTally{stats: models.AgentStats{
			ID:   u.ID,
			Name: u.Username,
			Role: u.Role,
			Rate: rate.Float64(),
		}}
		tallies[u.ID] = t
		order = append(order, t)
		return t
	}

	grandRevenue := decimal.Zero
	grandCommission := decimal.Zero

	for _, p := range a.Filter(ds.Payments, period) {
		amount := decimal.NewFromFloat(p.Amount.Float64())
		completed := p.Completed()

		// Grand total is all cash received, with or without a partner.
		if completed {
			grandRevenue = grandRevenue.Add(amount)
		}

		customer, ok := ds.Customers[p.Username]
		if !ok {
			continue
		}

		var agent, tech *partnerTally

		if customer.AgentID != "" {
			if u, ok := users[customer.AgentID]; ok {
				agent = ensure(u, u.AgentRate)
				if completed {
					comm := commissionOf(amount, u.AgentRate)
					agent.commission = agent.commission.Add(comm)
					agent.revenue = agent.revenue.Add(amount)
					grandCommission = grandCommission.Add(comm)
				}
			}
		}

		if customer.TechnicianID != "" {
			if u, ok := users[customer.TechnicianID]; ok {
				tech = ensure(u, u.TechnicianRate)
				if completed {
					comm := commissionOf(amount, u.TechnicianRate)
					tech.commission = tech.commission.Add(comm)
					if !customer.SharedPartner() {
						tech.revenue = tech.revenue.Add(amount)
					}
					grandCommission = grandCommission.Add(comm)
				}
			}
		}

		if agent != nil {
			countPayment(&agent.stats.PaidCount, &agent.stats.UnpaidCount, completed)
		}
		if tech != nil && (customer.AgentID == "" || !customer.SharedPartner()) {
			countPayment(&tech.stats.PaidCount, &tech.stats.UnpaidCount, completed)
		}
	}

	agents := make([]models.AgentStats, 0, len(order))
	for _, t := range order {
		t.stats.TotalRevenue = t.revenue.InexactFloat64()
		t.stats.Commission = t.commission.InexactFloat64()
		agents = append(agents, t.stats)
	}

	return &models.AdminReport{
		Role:   models.RoleAdmin,
		Agents: agents,
		GrandTotal: models.GrandTotal{
			Revenue:    grandRevenue.InexactFloat64(),
			Commission: grandCommission.InexactFloat64(),
			NetRevenue: grandRevenue.Sub(grandCommission).InexactFloat64(),
		},
	}
}

// Partner builds the viewer's own totals. Only customers assigned to the
// viewer count, and only for the roles the viewer actually holds.
func (a *Aggregator) Partner(ds Dataset, period Period, viewer models.Principal) *models.PartnerReport {
	revenue := decimal.Zero
	commission := decimal.Zero
	var stats models.PartnerStats

	if viewer.ID == "" {
		return &models.PartnerReport{Role: models.RolePartner, Stats: stats}
	}

	agentRate := decimal.NewFromFloat(viewer.AgentRate)
	techRate := decimal.NewFromFloat(viewer.TechnicianRate)

	for _, p := range a.Filter(ds.Payments, period) {
		customer, ok := ds.Customers[p.Username]
		if !ok {
			continue
		}

		amount := decimal.NewFromFloat(p.Amount.Float64())
		completed := p.Completed()
		asAgent := customer.AgentID == viewer.ID && viewer.Can(models.CapabilityAgent)
		asTech := customer.TechnicianID == viewer.ID && viewer.Can(models.CapabilityTechnician)

		if asAgent && completed {
			commission = commission.Add(amount.Mul(agentRate).Div(hundred))
			revenue = revenue.Add(amount)
		}

		if asTech && completed {
			commission = commission.Add(amount.Mul(techRate).Div(hundred))
			if customer.AgentID != viewer.ID {
				revenue = revenue.Add(amount)
			}
		}

		if asAgent || asTech {
			countPayment(&stats.PaidCount, &stats.UnpaidCount, completed)
		}
	}

	stats.TotalRevenue = revenue.InexactFloat64()
	stats.Commission = commission.InexactFloat64()

	return &models.PartnerReport{Role: models.RolePartner, Stats: stats}
}

func commissionOf(amount decimal.Decimal, rate models.Number) decimal.Decimal {
	return amount.Mul(decimal.NewFromFloat(rate.Float64())).Div(hundred)
}

func countPayment(paid, unpaid *int, completed bool) {
	if completed {
		*paid++
		return
	}
	*unpaid++
}

// indexUsers keys users by id; the first user with a given id wins.
func indexUsers(users []models.User) map[models.ID]models.User {
	index := make(map[models.ID]models.User, len(users))
	for _, u := range users {
		if u.ID == "" {
			continue
		}
		if _, seen := index[u.ID]; !seen {
			index[u.ID] = u
		}
	}
	return index
}
