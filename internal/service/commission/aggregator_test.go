package commission

import (
	"testing"
	"time"

	"github.com/mamadbah2/isp-dashboard/internal/domain/models"
)

var jakarta = time.FixedZone("WIB", 7*60*60)

func payment(user string, amount float64, status, date string) models.Payment {
	return models.Payment{Username: user, Amount: models.Number(amount), Status: status, Date: models.Timestamp(date)}
}

func TestAdminExample(t *testing.T) {
	ds := Dataset{
		Payments:  []models.Payment{payment("u1", 100000, "completed", "2024-03-01T20:00:00Z")},
		Customers: map[string]models.Customer{"u1": {AgentID: "5"}},
		Users:     []models.User{{ID: "5", Username: "agentA", Role: "partner", AgentRate: 10}},
	}

	report := NewAggregator(jakarta).Admin(ds, MonthOf(2, 2024))

	if len(report.Agents) != 1 {
		t.Fatalf("agents = %+v, want one", report.Agents)
	}
	want := models.AgentStats{ID: "5", Name: "agentA", Role: "partner", Rate: 10, PaidCount: 1, UnpaidCount: 0, TotalRevenue: 100000, Commission: 10000}
	if report.Agents[0] != want {
		t.Fatalf("agent = %+v, want %+v", report.Agents[0], want)
	}
	wantTotal := models.GrandTotal{Revenue: 100000, Commission: 10000, NetRevenue: 90000}
	if report.GrandTotal != wantTotal {
		t.Fatalf("grand total = %+v, want %+v", report.GrandTotal, wantTotal)
	}
	if report.Role != "admin" {
		t.Fatalf("role = %q", report.Role)
	}
}

func TestGrandRevenueIncludesOrphans(t *testing.T) {
	ds := Dataset{
		Payments: []models.Payment{
			payment("u1", 100, "completed", "2024-01-10T00:00:00Z"),
			payment("ghost", 250, "completed", "2024-01-11T00:00:00Z"),
			payment("u1", 999, "pending", "2024-01-12T00:00:00Z"),
		},
		Customers: map[string]models.Customer{"u1": {AgentID: "5"}},
		Users:     []models.User{{ID: "5", Username: "a", AgentRate: 10}},
	}

	report := NewAggregator(jakarta).Admin(ds, AllTime())

	if report.GrandTotal.Revenue != 350 {
		t.Fatalf("grand revenue = %v, want 350", report.GrandTotal.Revenue)
	}
	if report.GrandTotal.Commission != 10 || report.GrandTotal.NetRevenue != 340 {
		t.Fatalf("grand total = %+v", report.GrandTotal)
	}
	if got := report.Agents[0]; got.TotalRevenue != 100 || got.PaidCount != 1 || got.UnpaidCount != 1 {
		t.Fatalf("agent = %+v", got)
	}
}

func TestSharedAgentTechnicianCountedOnce(t *testing.T) {
	ds := Dataset{
		Payments: []models.Payment{
			payment("u1", 200000, "completed", "2024-05-02T03:00:00Z"),
			payment("u1", 200000, "pending", "2024-05-20T03:00:00Z"),
		},
		Customers: map[string]models.Customer{"u1": {AgentID: "9", TechnicianID: "9"}},
		Users:     []models.User{{ID: "9", Username: "both", Role: "partner", AgentRate: 10, TechnicianRate: 5}},
	}

	report := NewAggregator(jakarta).Admin(ds, MonthOf(4, 2024))

	if len(report.Agents) != 1 {
		t.Fatalf("agents = %+v", report.Agents)
	}
	got := report.Agents[0]
	if got.TotalRevenue != 200000 {
		t.Errorf("revenue = %v, want 200000 (once)", got.TotalRevenue)
	}
	if got.Commission != 30000 {
		t.Errorf("commission = %v, want both rates summed (30000)", got.Commission)
	}
	if got.PaidCount != 1 || got.UnpaidCount != 1 {
		t.Errorf("counts = %d/%d, want 1/1", got.PaidCount, got.UnpaidCount)
	}
	if got.Rate != 10 {
		t.Errorf("rate = %v, want agent rate from first reference", got.Rate)
	}
	if report.GrandTotal.Revenue != 200000 || report.GrandTotal.Commission != 30000 {
		t.Errorf("grand total = %+v", report.GrandTotal)
	}
}

func TestDistinctAgentAndTechnician(t *testing.T) {
	ds := Dataset{
		Payments: []models.Payment{
			payment("u1", 100000, "completed", "2024-05-02T03:00:00Z"),
			payment("u2", 50000, "pending", "2024-05-03T03:00:00Z"),
		},
		Customers: map[string]models.Customer{
			"u1": {AgentID: "1", TechnicianID: "2"},
			"u2": {TechnicianID: "2"},
		},
		Users: []models.User{
			{ID: "2", Username: "tech", TechnicianRate: 5},
			{ID: "1", Username: "agent", AgentRate: 10},
		},
	}

	report := NewAggregator(jakarta).Admin(ds, AllTime())

	if len(report.Agents) != 2 || report.Agents[0].ID != "1" || report.Agents[1].ID != "2" {
		t.Fatalf("agents not in first-reference order: %+v", report.Agents)
	}
	agent, tech := report.Agents[0], report.Agents[1]
	if agent.TotalRevenue != 100000 || agent.Commission != 10000 || agent.PaidCount != 1 {
		t.Errorf("agent = %+v", agent)
	}
	if tech.TotalRevenue != 100000 || tech.Commission != 5000 || tech.PaidCount != 1 || tech.UnpaidCount != 1 {
		t.Errorf("tech = %+v", tech)
	}
	if tech.Rate != 5 {
		t.Errorf("tech rate = %v", tech.Rate)
	}
}

func TestNonCompletedAddsOnlyUnpaid(t *testing.T) {
	ds := Dataset{
		Payments:  []models.Payment{payment("u1", 100000, "pending", "2024-05-02T03:00:00Z")},
		Customers: map[string]models.Customer{"u1": {AgentID: "1", TechnicianID: "2"}},
		Users:     []models.User{{ID: "1", AgentRate: 10}, {ID: "2", TechnicianRate: 5}},
	}

	report := NewAggregator(jakarta).Admin(ds, AllTime())

	for _, a := range report.Agents {
		if a.Commission != 0 || a.TotalRevenue != 0 || a.PaidCount != 0 || a.UnpaidCount != 1 {
			t.Errorf("partner %s = %+v, want only one unpaid", a.ID, a)
		}
	}
	if report.GrandTotal != (models.GrandTotal{}) {
		t.Errorf("grand total = %+v, want zero", report.GrandTotal)
	}
}

func TestUnresolvedPartnersAreSkipped(t *testing.T) {
	ds := Dataset{
		Payments:  []models.Payment{payment("u1", 1000, "completed", "2024-05-02T03:00:00Z")},
		Customers: map[string]models.Customer{"u1": {AgentID: "404", TechnicianID: "2"}},
		Users:     []models.User{{ID: "2", Username: "tech", TechnicianRate: 10}},
	}

	report := NewAggregator(jakarta).Admin(ds, AllTime())

	if len(report.Agents) != 1 || report.Agents[0].ID != "2" {
		t.Fatalf("agents = %+v", report.Agents)
	}
	if got := report.Agents[0]; got.TotalRevenue != 1000 || got.Commission != 100 || got.PaidCount != 1 {
		t.Fatalf("tech = %+v", got)
	}
}

func TestMonthFilterUsesRegionalCalendar(t *testing.T) {
	// 2024-03-31 20:00 UTC is 2024-04-01 03:00 in UTC+7.
	ds := Dataset{
		Payments:  []models.Payment{payment("u1", 100, "completed", "2024-03-31T20:00:00Z")},
		Customers: map[string]models.Customer{},
	}
	agg := NewAggregator(jakarta)

	if got := agg.Admin(ds, MonthOf(2, 2024)).GrandTotal.Revenue; got != 0 {
		t.Errorf("March revenue = %v, want 0", got)
	}
	if got := agg.Admin(ds, MonthOf(3, 2024)).GrandTotal.Revenue; got != 100 {
		t.Errorf("April revenue = %v, want 100", got)
	}
	if got := agg.Admin(ds, AllTime()).GrandTotal.Revenue; got != 100 {
		t.Errorf("unfiltered revenue = %v, want 100", got)
	}
}

func TestFilterDropsUndatedPayments(t *testing.T) {
	payments := []models.Payment{payment("u1", 1, "completed", ""), payment("u1", 1, "completed", "garbage")}
	agg := NewAggregator(jakarta)

	if got := agg.Filter(payments, MonthOf(0, 2024)); len(got) != 0 {
		t.Fatalf("filtered = %v, want none", got)
	}
	if got := agg.Filter(payments, AllTime()); len(got) != 2 {
		t.Fatalf("unfiltered = %v, want all", got)
	}
}

func TestPartnerViewIsolation(t *testing.T) {
	ds := Dataset{
		Payments: []models.Payment{
			payment("mine", 100000, "completed", "2024-05-02T03:00:00Z"),
			payment("theirs", 500000, "completed", "2024-05-02T03:00:00Z"),
			payment("installed", 40000, "completed", "2024-05-03T03:00:00Z"),
			payment("mine", 100000, "pending", "2024-05-04T03:00:00Z"),
		},
		Customers: map[string]models.Customer{
			"mine":      {AgentID: "5", TechnicianID: "6"},
			"theirs":    {AgentID: "6"},
			"installed": {AgentID: "6", TechnicianID: "5"},
		},
	}
	viewer := models.NewPrincipal(models.User{ID: "5", Username: "me", Role: "partner", AgentRate: 10, TechnicianRate: 5, IsAgent: true, IsTechnician: true})

	report := NewAggregator(jakarta).Partner(ds, AllTime(), viewer)

	want := models.PartnerStats{TotalRevenue: 140000, Commission: 12000, PaidCount: 2, UnpaidCount: 1}
	if report.Stats != want {
		t.Fatalf("stats = %+v, want %+v", report.Stats, want)
	}
	if report.Role != "partner" {
		t.Fatalf("role = %q", report.Role)
	}
}

func TestPartnerViewSharedRoles(t *testing.T) {
	ds := Dataset{
		Payments:  []models.Payment{payment("u1", 100000, "completed", "2024-05-02T03:00:00Z")},
		Customers: map[string]models.Customer{"u1": {AgentID: "5", TechnicianID: "5"}},
	}
	viewer := models.NewPrincipal(models.User{ID: "5", Role: "partner", AgentRate: 10, TechnicianRate: 5, IsAgent: true, IsTechnician: true})

	stats := NewAggregator(jakarta).Partner(ds, AllTime(), viewer).Stats

	if stats.TotalRevenue != 100000 || stats.Commission != 15000 || stats.PaidCount != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestPartnerViewRequiresCapability(t *testing.T) {
	ds := Dataset{
		Payments:  []models.Payment{payment("u1", 100000, "completed", "2024-05-02T03:00:00Z")},
		Customers: map[string]models.Customer{"u1": {AgentID: "5"}},
	}
	// Assigned as agent but without the agent capability.
	viewer := models.NewPrincipal(models.User{ID: "5", Role: "partner", AgentRate: 10})

	stats := NewAggregator(jakarta).Partner(ds, AllTime(), viewer).Stats
	if stats != (models.PartnerStats{}) {
		t.Fatalf("stats = %+v, want zero", stats)
	}
}
