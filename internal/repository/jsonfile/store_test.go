package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/mamadbah2/isp-dashboard/internal/config"
	"github.com/mamadbah2/isp-dashboard/internal/domain/models"
)

func newTestStore(t *testing.T) (*Store, config.StorageConfig) {
	t.Helper()
	dir := t.TempDir()
	paths := config.StorageConfig{
		DataDir:       dir,
		PaymentsFile:  filepath.Join(dir, "billing-payments.json"),
		CustomersFile: filepath.Join(dir, "customer-data.json"),
		UsersFile:     filepath.Join(dir, "data", "users.json"),
		SettingsFile:  filepath.Join(dir, "billing-settings.json"),
		AppConfigFile: filepath.Join(dir, "data", "config.json"),
	}
	return NewStore(paths, nil), paths
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestMissingFilesAreEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	payments, err := s.LoadPayments(ctx)
	if err != nil || len(payments) != 0 || payments == nil {
		t.Fatalf("payments = %v, %v; want empty non-nil", payments, err)
	}
	customers, err := s.LoadCustomers(ctx)
	if err != nil || len(customers) != 0 {
		t.Fatalf("customers = %v, %v", customers, err)
	}
	users, err := s.LoadUsers(ctx)
	if err != nil || len(users) != 0 {
		t.Fatalf("users = %v, %v", users, err)
	}
	if _, found, err := s.LoadSettings(ctx); err != nil || found {
		t.Fatalf("settings found=%v err=%v, want not found", found, err)
	}
}

func TestMalformedFilesAreEmpty(t *testing.T) {
	s, paths := newTestStore(t)
	writeFile(t, paths.PaymentsFile, `[{"id":1,"username":"u1","amount":100,"status":"completed"},{`)
	writeFile(t, paths.CustomersFile, `not json`)

	payments, err := s.LoadPayments(context.Background())
	if err != nil || len(payments) != 0 {
		t.Fatalf("payments = %v, %v; want empty", payments, err)
	}
	customers, err := s.LoadCustomers(context.Background())
	if err != nil || len(customers) != 0 {
		t.Fatalf("customers = %v, %v; want empty", customers, err)
	}
}

func TestLoadUsersBothShapes(t *testing.T) {
	s, paths := newTestStore(t)

	writeFile(t, paths.UsersFile, `{"users":[{"id":5,"username":"agentA","role":"partner","agentRate":10,"isAgent":true}]}`)
	users, err := s.LoadUsers(context.Background())
	if err != nil || len(users) != 1 {
		t.Fatalf("envelope users = %v, %v", users, err)
	}
	if users[0].ID != "5" || users[0].AgentRate != 10 || !users[0].IsAgent {
		t.Fatalf("unexpected user %+v", users[0])
	}

	writeFile(t, paths.UsersFile, `[{"id":"6","username":"tech","role":"partner"}]`)
	users, err = s.LoadUsers(context.Background())
	if err != nil || len(users) != 1 || users[0].Username != "tech" {
		t.Fatalf("array users = %v, %v", users, err)
	}
}

func TestSavePaymentsRoundTrip(t *testing.T) {
	s, paths := newTestStore(t)
	ctx := context.Background()

	in := []models.Payment{{ID: "1700000000000", Username: "u1", Amount: 150000, Status: models.PaymentStatusPending}}
	if err := s.SavePayments(ctx, in); err != nil {
		t.Fatalf("SavePayments: %v", err)
	}

	raw, err := os.ReadFile(paths.PaymentsFile)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(string(raw), `"id": 1700000000000`) {
		t.Fatalf("numeric id not preserved:\n%s", raw)
	}

	out, err := s.LoadPayments(ctx)
	if err != nil || len(out) != 1 || out[0].ID != in[0].ID || out[0].Amount != 150000 {
		t.Fatalf("round trip = %+v, %v", out, err)
	}

	leftovers, _ := filepath.Glob(filepath.Join(paths.DataDir, ".billing-payments.json.*"))
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestPaymentUpdateKeepsUnknownFields(t *testing.T) {
	s, paths := newTestStore(t)
	ctx := context.Background()
	writeFile(t, paths.PaymentsFile, `[
		{"id":"1","username":"u1","amount":"150000","status":"pending","date":"2024-03-01T00:00:00Z","customerName":"Budi","period":"2024-03"},
		{"id":"2","username":"u2","amount":90000,"status":"pending","createdAt":"x"}
	]`)

	payments, err := s.LoadPayments(ctx)
	if err != nil || len(payments) != 2 {
		t.Fatalf("LoadPayments = %d, %v", len(payments), err)
	}
	payments[0].Apply(models.PaymentUpdate{Status: models.PaymentStatusCompleted}, time.Date(2024, 3, 5, 1, 2, 3, 0, time.UTC))
	if err := s.SavePayments(ctx, payments); err != nil {
		t.Fatalf("SavePayments: %v", err)
	}

	data, err := os.ReadFile(paths.PaymentsFile)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil || len(records) != 2 {
		t.Fatalf("decode %s: %v", data, err)
	}

	first, second := records[0], records[1]
	if first["id"] != "1" || second["id"] != "2" {
		t.Errorf("id form changed: %v, %v", first["id"], second["id"])
	}
	if first["customerName"] != "Budi" || first["period"] != "2024-03" || second["createdAt"] != "x" {
		t.Errorf("unknown keys dropped:\n%s", data)
	}
	if first["status"] != "completed" || first["date"] != "2024-03-05T01:02:03.000Z" {
		t.Errorf("update not written: %v", first)
	}
	if first["amount"] != "150000" || second["status"] != "pending" {
		t.Errorf("untouched values rewritten:\n%s", data)
	}
}

func TestNumericDateKeepsCollection(t *testing.T) {
	s, paths := newTestStore(t)
	ctx := context.Background()
	writeFile(t, paths.PaymentsFile, `[
		{"id":1,"username":"u1","amount":100000,"status":"completed","date":1709251200000},
		{"id":2,"username":"u2","amount":50000,"status":"completed","date":"2024-03-02T00:00:00Z"},
		{"id":3,"username":"u3","amount":70000,"status":"completed","date":true}
	]`)

	payments, err := s.LoadPayments(ctx)
	if err != nil || len(payments) != 3 {
		t.Fatalf("LoadPayments = %d, %v", len(payments), err)
	}
	if got, ok := payments[0].Time(); !ok || !got.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("epoch millis date = %v (%v)", got, ok)
	}
	if _, ok := payments[2].Time(); ok {
		t.Error("boolean date should have no time")
	}

	if err := s.SavePayments(ctx, payments); err != nil {
		t.Fatalf("SavePayments: %v", err)
	}
	data, _ := os.ReadFile(paths.PaymentsFile)
	if !strings.Contains(string(data), "1709251200000") {
		t.Fatalf("numeric date rewritten:\n%s", data)
	}
}

func TestSaveEmailSettingsKeepsOtherKeys(t *testing.T) {
	s, paths := newTestStore(t)
	ctx := context.Background()
	writeFile(t, paths.AppConfigFile, `{"mikrotik":{"host":"10.0.0.1"},"email":{"host":"old"}}`)

	if err := s.SaveEmailSettings(ctx, models.EmailSettings{Host: "smtp.example.com", Port: 587}); err != nil {
		t.Fatalf("SaveEmailSettings: %v", err)
	}

	raw, _ := os.ReadFile(paths.AppConfigFile)
	if !strings.Contains(string(raw), `"mikrotik"`) {
		t.Fatalf("unrelated config dropped:\n%s", raw)
	}

	email, err := s.LoadEmailSettings(ctx)
	if err != nil || email.Host != "smtp.example.com" || email.Port != 587 {
		t.Fatalf("email = %+v, %v", email, err)
	}
}

func TestCancelledContext(t *testing.T) {
	s, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.LoadPayments(ctx); err == nil {
		t.Fatal("expected context error")
	}
}
