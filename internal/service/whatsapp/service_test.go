package whatsapp

import (
	"context"
	"errors"
	"testing"
)

type recordingClient struct {
	to, body string
	err      error
}

func (r *recordingClient) SendText(_ context.Context, to, body string) (string, error) {
	r.to, r.body = to, body
	return "wamid.1", r.err
}

func TestNotify(t *testing.T) {
	c := &recordingClient{}
	n := NewNotifier(c, "628111", nil)

	if err := n.Notify(context.Background(), "Commission report 2024-03", "Revenue: Rp 100.000"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if c.to != "628111" || c.body != "*Commission report 2024-03*\n\nRevenue: Rp 100.000" {
		t.Fatalf("sent %q to %q", c.body, c.to)
	}

	c.err = errors.New("rate limited")
	if err := n.Notify(context.Background(), "s", "b"); err == nil {
		t.Fatal("client error swallowed")
	}
}
