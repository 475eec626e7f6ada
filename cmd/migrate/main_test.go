package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/registra/registra/internal/model"
)

type stubRunner struct {
	pending []model.Migration
	status  []model.Migration
	applied []model.Migration
	err     error
	called  string
}

func (s *stubRunner) ListPending(ctx context.Context) ([]model.Migration, error) {
	s.called = "list"
	return s.pending, s.err
}

func (s *stubRunner) Status(ctx context.Context) ([]model.Migration, error) {
	s.called = "status"
	return s.status, s.err
}

func (s *stubRunner) RunPending(ctx context.Context) ([]model.Migration, error) {
	s.called = "up"
	return s.applied, s.err
}

func TestRun_Plain(t *testing.T) {
	at := time.Date(2025, 8, 10, 22, 32, 0, 0, time.UTC)
	stub := &stubRunner{status: []model.Migration{
		{Version: 20250810223200, Name: "create_users", State: model.MigrationApplied, AppliedAt: &at},
		{Version: 20250901120000, Name: "add_index", State: model.MigrationPending},
	}}

	var out bytes.Buffer
	if err := run(context.Background(), stub, "status", "plain", &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if stub.called != "status" {
		t.Errorf("called %q, want status", stub.called)
	}

	got := out.String()
	for _, want := range []string{"VERSION", "20250810223200", "create_users", "applied", "2025-08-10T22:32:00Z", "add_index", "pending"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRun_EmptyMessages(t *testing.T) {
	tests := []struct {
		command string
		want    string
	}{
		{"up", "no pending migrations; schema is up to date"},
		{"list", "no pending migrations"},
		{"status", "no migrations found"},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		if err := run(context.Background(), &stubRunner{}, tt.command, "plain", &out); err != nil {
			t.Fatalf("run(%s) error = %v", tt.command, err)
		}
		if strings.TrimSpace(out.String()) != tt.want {
			t.Errorf("run(%s) = %q, want %q", tt.command, out.String(), tt.want)
		}
	}
}

func TestRun_JSON(t *testing.T) {
	stub := &stubRunner{applied: []model.Migration{
		{Version: 20250810223200, Name: "create_users", State: model.MigrationApplied},
	}}

	var out bytes.Buffer
	if err := run(context.Background(), stub, "up", "json", &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	var got []map[string]any
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if len(got) != 1 || got[0]["name"] != "create_users" {
		t.Errorf("unexpected output %v", got)
	}
}

func TestRun_Errors(t *testing.T) {
	if err := run(context.Background(), &stubRunner{}, "down", "plain", &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown command")
	}

	boom := errors.New("connection refused")
	if err := run(context.Background(), &stubRunner{err: boom}, "list", "plain", &bytes.Buffer{}); !errors.Is(err, boom) {
		t.Errorf("run() error = %v, want %v", err, boom)
	}
}
