package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hitoshi/irwatch/internal/model"
	"github.com/hitoshi/irwatch/internal/repository"
)

// --- モック ---

// mockScheduler はTenantSchedulerのテスト用モック。
type mockScheduler struct {
	rescheduled []repository.Tenant
	removed     []repository.Tenant
}

func (m *mockScheduler) Reschedule(ctx context.Context, tenant repository.Tenant) error {
	m.rescheduled = append(m.rescheduled, tenant)
	return nil
}

func (m *mockScheduler) Remove(tenant repository.Tenant) {
	m.removed = append(m.removed, tenant)
}

type testEnv struct {
	store     *repository.FileStore
	scheduler *mockScheduler
	svc       *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := repository.NewFileStore(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	sched := &mockScheduler{}
	svc := NewService(repository.NewJSONClientRepository(store), store, sched, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC) }
	return &testEnv{store: store, scheduler: sched, svc: svc}
}

func apiErrorCode(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

// --- Create ---

func TestCreate_AssignsIDAndSchedules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	client, err := env.svc.Create(ctx, "  Acme Holdings ", " mining ")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if client.ID == "" {
		t.Fatal("expected generated ID")
	}
	if _, err := repository.ParseTenant(client.ID); err != nil {
		t.Errorf("generated ID must be a valid tenant: %v", err)
	}
	if client.Name != "Acme Holdings" || client.Description != "mining" {
		t.Errorf("client = %+v, want trimmed name and description", client)
	}
	if !client.CreatedAt.Equal(time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("CreatedAt = %v", client.CreatedAt)
	}
	if len(env.scheduler.rescheduled) != 1 || env.scheduler.rescheduled[0] != repository.Tenant(client.ID) {
		t.Errorf("rescheduled = %v, want [%s]", env.scheduler.rescheduled, client.ID)
	}

	clients, err := env.svc.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(clients) != 1 || clients[0].ID != client.ID {
		t.Errorf("List() = %+v", clients)
	}
}

func TestCreate_NameRequired(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Create(context.Background(), "   ", "desc")
	if code := apiErrorCode(err); code != model.ErrCodeRequiredField {
		t.Errorf("error code = %q, want %q", code, model.ErrCodeRequiredField)
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "Client name is required" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestCreate_DuplicateNameIgnoresCase(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.Create(ctx, "Acme", ""); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	_, err := env.svc.Create(ctx, "ACME", "")
	if code := apiErrorCode(err); code != model.ErrCodeDuplicateClient {
		t.Errorf("error code = %q, want %q", code, model.ErrCodeDuplicateClient)
	}
	if len(env.scheduler.rescheduled) != 1 {
		t.Errorf("duplicate must not be scheduled, rescheduled = %v", env.scheduler.rescheduled)
	}
}

func TestCreate_WithoutScheduler(t *testing.T) {
	env := newTestEnv(t)
	env.svc.scheduler = nil

	if _, err := env.svc.Create(context.Background(), "Acme", ""); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
}

// --- Delete ---

func TestDelete_RemovesFilesAndSchedule(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	client, err := env.svc.Create(ctx, "Acme", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	companies := repository.NewJSONCompanyRepository(env.store)
	tenant := repository.Tenant(client.ID)
	if err := companies.Save(ctx, tenant, []model.Company{{Name: "X", URL: "https://x.example"}}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := env.svc.Delete(ctx, client.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	path := filepath.Join(env.store.Dir(), "companies_"+client.ID+".json")
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("tenant file should be removed, stat err = %v", err)
	}
	if len(env.scheduler.removed) != 1 || env.scheduler.removed[0] != tenant {
		t.Errorf("removed = %v, want [%s]", env.scheduler.removed, tenant)
	}
	clients, _ := env.svc.List(ctx)
	if len(clients) != 0 {
		t.Errorf("List() len = %d, want 0", len(clients))
	}
}

func TestDelete_NotFound(t *testing.T) {
	env := newTestEnv(t)

	err := env.svc.Delete(context.Background(), "missing")
	if code := apiErrorCode(err); code != model.ErrCodeClientNotFound {
		t.Errorf("error code = %q, want %q", code, model.ErrCodeClientNotFound)
	}
	if len(env.scheduler.removed) != 0 {
		t.Error("scheduler should not be touched for unknown client")
	}
}
