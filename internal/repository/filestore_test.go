package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/irwatch/internal/model"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	return store
}

func writeRaw(t *testing.T, store *FileStore, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(store.Dir(), name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
}

// --- テナント ---

func TestParseTenant(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Tenant
		wantErr bool
	}{
		{"空文字はデフォルト", "", DefaultTenant, false},
		{"UUID", "3f2c1a9e-0b7d-4c4e-9a51-1d2e3f4a5b6c", Tenant("3f2c1a9e-0b7d-4c4e-9a51-1d2e3f4a5b6c"), false},
		{"英数字とアンダースコア", "client_01", Tenant("client_01"), false},
		{"パス区切りを含む", "../etc", "", true},
		{"スラッシュを含む", "a/b", "", true},
		{"ドットを含む", "a.b", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTenant(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTenant(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTenant(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTenant_FileName(t *testing.T) {
	if got := DefaultTenant.fileName(kindCompanies); got != "companies.json" {
		t.Errorf("default fileName = %q, want %q", got, "companies.json")
	}
	if got := Tenant("abc").fileName(kindSentItems); got != "sent-items_abc.json" {
		t.Errorf("client fileName = %q, want %q", got, "sent-items_abc.json")
	}
	if got := DefaultTenant.String(); got != "default" {
		t.Errorf("String() = %q, want %q", got, "default")
	}
}

// --- 一覧 ---

func TestJSONListRepository_MissingFileReturnsEmpty(t *testing.T) {
	repo := NewJSONCompanyRepository(newTestStore(t))

	companies, err := repo.List(context.Background(), DefaultTenant)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if companies == nil || len(companies) != 0 {
		t.Errorf("List() = %#v, want empty non-nil slice", companies)
	}
}

func TestJSONListRepository_SaveAndList(t *testing.T) {
	store := newTestStore(t)
	repo := NewJSONCompanyRepository(store)
	ctx := context.Background()

	want := []model.Company{
		{Name: "Acme", Ticker: "ACM", URL: "https://acme.example/ir"},
		{Name: "Globex", URL: "https://globex.example/news"},
	}
	if err := repo.Save(ctx, Tenant("c1"), want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := repo.List(ctx, Tenant("c1"))
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("List() = %#v, want %#v", got, want)
	}

	// テナント間でデータが分離されていること
	other, err := repo.List(ctx, DefaultTenant)
	if err != nil {
		t.Fatalf("List(default) error = %v", err)
	}
	if len(other) != 0 {
		t.Errorf("default tenant should be empty, got %d items", len(other))
	}

	// 2スペースインデントで書き込まれていること
	raw, err := os.ReadFile(filepath.Join(store.Dir(), "companies_c1.json"))
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	if !strings.Contains(string(raw), "\n  {\n    \"name\": \"Acme\"") {
		t.Errorf("unexpected file format:\n%s", raw)
	}
}

func TestJSONListRepository_CorruptFile(t *testing.T) {
	store := newTestStore(t)
	writeRaw(t, store, "recipients.json", `{"not": "an array"}`)
	repo := NewJSONRecipientRepository(store)

	_, err := repo.List(context.Background(), DefaultTenant)
	if !errors.Is(err, ErrCorruptFile) {
		t.Errorf("List() error = %v, want ErrCorruptFile", err)
	}
}

func TestJSONListRepository_SaveNilWritesEmptyArray(t *testing.T) {
	store := newTestStore(t)
	repo := NewJSONBlogRepository(store)

	if err := repo.Save(context.Background(), DefaultTenant, nil); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(store.Dir(), "blogs.json"))
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	if strings.TrimSpace(string(raw)) != "[]" {
		t.Errorf("file content = %q, want []", raw)
	}
}

// --- クライアント ---

func TestJSONClientRepository_CreateFindDelete(t *testing.T) {
	repo := NewJSONClientRepository(newTestStore(t))
	ctx := context.Background()

	client := &model.Client{ID: "c1", Name: "Acme Capital", CreatedAt: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)}
	if err := repo.Create(ctx, client); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// 大文字小文字を区別せず重複を検出する
	err := repo.Create(ctx, &model.Client{ID: "c2", Name: "ACME capital"})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("Create(duplicate) error = %v, want ErrDuplicate", err)
	}

	found, err := repo.FindByID(ctx, "c1")
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if found == nil || found.Name != "Acme Capital" {
		t.Fatalf("FindByID() = %#v", found)
	}

	missing, err := repo.FindByID(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("FindByID(nope) = %#v, %v; want nil, nil", missing, err)
	}

	if err := repo.Delete(ctx, "c1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(ctx, "c1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(again) error = %v, want ErrNotFound", err)
	}

	clients, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(clients) != 0 {
		t.Errorf("List() len = %d, want 0", len(clients))
	}
}

func TestFileStore_RemoveTenant(t *testing.T) {
	store := newTestStore(t)
	for _, name := range []string{"companies_c1.json", "settings_c1.json", "sent-items_c1.json", "companies.json"} {
		writeRaw(t, store, name, "[]")
	}

	// recipients_c1.json と blogs_c1.json は存在しないが、エラーにならないこと
	if err := store.RemoveTenant(Tenant("c1")); err != nil {
		t.Fatalf("RemoveTenant() error = %v", err)
	}

	for _, name := range []string{"companies_c1.json", "settings_c1.json", "sent-items_c1.json"} {
		if _, err := os.Stat(filepath.Join(store.Dir(), name)); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("%s should be removed, stat err = %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), "companies.json")); err != nil {
		t.Errorf("default tenant file should remain: %v", err)
	}

	if err := store.RemoveTenant(DefaultTenant); err == nil {
		t.Error("RemoveTenant(default) should fail")
	}
}

// --- 設定 ---

func TestJSONSettingsRepository_LoadMissing(t *testing.T) {
	repo := NewJSONSettingsRepository(newTestStore(t))

	settings, err := repo.Load(context.Background(), DefaultTenant)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if settings.Email != nil || settings.Schedule != nil || settings.EmailTemplate != nil {
		t.Errorf("Load() = %#v, want empty settings", settings)
	}
	if got := settings.Template(); got != model.DefaultEmailTemplate() {
		t.Errorf("Template() = %#v, want default", got)
	}
}

func TestJSONSettingsRepository_UpdateKeepsOtherSections(t *testing.T) {
	store := newTestStore(t)
	writeRaw(t, store, "settings_c1.json", `{
  "email": {"smtpHost": "smtp.example.com", "smtpPort": "587", "toEmails": ["a@example.com"]},
  "schedule": {"cron": "0 9 * * 1-5"}
}`)
	repo := NewJSONSettingsRepository(store)
	ctx := context.Background()

	err := repo.Update(ctx, Tenant("c1"), func(s *model.Settings) error {
		s.EmailTemplate = &model.EmailTemplate{Subject: "Update {DATE}", Body: "<p>{TITLE}</p>"}
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	settings, err := repo.Load(ctx, Tenant("c1"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if settings.Email == nil || settings.Email.SMTPPort != 587 {
		t.Errorf("email section lost or port not parsed: %#v", settings.Email)
	}
	if settings.CronExpr() != "0 9 * * 1-5" {
		t.Errorf("CronExpr() = %q", settings.CronExpr())
	}
	if settings.Template().Subject != "Update {DATE}" {
		t.Errorf("Template().Subject = %q", settings.Template().Subject)
	}
}

func TestJSONSettingsRepository_UpdateAbortsOnError(t *testing.T) {
	store := newTestStore(t)
	repo := NewJSONSettingsRepository(store)

	wantErr := errors.New("validation failed")
	err := repo.Update(context.Background(), DefaultTenant, func(s *model.Settings) error {
		s.BlogPrompt = "changed"
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Update() error = %v, want %v", err, wantErr)
	}
	if _, err := os.Stat(filepath.Join(store.Dir(), "settings.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("settings.json should not be written, stat err = %v", err)
	}
}

// --- 送信済み記録 ---

func TestJSONSentItemRepository_RoundTrip(t *testing.T) {
	repo := NewJSONSentItemRepository(newTestStore(t))
	ctx := context.Background()

	items, err := repo.Load(ctx, DefaultTenant)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("Load() len = %d, want 0", len(items))
	}

	at := time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC)
	items.Record("Acme-https://acme.example/news/q3", at)
	if err := repo.Save(ctx, DefaultTenant, items); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := repo.Load(ctx, DefaultTenant)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := loaded["Acme-https://acme.example/news/q3"]; got != "2024-01-05T08:00:00.000Z" {
		t.Errorf("stored timestamp = %q", got)
	}
}

func TestJSONSentItemRepository_CorruptFile(t *testing.T) {
	store := newTestStore(t)
	writeRaw(t, store, "sent-items.json", `{broken`)
	repo := NewJSONSentItemRepository(store)

	if _, err := repo.Load(context.Background(), DefaultTenant); !errors.Is(err, ErrCorruptFile) {
		t.Errorf("Load() error = %v, want ErrCorruptFile", err)
	}
}

// --- ユーザー・セッション ---

func TestJSONUserRepository_CreateAndFind(t *testing.T) {
	repo := NewJSONUserRepository(newTestStore(t))
	ctx := context.Background()

	if err := repo.Create(ctx, &model.User{Username: "admin", PasswordHash: "hash"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Create(ctx, &model.User{Username: "admin", PasswordHash: "other"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Create(duplicate) error = %v, want ErrDuplicate", err)
	}

	user, err := repo.FindByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("FindByUsername() error = %v", err)
	}
	if user == nil || user.PasswordHash != "hash" {
		t.Errorf("FindByUsername() = %#v", user)
	}

	missing, err := repo.FindByUsername(ctx, "nobody")
	if err != nil || missing != nil {
		t.Errorf("FindByUsername(nobody) = %#v, %v", missing, err)
	}
}

func TestJSONSessionRepository_Lifecycle(t *testing.T) {
	repo := NewJSONSessionRepository(newTestStore(t))
	now := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	active := &model.Session{ID: "s1", Username: "admin", ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	expired := &model.Session{ID: "s2", Username: "admin", ExpiresAt: now.Add(-time.Minute), CreatedAt: now.Add(-time.Hour)}
	for _, s := range []*model.Session{active, expired} {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	got, err := repo.FindByID(ctx, "s1")
	if err != nil || got == nil || got.Username != "admin" {
		t.Fatalf("FindByID(s1) = %#v, %v", got, err)
	}
	if got, _ := repo.FindByID(ctx, "s2"); got != nil {
		t.Errorf("expired session should not be returned, got %#v", got)
	}

	removed, err := repo.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("DeleteExpired() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("DeleteExpired() = %d, want 1", removed)
	}

	if err := repo.DeleteByID(ctx, "s1"); err != nil {
		t.Fatalf("DeleteByID() error = %v", err)
	}
	if got, _ := repo.FindByID(ctx, "s1"); got != nil {
		t.Errorf("deleted session should not be returned, got %#v", got)
	}
}
