package automation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hitoshi/irwatch/internal/metrics"
	"github.com/hitoshi/irwatch/internal/model"
	"github.com/hitoshi/irwatch/internal/repository"
)

// RunnerService は1テナント分の自動実行のインターフェース。
type RunnerService interface {
	Run(ctx context.Context, tenant repository.Tenant) (*Report, error)
}

// ClientLister はクライアント一覧取得のインターフェース。
type ClientLister interface {
	List(ctx context.Context) ([]model.Client, error)
}

// SettingsLoader は設定読み込みのインターフェース。
type SettingsLoader interface {
	Load(ctx context.Context, tenant repository.Tenant) (*model.Settings, error)
}

// scheduleParser は分・時・日・月・曜日の5フィールド形式のcron式を解釈する。
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ParseSchedule は5フィールド形式のcron式を検証する。
func ParseSchedule(expr string) (cron.Schedule, error) {
	schedule, err := scheduleParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return schedule, nil
}

// TenantStatus はテナントごとのスケジュールと直近の実行結果。
type TenantStatus struct {
	Tenant   string    `json:"tenant"`
	Schedule string    `json:"schedule"`
	NextRun  time.Time `json:"nextRun,omitempty"`
	LastRun  time.Time `json:"lastRun,omitempty"`
	Outcome  string    `json:"outcome,omitempty"`
	Error    string    `json:"error,omitempty"`
}

type entry struct {
	id     cron.EntryID
	status TenantStatus
}

// Scheduler はテナントごとのcronエントリを管理し、発火時にRunnerを実行する。
// 実行時のエラーはログに記録するのみで呼び出し元には返さない。
type Scheduler struct {
	runner          RunnerService
	clients         ClientLister
	settings        SettingsLoader
	defaultSchedule string
	logger          *slog.Logger

	cron    *cron.Cron
	mu      sync.Mutex
	entries map[repository.Tenant]*entry
	baseCtx context.Context
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
// defaultScheduleが不正な場合はエラーを返す。
func NewScheduler(
	runner RunnerService,
	clients ClientLister,
	settings SettingsLoader,
	defaultSchedule string,
	logger *slog.Logger,
) (*Scheduler, error) {
	if _, err := ParseSchedule(defaultSchedule); err != nil {
		return nil, fmt.Errorf("デフォルトスケジュールが不正です: %w", err)
	}
	cl := &cronLogger{logger: logger}
	return &Scheduler{
		runner:          runner,
		clients:         clients,
		settings:        settings,
		defaultSchedule: defaultSchedule,
		logger:          logger,
		cron: cron.New(
			cron.WithParser(scheduleParser),
			cron.WithChain(cron.Recover(cl)),
			cron.WithLogger(cl),
		),
		entries: make(map[repository.Tenant]*entry),
		baseCtx: context.Background(),
	}, nil
}

// Register はデフォルトテナントと全クライアントのエントリを登録する。
// クライアント一覧の読み込みに失敗した場合もデフォルトテナントは登録する。
func (s *Scheduler) Register(ctx context.Context) error {
	if err := s.Reschedule(ctx, repository.DefaultTenant); err != nil {
		return err
	}

	clients, err := s.clients.List(ctx)
	if err != nil {
		s.logger.Warn("クライアント一覧の読み込みに失敗したため、デフォルトテナントのみ登録します",
			slog.String("error", err.Error()),
		)
		return nil
	}
	for _, client := range clients {
		tenant, err := repository.ParseTenant(client.ID)
		if err != nil {
			s.logger.Warn("不正なクライアントIDのためスケジュール登録をスキップします",
				slog.String("client_id", client.ID),
			)
			continue
		}
		if err := s.Reschedule(ctx, tenant); err != nil {
			return err
		}
	}
	return nil
}

// Start はエントリを登録してcronを起動する。
// コンテキストがキャンセルされるまでブロックし、停止時は実行中のジョブの完了を待つ。
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()

	if err := s.Register(ctx); err != nil {
		return err
	}
	s.cron.Start()

	s.logger.Info("自動実行スケジューラを開始しました",
		slog.Int("tenant_count", s.count()),
		slog.String("default_schedule", s.defaultSchedule),
	)

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("自動実行スケジューラを停止しました")
	return nil
}

// Reschedule はテナントの設定を読み直し、エントリを置き換える。
// 設定のcron式が未設定または不正な場合はデフォルトスケジュールを使う。
func (s *Scheduler) Reschedule(ctx context.Context, tenant repository.Tenant) error {
	expr := s.scheduleFor(ctx, tenant)

	s.mu.Lock()
	defer s.mu.Unlock()

	var prev TenantStatus
	if e, ok := s.entries[tenant]; ok {
		s.cron.Remove(e.id)
		prev = e.status
	}

	id, err := s.cron.AddFunc(expr, func() { s.runTenant(tenant) })
	if err != nil {
		delete(s.entries, tenant)
		return fmt.Errorf("スケジュールの登録に失敗 (tenant=%s): %w", tenant, err)
	}

	status := prev
	status.Tenant = tenant.String()
	status.Schedule = expr
	s.entries[tenant] = &entry{id: id, status: status}

	logAttrs := []any{
		slog.String("tenant", tenant.String()),
		slog.String("schedule", expr),
	}
	if schedule, err := ParseSchedule(expr); err == nil {
		logAttrs = append(logAttrs, slog.Time("next_run", schedule.Next(time.Now())))
	}
	s.logger.Info("自動実行をスケジュールしました", logAttrs...)
	return nil
}

// Remove はテナントのエントリを削除する。未登録の場合は何もしない。
func (s *Scheduler) Remove(tenant repository.Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[tenant]
	if !ok {
		return
	}
	s.cron.Remove(e.id)
	delete(s.entries, tenant)
	s.logger.Info("自動実行のスケジュールを削除しました", slog.String("tenant", tenant.String()))
}

// Snapshot は登録中の全テナントの状態をテナント名順で返す。
func (s *Scheduler) Snapshot() []TenantStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]TenantStatus, 0, len(s.entries))
	for _, e := range s.entries {
		status := e.status
		if next := s.cron.Entry(e.id).Next; !next.IsZero() {
			status.NextRun = next
		}
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tenant < out[j].Tenant })
	return out
}

func (s *Scheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Scheduler) scheduleFor(ctx context.Context, tenant repository.Tenant) string {
	settings, err := s.settings.Load(ctx, tenant)
	if err != nil {
		s.logger.Warn("設定を読み込めないためデフォルトスケジュールを使用します",
			slog.String("tenant", tenant.String()),
			slog.String("error", err.Error()),
		)
		return s.defaultSchedule
	}
	expr := settings.CronExpr()
	if expr == "" {
		return s.defaultSchedule
	}
	if _, err := ParseSchedule(expr); err != nil {
		s.logger.Warn("不正なcron式のためデフォルトスケジュールを使用します",
			slog.String("tenant", tenant.String()),
			slog.String("schedule", expr),
		)
		return s.defaultSchedule
	}
	return expr
}

// runTenant はcronから呼ばれ、1テナント分の実行結果を状態に記録する。
func (s *Scheduler) runTenant(tenant repository.Tenant) {
	s.mu.Lock()
	ctx := s.baseCtx
	s.mu.Unlock()

	started := time.Now()
	report, err := s.runner.Run(ctx, tenant)

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[tenant]
	if !ok {
		return
	}
	e.status.LastRun = started
	switch {
	case err != nil:
		e.status.Outcome = metrics.OutcomeFailed
		e.status.Error = err.Error()
	case report != nil && report.Skipped:
		e.status.Outcome = "skipped"
		e.status.Error = ""
	case report != nil:
		e.status.Outcome = report.Outcome()
		e.status.Error = ""
	}
}

// cronLogger はcronの内部ログをslogに流す。
type cronLogger struct {
	logger *slog.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	args := append([]interface{}{slog.String("error", err.Error())}, keysAndValues...)
	l.logger.Error("cron: "+msg, args...)
}
