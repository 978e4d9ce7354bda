// Package automation はIRページのスクレイプからダイジェストメール送信までの自動実行と、
// テナントごとのcronスケジュールを提供する。
package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/irwatch/internal/digest"
	"github.com/hitoshi/irwatch/internal/mailer"
	"github.com/hitoshi/irwatch/internal/metrics"
	"github.com/hitoshi/irwatch/internal/model"
	"github.com/hitoshi/irwatch/internal/repository"
	"github.com/hitoshi/irwatch/internal/scrape"
)

// PageFetcher はIRページ取得のインターフェース。
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (*scrape.Page, error)
}

// NewsExtractor は新着リリース抽出のインターフェース。
type NewsExtractor interface {
	Extract(page *scrape.Page, company model.Company) (*scrape.Extraction, error)
}

// Report は1回の実行結果の集計。
type Report struct {
	Tenant     repository.Tenant
	Day        string // 実行日（UTC、YYYY-MM-DD）
	Companies  int
	NewItems   int
	Suppressed int
	Misses     int
	Errors     int
	Sent       bool
	Skipped    bool // 企業一覧が空または読み込めなかった
}

// Outcome はメトリクス用の実行結果ラベルを返す。
func (r *Report) Outcome() string {
	if r.Sent {
		return metrics.OutcomeSent
	}
	return metrics.OutcomeNoNewItems
}

// Runner はテナント1件分の実行パイプラインを実行する。
// 企業は1社ずつ順番に処理し、並列取得は行わない。
// 同一テナントの実行が重なった場合の排他制御は行わない（送信済み記録は後勝ち）。
type Runner struct {
	companies repository.CompanyRepository
	settings  repository.SettingsRepository
	sentItems repository.SentItemRepository
	fetcher   PageFetcher
	extractor NewsExtractor
	sender    mailer.Sender
	metrics   metrics.MetricsCollector
	logger    *slog.Logger
	now       func() time.Time
}

// NewRunner はRunnerの新しいインスタンスを生成する。
func NewRunner(
	companies repository.CompanyRepository,
	settings repository.SettingsRepository,
	sentItems repository.SentItemRepository,
	fetcher PageFetcher,
	extractor NewsExtractor,
	sender mailer.Sender,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Runner {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Runner{
		companies: companies,
		settings:  settings,
		sentItems: sentItems,
		fetcher:   fetcher,
		extractor: extractor,
		sender:    sender,
		metrics:   collector,
		logger:    logger,
		now:       time.Now,
	}
}

// Run はテナントの企業を順に処理し、新着が1件以上あればダイジェストを送信して送信済み記録を保存する。
// 企業ごとの取得・抽出エラーはエラー表示の断片に変換され、実行は継続する。
// 新着が0件の場合はメールを送らず、送信済み記録も書き込まない。
func (r *Runner) Run(ctx context.Context, tenant repository.Tenant) (*Report, error) {
	report, err := r.run(ctx, tenant)
	if err != nil {
		r.metrics.RecordRun(metrics.OutcomeFailed)
		r.logger.Error("自動実行に失敗しました",
			slog.String("tenant", tenant.String()),
			slog.String("error", err.Error()),
		)
		return report, err
	}
	r.metrics.RecordRun(report.Outcome())
	return report, nil
}

func (r *Runner) run(ctx context.Context, tenant repository.Tenant) (*Report, error) {
	start := r.now()
	report := &Report{Tenant: tenant, Day: model.DayOf(start)}
	logger := r.logger.With(slog.String("tenant", tenant.String()))

	companies, err := r.companies.List(ctx, tenant)
	if err != nil {
		logger.Warn("企業一覧を読み込めないため実行をスキップします",
			slog.String("error", err.Error()),
		)
		report.Skipped = true
		return report, nil
	}
	if len(companies) == 0 {
		logger.Info("監視対象の企業がないため実行をスキップします")
		report.Skipped = true
		return report, nil
	}
	report.Companies = len(companies)

	sent, err := r.sentItems.Load(ctx, tenant)
	if err != nil {
		return report, &DedupPersistenceError{Tenant: tenant, Op: "load", Err: err}
	}
	if sent == nil {
		sent = model.SentItems{}
	}
	settings, err := r.settings.Load(ctx, tenant)
	if err != nil {
		return report, &TemplateLoadError{Tenant: tenant, Err: err}
	}

	d := digest.New(settings.Template(), report.Day)

	logger.Info("自動実行を開始します", slog.Int("company_count", len(companies)))

	for _, company := range companies {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("自動実行が中断されました: %w", err)
		}
		r.processCompany(ctx, logger, company, sent, d, report)
	}

	if !d.HasNewItems() {
		logger.Info("新着記事がないためメールを送信しません",
			slog.Int("company_count", report.Companies),
			slog.Int("suppressed", report.Suppressed),
			slog.Int("misses", report.Misses),
			slog.Int("errors", report.Errors),
		)
		return report, nil
	}

	if settings.Email == nil {
		return report, &MailTransportError{Tenant: tenant, Err: errors.New("email settings not configured")}
	}
	if err := r.sender.Send(ctx, settings.Email, d.Subject(len(companies)), d.Body()); err != nil {
		return report, &MailTransportError{Tenant: tenant, Err: err}
	}
	report.Sent = true
	r.metrics.RecordEmailSent(metrics.EmailDigest)

	if err := r.sentItems.Save(ctx, tenant, sent); err != nil {
		return report, &DedupPersistenceError{Tenant: tenant, Op: "save", Err: err}
	}

	logger.Info("自動実行が完了しました",
		slog.Int("company_count", report.Companies),
		slog.Int("new_items", report.NewItems),
		slog.Int("suppressed", report.Suppressed),
		slog.Int("misses", report.Misses),
		slog.Int("errors", report.Errors),
		slog.Float64("duration_ms", float64(r.now().Sub(start).Milliseconds())),
	)
	return report, nil
}

// processCompany は1社分の取得・抽出・重複判定を行い、結果の断片をダイジェストに追記する。
func (r *Runner) processCompany(
	ctx context.Context,
	logger *slog.Logger,
	company model.Company,
	sent model.SentItems,
	d *digest.Digest,
	report *Report,
) {
	logger = logger.With(slog.String("company", company.Name))

	page, err := r.fetcher.Fetch(ctx, company.URL)
	if err != nil {
		r.recordError(logger, company, err, d, report)
		return
	}

	extraction, err := r.extractor.Extract(page, company)
	if err != nil {
		r.recordError(logger, company, err, d, report)
		return
	}

	if extraction.Miss() {
		logger.Debug("新着候補が見つかりませんでした",
			slog.String("selector", extraction.Selector),
			slog.Int("candidates", len(extraction.Candidates)),
		)
		report.Misses++
		r.metrics.RecordCompanyResult(metrics.ResultMiss)
		d.AddMiss(company)
		return
	}

	item := *extraction.Item
	key := item.DedupKey()
	if sent.SentOn(key, report.Day) {
		logger.Debug("本日送信済みの記事のためスキップします", slog.String("url", item.URL))
		report.Suppressed++
		r.metrics.RecordCompanyResult(metrics.ResultSuppressed)
		d.AddMiss(company)
		return
	}

	sent.Record(key, r.now())
	report.NewItems++
	r.metrics.RecordCompanyResult(metrics.ResultNew)
	d.AddItem(item)

	logger.Info("新着記事を検出しました",
		slog.String("title", item.Title),
		slog.String("url", item.URL),
		slog.String("publish_date", item.PublishDate),
		slog.String("selector", extraction.Selector),
	)
}

func (r *Runner) recordError(logger *slog.Logger, company model.Company, err error, d *digest.Digest, report *Report) {
	logger.Error("企業ページの処理に失敗しました",
		slog.String("url", company.URL),
		slog.String("error", err.Error()),
	)
	report.Errors++
	r.metrics.RecordCompanyResult(metrics.ResultError)
	d.AddError(company, err)
}
