// Package blog はクライアント向けブログ推薦を提供する。
package blog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/irwatch/internal/model"
	"github.com/hitoshi/irwatch/internal/repository"
)

// DefaultPrompt はクライアント設定に blogPrompt がない場合の推薦プロンプト。
const DefaultPrompt = `You are an expert in investor relations and financial analysis. Generate 5 relevant blog recommendations for a client based on their context.

Client Context:
- Client Name: {CLIENT_NAME}
- Client Description: {CLIENT_DESCRIPTION}
- Tracked Companies: {COMPANY_NAMES}
- Company Tickers: {COMPANY_TICKERS}

Generate 5 high-quality blog recommendations that would be valuable for this client's investor relations needs. Each suggestion should include:
1. Blog name
2. Detailed description explaining why it's relevant
3. Category (finance, investing, business, technology, economics, other)
4. URL

Focus on blogs that provide:
- Financial market analysis
- Company earnings coverage
- Investor relations insights
- Industry-specific news
- Economic indicators

Make the descriptions specific to the client's tracked companies and industry focus.`

// ClientFinder はクライアント検索のインターフェース。
type ClientFinder interface {
	FindByID(ctx context.Context, id string) (*model.Client, error)
}

// CompanyLister はテナントの企業一覧取得のインターフェース。
type CompanyLister interface {
	List(ctx context.Context, tenant repository.Tenant) ([]model.Company, error)
}

// SettingsLoader はテナント設定読み込みのインターフェース。
type SettingsLoader interface {
	Load(ctx context.Context, tenant repository.Tenant) (*model.Settings, error)
}

// Service はブログ推薦のサービス層。
type Service struct {
	clients   ClientFinder
	companies CompanyLister
	settings  SettingsLoader
	logger    *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(clients ClientFinder, companies CompanyLister, settings SettingsLoader, logger *slog.Logger) *Service {
	return &Service{
		clients:   clients,
		companies: companies,
		settings:  settings,
		logger:    logger,
	}
}

// promptContext はプロンプトのプレースホルダーに差し込む値。
type promptContext struct {
	clientName        string
	clientDescription string
	companyNames      string
	companyTickers    string
}

func newPromptContext(client *model.Client, companies []model.Company) promptContext {
	names := make([]string, 0, len(companies))
	tickers := make([]string, 0, len(companies))
	for _, c := range companies {
		names = append(names, c.Name)
		if c.Ticker != "" {
			tickers = append(tickers, c.Ticker)
		}
	}
	return promptContext{
		clientName:        client.Name,
		clientDescription: client.Description,
		companyNames:      strings.Join(names, ", "),
		companyTickers:    strings.Join(tickers, ", "),
	}
}

// ProcessPrompt はプロンプトの {CLIENT_NAME} {CLIENT_DESCRIPTION} {COMPANY_NAMES} {COMPANY_TICKERS} を置換する。
func ProcessPrompt(prompt string, client *model.Client, companies []model.Company) string {
	pc := newPromptContext(client, companies)
	return strings.NewReplacer(
		"{CLIENT_NAME}", pc.clientName,
		"{CLIENT_DESCRIPTION}", pc.clientDescription,
		"{COMPANY_NAMES}", pc.companyNames,
		"{COMPANY_TICKERS}", pc.companyTickers,
	).Replace(prompt)
}

// Suggest はクライアントの監視企業に合わせた5件のブログ推薦を返す。
// 外部のAIサービスは呼ばず、固定の推薦リストの説明文だけを文脈に合わせて組み立てる。
func (s *Service) Suggest(ctx context.Context, clientID string) ([]model.BlogSuggestion, error) {
	if clientID == "" {
		return nil, model.NewRequiredFieldError("Client ID")
	}
	tenant, err := repository.ParseTenant(clientID)
	if err != nil {
		return nil, model.NewClientNotFoundError(clientID)
	}

	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("クライアントの取得に失敗しました: %w", err)
	}
	if client == nil {
		return nil, model.NewClientNotFoundError(clientID)
	}

	companies, err := s.companies.List(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("企業一覧の取得に失敗しました: %w", err)
	}
	settings, err := s.settings.Load(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("設定の読み込みに失敗しました: %w", err)
	}

	prompt := DefaultPrompt
	if settings != nil && settings.BlogPrompt != "" {
		prompt = settings.BlogPrompt
	}
	s.logger.Debug("ブログ推薦プロンプトを生成しました",
		slog.String("client_id", clientID),
		slog.String("prompt", ProcessPrompt(prompt, client, companies)),
	)

	return curatedSuggestions(newPromptContext(client, companies)), nil
}

// curatedSuggestions は固定の推薦リストを文脈に合わせた説明文で返す。
func curatedSuggestions(pc promptContext) []model.BlogSuggestion {
	return []model.BlogSuggestion{
		{
			Name: "Financial Times - Markets",
			Description: "Comprehensive coverage of global financial markets, including analysis of public companies and market trends. " +
				orElse(pc.companyNames, "Particularly relevant for tracking companies like %s.", ""),
			Category: "finance",
			URL:      "https://www.ft.com/markets",
		},
		{
			Name: "Seeking Alpha",
			Description: "Investment research platform with detailed analysis, earnings reports, and expert opinions. " +
				orElse(pc.companyTickers, "Excellent for analyzing tickers like %s.", "Great for investment research and analysis."),
			Category: "investing",
			URL:      "https://seekingalpha.com",
		},
		{
			Name: "Bloomberg Terminal Blog",
			Description: "Professional-grade financial news and analysis covering market movements and company earnings. " +
				orElse(pc.clientName, "Tailored insights for %s's portfolio needs.", "Professional financial analysis."),
			Category: "finance",
			URL:      "https://www.bloomberg.com/professional/blog",
		},
		{
			Name: "Investor Relations Magazine",
			Description: "Specialized publication focusing on investor relations best practices and corporate communications. " +
				orElse(pc.clientDescription, "Perfect for %s needs.", "Essential for IR professionals."),
			Category: "business",
			URL:      "https://www.irmagazine.com",
		},
		{
			Name: "MarketWatch - Earnings",
			Description: "Real-time earnings coverage and company performance analysis. " +
				orElse(pc.companyNames, "Track earnings for %s and similar companies.", "Comprehensive earnings tracking."),
			Category: "finance",
			URL:      "https://www.marketwatch.com/tools/earnings",
		},
	}
}

// orElse は値があればformatに埋め込み、空ならfallbackを返す。
func orElse(value, format, fallback string) string {
	if value == "" {
		return fallback
	}
	return fmt.Sprintf(format, value)
}
