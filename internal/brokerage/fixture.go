package brokerage

import (
	"context"
	"time"
)

const (
	FixtureLinkToken   = "demo_link_token_12345"
	FixtureAccessToken = "demo_access_token_12345"
	FixtureItemID      = "demo_item_id_12345"

	linkTokenLifetime = 4 * time.Hour
)

// FixtureProvider returns canned demo data regardless of input.
type FixtureProvider struct {
	now func() time.Time
}

func NewFixtureProvider() *FixtureProvider {
	return &FixtureProvider{now: time.Now}
}

func (p *FixtureProvider) CreateLinkToken(ctx context.Context, clientKey string) (*LinkToken, error) {
	return &LinkToken{
		LinkToken:  FixtureLinkToken,
		Expiration: p.now().Add(linkTokenLifetime),
	}, nil
}

func (p *FixtureProvider) ExchangePublicToken(ctx context.Context, publicToken string) (*Exchange, error) {
	return &Exchange{AccessToken: FixtureAccessToken, ItemID: FixtureItemID}, nil
}

func (p *FixtureProvider) PortfolioSummary(ctx context.Context, accessToken string) (*PortfolioSummary, error) {
	return &PortfolioSummary{
		TotalValue: 125750.50,
		AccountBalances: map[string]AccountBalance{
			"acc_001": {Name: "Investment Account", Balance: 85250.25},
			"acc_002": {Name: "Retirement Account", Balance: 40500.25},
		},
		AssetAllocation: map[string]AllocationBucket{
			"stocks": {Value: 75450.30, Percentage: 60.0},
			"bonds":  {Value: 25150.10, Percentage: 20.0},
			"cash":   {Value: 12575.05, Percentage: 10.0},
			"other":  {Value: 12575.05, Percentage: 10.0},
		},
	}, nil
}

func (p *FixtureProvider) Holdings(ctx context.Context, accessToken string) (*Holdings, error) {
	return &Holdings{
		Accounts: []Account{
			{AccountID: "acc_001", Name: "Investment Account", Type: "investment", Subtype: "brokerage"},
			{AccountID: "acc_002", Name: "Retirement Account", Type: "investment", Subtype: "401k"},
		},
		Holdings: []Holding{
			{AccountID: "acc_001", SecurityID: "sec_001", Quantity: 100, InstitutionPrice: 150.25, InstitutionValue: 15025.00, CostBasis: 140.00},
			{AccountID: "acc_001", SecurityID: "sec_002", Quantity: 50, InstitutionPrice: 85.50, InstitutionValue: 4275.00, CostBasis: 80.00},
			{AccountID: "acc_002", SecurityID: "sec_003", Quantity: 200, InstitutionPrice: 45.75, InstitutionValue: 9150.00, CostBasis: 42.00},
		},
		Securities: fixtureSecurities(),
	}, nil
}

// Transactions ignores the date range; the fixture set is fixed.
func (p *FixtureProvider) Transactions(ctx context.Context, accessToken string, start, end time.Time) (*Transactions, error) {
	return &Transactions{
		Transactions: []Transaction{
			{AccountID: "acc_001", SecurityID: "sec_001", Date: "2025-01-15", Name: "Apple Inc.", Type: "buy", Subtype: "buy", Quantity: 10, Price: 150.25, Amount: 1502.50},
			{AccountID: "acc_001", SecurityID: "sec_002", Date: "2025-01-10", Name: "Microsoft Corporation", Type: "buy", Subtype: "buy", Quantity: 25, Price: 85.50, Amount: 2137.50},
			{AccountID: "acc_002", SecurityID: "sec_003", Date: "2025-01-05", Name: "Vanguard S&P 500 ETF", Type: "buy", Subtype: "buy", Quantity: 50, Price: 45.75, Amount: 2287.50},
		},
		Securities: fixtureSecurities(),
	}, nil
}

func (p *FixtureProvider) ClientSummary(ctx context.Context, clientID int64) (*ClientSummary, error) {
	return &ClientSummary{
		TotalValue:       125000.00,
		CashBalance:      5000.00,
		InvestedAmount:   120000.00,
		TotalReturn:      15000.00,
		ReturnPercentage: 12.5,
	}, nil
}

func (p *FixtureProvider) AggregateMetrics(ctx context.Context) (*AggregateMetrics, error) {
	return &AggregateMetrics{
		TotalAUM:               15750000.00,
		AveragePortfolioValue:  125000.00,
		TotalTransactionsToday: 45,
	}, nil
}

func fixtureSecurities() []Security {
	return []Security{
		{SecurityID: "sec_001", Name: "Apple Inc.", TickerSymbol: "AAPL", Type: "equity"},
		{SecurityID: "sec_002", Name: "Microsoft Corporation", TickerSymbol: "MSFT", Type: "equity"},
		{SecurityID: "sec_003", Name: "Vanguard S&P 500 ETF", TickerSymbol: "VOO", Type: "etf"},
	}
}
