// Package brokerage defines the portfolio data provider used by the client and
// admin surfaces. Only a fixture-backed provider exists today.
package brokerage

import (
	"context"
	"time"
)

// Provider supplies brokerage account data for a linked item.
type Provider interface {
	CreateLinkToken(ctx context.Context, clientKey string) (*LinkToken, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (*Exchange, error)
	PortfolioSummary(ctx context.Context, accessToken string) (*PortfolioSummary, error)
	Holdings(ctx context.Context, accessToken string) (*Holdings, error)
	Transactions(ctx context.Context, accessToken string, start, end time.Time) (*Transactions, error)
	ClientSummary(ctx context.Context, clientID int64) (*ClientSummary, error)
	AggregateMetrics(ctx context.Context) (*AggregateMetrics, error)
}

type LinkToken struct {
	LinkToken  string    `json:"link_token"`
	Expiration time.Time `json:"expiration"`
}

type Exchange struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
}

type AccountBalance struct {
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}

type AllocationBucket struct {
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

type PortfolioSummary struct {
	TotalValue      float64                     `json:"total_value"`
	AccountBalances map[string]AccountBalance   `json:"account_balances"`
	AssetAllocation map[string]AllocationBucket `json:"asset_allocation"`
}

type Account struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Subtype   string `json:"subtype"`
}

type Holding struct {
	AccountID        string  `json:"account_id"`
	SecurityID       string  `json:"security_id"`
	Quantity         float64 `json:"quantity"`
	InstitutionPrice float64 `json:"institution_price"`
	InstitutionValue float64 `json:"institution_value"`
	CostBasis        float64 `json:"cost_basis"`
}

type Security struct {
	SecurityID   string `json:"security_id"`
	Name         string `json:"name"`
	TickerSymbol string `json:"ticker_symbol"`
	Type         string `json:"type"`
}

type Holdings struct {
	Accounts   []Account  `json:"accounts"`
	Holdings   []Holding  `json:"holdings"`
	Securities []Security `json:"securities"`
}

type Transaction struct {
	AccountID  string  `json:"account_id"`
	SecurityID string  `json:"security_id"`
	Date       string  `json:"date"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Subtype    string  `json:"subtype"`
	Quantity   float64 `json:"quantity"`
	Price      float64 `json:"price"`
	Amount     float64 `json:"amount"`
	Fees       float64 `json:"fees"`
}

type Transactions struct {
	Transactions []Transaction `json:"transactions"`
	Securities   []Security    `json:"securities"`
}

// ClientSummary is the per-client figure shown on the admin client page.
type ClientSummary struct {
	TotalValue       float64 `json:"total_value"`
	CashBalance      float64 `json:"cash_balance"`
	InvestedAmount   float64 `json:"invested_amount"`
	TotalReturn      float64 `json:"total_return"`
	ReturnPercentage float64 `json:"return_percentage"`
}

// AggregateMetrics are firm-wide figures for the admin dashboard.
type AggregateMetrics struct {
	TotalAUM               float64 `json:"total_aum"`
	AveragePortfolioValue  float64 `json:"average_portfolio_value"`
	TotalTransactionsToday int64   `json:"total_transactions_today"`
}
