package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/investment-portal/internal/brokerage"
	"github.com/BradenHooton/investment-portal/internal/models"
	"github.com/BradenHooton/investment-portal/internal/session"
)

const (
	transactionDateLayout      = "2006-01-02"
	defaultTransactionLookback = 30 * 24 * time.Hour
	msgNoConnectedAccount      = "No connected account found"
)

type ConnectionStatus struct {
	Connected         bool `json:"connected"`
	AccessTokenExists bool `json:"access_token_exists"`
}

// TransactionsResult echoes the resolved date range with the data.
type TransactionsResult struct {
	*brokerage.Transactions
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// BrokerageService gates the brokerage provider on the link stored in the
// session.
type BrokerageService struct {
	provider brokerage.Provider
	clients  ClientRepository
	logger   *slog.Logger
	now      func() time.Time
}

func NewBrokerageService(provider brokerage.Provider, clients ClientRepository, logger *slog.Logger) *BrokerageService {
	return &BrokerageService{
		provider: provider,
		clients:  clients,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *BrokerageService) CreateLinkToken(ctx context.Context, sess *session.Session) (*brokerage.LinkToken, error) {
	clientKey := sess.ID()
	if id, ok := sess.Current(session.KindClient); ok {
		clientKey = fmt.Sprintf("client-%d", id.ID)
	}

	tok, err := s.provider.CreateLinkToken(ctx, clientKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create link token: %w", err)
	}
	return tok, nil
}

// ExchangePublicToken stores the resulting link in the session and, for a
// signed-in client, on the client row.
func (s *BrokerageService) ExchangePublicToken(ctx context.Context, sess *session.Session, publicToken string) (*brokerage.Exchange, error) {
	if strings.TrimSpace(publicToken) == "" {
		return nil, models.ValidationError("public_token is required")
	}

	ex, err := s.provider.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange public token: %w", err)
	}

	if id, ok := sess.Current(session.KindClient); ok {
		_, err := s.clients.SetBrokerageLink(ctx, id.ID, ex.AccessToken, ex.ItemID, s.now().UTC())
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("failed to persist brokerage link: %w", err)
		}
		s.logger.Info("brokerage account linked", slog.Int64("client_id", id.ID))
	}

	sess.SetBrokerageLink(session.BrokerageLink{AccessToken: ex.AccessToken, ItemID: ex.ItemID})
	return ex, nil
}

func (s *BrokerageService) Status(sess *session.Session) ConnectionStatus {
	_, ok := sess.BrokerageLink()
	return ConnectionStatus{Connected: ok, AccessTokenExists: ok}
}

func (s *BrokerageService) requireLink(sess *session.Session) (session.BrokerageLink, error) {
	link, ok := sess.BrokerageLink()
	if !ok {
		return session.BrokerageLink{}, models.ValidationError(msgNoConnectedAccount)
	}
	return link, nil
}

func (s *BrokerageService) PortfolioSummary(ctx context.Context, sess *session.Session) (*brokerage.PortfolioSummary, error) {
	link, err := s.requireLink(sess)
	if err != nil {
		return nil, err
	}

	summary, err := s.provider.PortfolioSummary(ctx, link.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio summary: %w", err)
	}
	return summary, nil
}

func (s *BrokerageService) Holdings(ctx context.Context, sess *session.Session) (*brokerage.Holdings, error) {
	link, err := s.requireLink(sess)
	if err != nil {
		return nil, err
	}

	holdings, err := s.provider.Holdings(ctx, link.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to get holdings: %w", err)
	}
	return holdings, nil
}

// Transactions returns transactions in [startDate, endDate]. Blank dates
// default to the last 30 days.
func (s *BrokerageService) Transactions(ctx context.Context, sess *session.Session, startDate, endDate string) (*TransactionsResult, error) {
	link, err := s.requireLink(sess)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	end, err := parseTransactionDate("end_date", endDate, now)
	if err != nil {
		return nil, err
	}
	start, err := parseTransactionDate("start_date", startDate, now.Add(-defaultTransactionLookback))
	if err != nil {
		return nil, err
	}
	if start.After(end) {
		return nil, models.ValidationError("start_date must not be after end_date")
	}

	txns, err := s.provider.Transactions(ctx, link.AccessToken, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions: %w", err)
	}

	return &TransactionsResult{
		Transactions: txns,
		StartDate:    start.Format(transactionDateLayout),
		EndDate:      end.Format(transactionDateLayout),
	}, nil
}

func parseTransactionDate(field, value string, fallback time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Date(fallback.Year(), fallback.Month(), fallback.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(transactionDateLayout, value)
	if err != nil {
		return time.Time{}, models.ValidationError(field + " must be formatted YYYY-MM-DD")
	}
	return t, nil
}

// Disconnect drops the session link and, for a signed-in client, the stored
// link on the client row.
func (s *BrokerageService) Disconnect(ctx context.Context, sess *session.Session) error {
	if id, ok := sess.Current(session.KindClient); ok {
		if err := s.clients.ClearBrokerageLink(ctx, id.ID); err != nil && !errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("failed to clear brokerage link: %w", err)
		}
	}

	sess.ClearBrokerageLink()
	return nil
}
