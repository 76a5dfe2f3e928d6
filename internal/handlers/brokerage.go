package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/investment-portal/internal/brokerage"
	"github.com/BradenHooton/investment-portal/internal/services"
	"github.com/BradenHooton/investment-portal/internal/session"
	pkghttp "github.com/BradenHooton/investment-portal/pkg/http"
)

// BrokerageServiceInterface defines the brokerage link operations used by BrokerageHandler
type BrokerageServiceInterface interface {
	CreateLinkToken(ctx context.Context, sess *session.Session) (*brokerage.LinkToken, error)
	ExchangePublicToken(ctx context.Context, sess *session.Session, publicToken string) (*brokerage.Exchange, error)
	Status(sess *session.Session) services.ConnectionStatus
	PortfolioSummary(ctx context.Context, sess *session.Session) (*brokerage.PortfolioSummary, error)
	Holdings(ctx context.Context, sess *session.Session) (*brokerage.Holdings, error)
	Transactions(ctx context.Context, sess *session.Session, startDate, endDate string) (*services.TransactionsResult, error)
	Disconnect(ctx context.Context, sess *session.Session) error
}

// BrokerageHandler exposes the brokerage link and its portfolio data
type BrokerageHandler struct {
	responder
	service BrokerageServiceInterface
}

// NewBrokerageHandler creates a new BrokerageHandler
func NewBrokerageHandler(service BrokerageServiceInterface, sessions SessionSaver, logger *slog.Logger) *BrokerageHandler {
	return &BrokerageHandler{
		responder: responder{sessions: sessions, logger: logger},
		service:   service,
	}
}

// ExchangePublicTokenRequest represents the request body for a token exchange
type ExchangePublicTokenRequest struct {
	PublicToken string `json:"public_token" validate:"omitempty,max=255"`
}

// CreateLinkToken starts a link flow
// @Summary Create link token
// @Produce json
// @Success 200 {object} brokerage.LinkToken
// @Router /api/brokerage/create-link-token [post]
func (h *BrokerageHandler) CreateLinkToken(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	tok, err := h.service.CreateLinkToken(r.Context(), sess)
	if err != nil {
		h.fail(w, r, sess, err)
		return
	}
	h.respond(w, r, sess, http.StatusOK, tok)
}

// ExchangePublicToken completes a link flow
// @Summary Exchange public token
// @Accept json
// @Param request body ExchangePublicTokenRequest true "Public token"
// @Produce json
// @Success 200 {object} brokerage.Exchange
// @Failure 400 {object} pkghttp.ErrorResponse
// @Router /api/brokerage/exchange-public-token [post]
func (h *BrokerageHandler) ExchangePublicToken(w http.ResponseWriter, r *http.Request) {
	var req ExchangePublicTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	sess := session.FromContext(r.Context())
	ex, err := h.service.ExchangePublicToken(r.Context(), sess, req.PublicToken)
	if err != nil {
		h.fail(w, r, sess, err)
		return
	}
	h.respond(w, r, sess, http.StatusOK, ex)
}

// Status reports whether the session holds a brokerage link
// @Summary Connection status
// @Produce json
// @Success 200 {object} services.ConnectionStatus
// @Router /api/brokerage/status [get]
func (h *BrokerageHandler) Status(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	h.respond(w, r, sess, http.StatusOK, h.service.Status(sess))
}

// Portfolio returns the linked portfolio summary
// @Summary Portfolio summary
// @Produce json
// @Success 200 {object} brokerage.PortfolioSummary
// @Failure 400 {object} pkghttp.ErrorResponse
// @Router /api/brokerage/portfolio [get]
func (h *BrokerageHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	summary, err := h.service.PortfolioSummary(r.Context(), sess)
	if err != nil {
		h.fail(w, r, sess, err)
		return
	}
	h.respond(w, r, sess, http.StatusOK, summary)
}

// Holdings returns the linked positions
// @Summary Holdings
// @Produce json
// @Success 200 {object} brokerage.Holdings
// @Failure 400 {object} pkghttp.ErrorResponse
// @Router /api/brokerage/holdings [get]
func (h *BrokerageHandler) Holdings(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	holdings, err := h.service.Holdings(r.Context(), sess)
	if err != nil {
		h.fail(w, r, sess, err)
		return
	}
	h.respond(w, r, sess, http.StatusOK, holdings)
}

// Transactions returns linked transactions in a date range
// @Summary Transactions
// @Param start_date query string false "YYYY-MM-DD, default 30 days ago"
// @Param end_date query string false "YYYY-MM-DD, default today"
// @Produce json
// @Success 200 {object} services.TransactionsResult
// @Failure 400 {object} pkghttp.ErrorResponse
// @Router /api/brokerage/transactions [get]
func (h *BrokerageHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	sess := session.FromContext(r.Context())
	txns, err := h.service.Transactions(r.Context(), sess, query.Get("start_date"), query.Get("end_date"))
	if err != nil {
		h.fail(w, r, sess, err)
		return
	}
	h.respond(w, r, sess, http.StatusOK, txns)
}

// Disconnect drops the brokerage link
// @Summary Disconnect brokerage account
// @Produce json
// @Success 200 {object} MessageResponse
// @Router /api/brokerage/disconnect [post]
func (h *BrokerageHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if err := h.service.Disconnect(r.Context(), sess); err != nil {
		h.fail(w, r, sess, err)
		return
	}
	h.respond(w, r, sess, http.StatusOK, MessageResponse{Message: "Account disconnected successfully"})
}
