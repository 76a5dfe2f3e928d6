package services_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/BradenHooton/investment-portal/internal/brokerage"
	"github.com/BradenHooton/investment-portal/internal/models"
	"github.com/BradenHooton/investment-portal/internal/services"
	"github.com/BradenHooton/investment-portal/internal/session"
	pkgauth "github.com/BradenHooton/investment-portal/pkg/auth"
	pkglogger "github.com/BradenHooton/investment-portal/pkg/logger"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	pkgauth.BcryptCost = bcrypt.MinCost
}

var testMeta = services.RequestMeta{IPAddress: "203.0.113.7", UserAgent: "test-agent"}

type fixture struct {
	clients    *services.MockClientRepository
	admins     *services.MemoryAdminUserRepository
	auditRepo  *services.MemoryAuditLogRepository
	clientAuth *services.ClientAuthService
	admin      *services.AdminService
	brokerage  *services.BrokerageService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clients := services.NewMockClientRepository()
	admins := services.NewMemoryAdminUserRepository()
	auditRepo := services.NewMemoryAuditLogRepository(admins)
	audit := services.NewAuditService(auditRepo, logger)
	provider := brokerage.NewFixtureProvider()

	return &fixture{
		clients:    clients,
		admins:     admins,
		auditRepo:  auditRepo,
		clientAuth: services.NewClientAuthService(clients, nil, pkglogger.NewAuthEventLogger(logger), logger),
		admin:      services.NewAdminService(admins, clients, audit, provider, nil, logger),
		brokerage:  services.NewBrokerageService(provider, clients, logger),
	}
}

func (f *fixture) seedAdmin(t *testing.T, username, password string, active bool) *models.AdminUser {
	t.Helper()

	hash, err := pkgauth.HashPassword(password)
	require.NoError(t, err)

	a, err := f.admins.Create(context.Background(), &models.AdminUser{
		Username:     username,
		Email:        username + "@portal.test",
		PasswordHash: hash,
		FirstName:    "Ada",
		LastName:     "Admin",
		IsActive:     active,
	})
	require.NoError(t, err)
	return a
}

func (f *fixture) seedClient(t *testing.T, email, password, first, last string) *models.Client {
	t.Helper()

	hash, err := pkgauth.HashPassword(password)
	require.NoError(t, err)

	c, err := f.clients.Create(context.Background(), &models.Client{
		Email:        email,
		PasswordHash: hash,
		FirstName:    first,
		LastName:     last,
		IsActive:     true,
	})
	require.NoError(t, err)
	return c
}

// adminSession returns a session signed in as admin.
func adminSession(admin *models.AdminUser) *session.Session {
	s := session.New()
	s.Establish(session.KindAdmin, session.Identity{ID: admin.ID})
	return s
}

func clientSession(c *models.Client) *session.Session {
	s := session.New()
	s.Establish(session.KindClient, session.Identity{ID: c.ID, Email: c.Email})
	return s
}
