package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/BradenHooton/investment-portal/internal/models"
	"github.com/BradenHooton/investment-portal/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuditService() (*services.AuditService, *services.MemoryAuditLogRepository) {
	repo := services.NewMemoryAuditLogRepository(nil)
	return services.NewAuditService(repo, slog.New(slog.NewTextHandler(io.Discard, nil))), repo
}

func TestAuditService_Record_TruncatesRequestMeta(t *testing.T) {
	svc, repo := newAuditService()

	svc.Record(context.Background(), services.AuditEntry{
		AdminUserID:  1,
		Action:       models.AuditActionViewDashboard,
		ResourceType: models.AuditResourceDashboardStats,
		Meta: services.RequestMeta{
			IPAddress: strings.Repeat("f", 60),
			UserAgent: strings.Repeat("é", 300),
		},
	})

	entries := repo.Entries()
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].UserAgent)
	assert.Equal(t, models.AuditUserAgentMaxLen, len([]rune(*entries[0].UserAgent)))
	require.NotNil(t, entries[0].IPAddress)
	assert.Len(t, *entries[0].IPAddress, models.AuditIPAddressMaxLen)
}

func TestAuditService_Record_OptionalFieldsStayNull(t *testing.T) {
	svc, repo := newAuditService()

	svc.Record(context.Background(), services.AuditEntry{
		AdminUserID:  1,
		Action:       models.AuditActionLogin,
		ResourceType: models.AuditResourceAdminSession,
	})

	entries := repo.Entries()
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].ResourceID)
	assert.Nil(t, entries[0].Details)
	assert.Nil(t, entries[0].IPAddress)
	assert.Nil(t, entries[0].UserAgent)
}

func TestAuditService_Record_SwallowsStoreFailure(t *testing.T) {
	svc, repo := newAuditService()
	repo.CreateErr = errors.New("insert failed")

	assert.NotPanics(t, func() {
		svc.Record(context.Background(), services.AuditEntry{AdminUserID: 1, Action: models.AuditActionLogout})
	})
	assert.Empty(t, repo.Entries())
}
