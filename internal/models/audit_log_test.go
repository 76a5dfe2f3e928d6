package models

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAuditLog_ToResponse(t *testing.T) {
	username := "ops"
	resourceID := "42"
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	resp := (&AuditLog{
		ID:            9,
		AdminUserID:   3,
		AdminUsername: &username,
		Action:        AuditActionSuspendClient,
		ResourceType:  AuditResourceClient,
		ResourceID:    &resourceID,
		Timestamp:     ts,
	}).ToResponse()

	assert.Equal(t, int64(9), resp.ID)
	assert.Equal(t, "ops", *resp.AdminUsername)
	assert.Equal(t, "suspend_client", resp.Action)
	assert.Equal(t, "42", *resp.ResourceID)
	assert.Nil(t, resp.Details)
	assert.Equal(t, ts, resp.Timestamp)
}

func TestClient_HasBrokerageConnection(t *testing.T) {
	token, item, empty := "tok", "item", ""

	assert.False(t, (&Client{}).HasBrokerageConnection())
	assert.False(t, (&Client{BrokerageAccessToken: &token}).HasBrokerageConnection())
	assert.False(t, (&Client{BrokerageAccessToken: &token, BrokerageItemID: &empty}).HasBrokerageConnection())
	assert.True(t, (&Client{BrokerageAccessToken: &token, BrokerageItemID: &item}).HasBrokerageConnection())

	resp := (&Client{ID: 1, BrokerageAccessToken: &token, BrokerageItemID: &item}).ToResponse()
	assert.True(t, resp.HasBrokerageConnection)
}

func TestValidAdminRole(t *testing.T) {
	for _, role := range []string{AdminRoleAdmin, AdminRoleSuperAdmin, AdminRoleViewer} {
		assert.True(t, ValidAdminRole(role), role)
	}
	assert.False(t, ValidAdminRole("root"))
	assert.False(t, ValidAdminRole(""))
}

func TestNewPage(t *testing.T) {
	tests := []struct {
		name            string
		number, perPage int
		want            Page
	}{
		{"defaults", 0, 0, Page{Number: 1, PerPage: 20}},
		{"negative", -3, -1, Page{Number: 1, PerPage: 20}},
		{"capped", 2, 500, Page{Number: 2, PerPage: 100}},
		{"passthrough", 3, 10, Page{Number: 3, PerPage: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewPage(tt.number, tt.perPage, 20, 100))
		})
	}

	assert.Equal(t, 20, Page{Number: 3, PerPage: 10}.Offset())
}

func TestNewPage_HugePageNumberKeepsOffsetInRange(t *testing.T) {
	for _, perPage := range []int{1, 7, 20, 100} {
		p := NewPage(math.MaxInt, perPage, 20, 100)

		assert.Equal(t, perPage, p.PerPage)
		assert.GreaterOrEqual(t, p.Offset(), 0, "per_page %d", perPage)
		assert.Greater(t, p.Number, 1)
	}
}

func TestPageCount(t *testing.T) {
	assert.Equal(t, 0, PageCount(0, 20))
	assert.Equal(t, 1, PageCount(1, 20))
	assert.Equal(t, 1, PageCount(20, 20))
	assert.Equal(t, 2, PageCount(21, 20))
	assert.Equal(t, 0, PageCount(5, 0))
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "account is deactivated", PublicMessage(AuthError("account is deactivated")))
	assert.Equal(t, "resource not found", PublicMessage(fmt.Errorf("lookup: %w", ErrNotFound)))
	assert.Equal(t, "internal server error", PublicMessage(errors.New("pq: connection refused")))

	wrapped := fmt.Errorf("service: %w", ConflictError("email already registered"))
	assert.ErrorIs(t, wrapped, ErrConflict)
	assert.Equal(t, "email already registered", PublicMessage(wrapped))
}
