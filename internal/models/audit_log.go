package models

import "time"

// Audit actions
const (
	AuditActionLogin             = "login"
	AuditActionLogout            = "logout"
	AuditActionViewClients       = "view_clients"
	AuditActionViewClientDetails = "view_client_details"
	AuditActionActivateClient    = "activate_client"
	AuditActionSuspendClient     = "suspend_client"
	AuditActionViewDashboard     = "view_dashboard"
)

// Resource types
const (
	AuditResourceAdminSession   = "admin_session"
	AuditResourceClientList     = "client_list"
	AuditResourceClient         = "client"
	AuditResourceDashboardStats = "dashboard_stats"
)

// Column limits enforced before insert
const (
	AuditUserAgentMaxLen = 255
	AuditIPAddressMaxLen = 45
)

// AuditLog is an immutable record of an administrative action.
type AuditLog struct {
	ID            int64
	AdminUserID   int64
	AdminUsername *string // resolved on read; nil when the admin row is gone
	Action        string
	ResourceType  string
	ResourceID    *string
	Details       *string
	IPAddress     *string
	UserAgent     *string
	Timestamp     time.Time
}

// AuditLogResponse is the JSON form of an AuditLog.
type AuditLogResponse struct {
	ID            int64     `json:"id"`
	AdminUserID   int64     `json:"admin_user_id"`
	AdminUsername *string   `json:"admin_username"`
	Action        string    `json:"action"`
	ResourceType  string    `json:"resource_type"`
	ResourceID    *string   `json:"resource_id"`
	Details       *string   `json:"details"`
	IPAddress     *string   `json:"ip_address"`
	UserAgent     *string   `json:"user_agent"`
	Timestamp     time.Time `json:"timestamp"`
}

func (l *AuditLog) ToResponse() AuditLogResponse {
	return AuditLogResponse{
		ID:            l.ID,
		AdminUserID:   l.AdminUserID,
		AdminUsername: l.AdminUsername,
		Action:        l.Action,
		ResourceType:  l.ResourceType,
		ResourceID:    l.ResourceID,
		Details:       l.Details,
		IPAddress:     l.IPAddress,
		UserAgent:     l.UserAgent,
		Timestamp:     l.Timestamp,
	}
}
