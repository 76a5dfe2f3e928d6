package models

import "time"

// Admin roles
const (
	AdminRoleAdmin      = "admin"
	AdminRoleSuperAdmin = "super_admin"
	AdminRoleViewer     = "viewer"
)

// AdminUser is a staff operator with console access.
type AdminUser struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	LastLogin    *time.Time
}

// AdminUserResponse is the sanitized JSON form of an AdminUser.
type AdminUserResponse struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login"`
}

func (a *AdminUser) ToResponse() AdminUserResponse {
	return AdminUserResponse{
		ID:        a.ID,
		Username:  a.Username,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Role:      a.Role,
		IsActive:  a.IsActive,
		CreatedAt: a.CreatedAt,
		LastLogin: a.LastLogin,
	}
}

// ValidAdminRole reports whether role is one of the known admin roles.
func ValidAdminRole(role string) bool {
	switch role {
	case AdminRoleAdmin, AdminRoleSuperAdmin, AdminRoleViewer:
		return true
	}
	return false
}
