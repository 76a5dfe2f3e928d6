package models

import "time"

// Client is a retail end-user of the portal.
type Client struct {
	ID           int64
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        *string

	// Brokerage link placeholder fields. Never serialized.
	BrokerageAccessToken *string
	BrokerageItemID      *string
	BrokerageConnectedAt *time.Time

	IsActive  bool
	CreatedAt time.Time
	LastLogin *time.Time
}

// HasBrokerageConnection reports whether both link fields are populated.
func (c *Client) HasBrokerageConnection() bool {
	return c.BrokerageAccessToken != nil && *c.BrokerageAccessToken != "" &&
		c.BrokerageItemID != nil && *c.BrokerageItemID != ""
}

// ClientResponse is the sanitized JSON form of a Client.
type ClientResponse struct {
	ID                     int64      `json:"id"`
	Email                  string     `json:"email"`
	FirstName              string     `json:"first_name"`
	LastName               string     `json:"last_name"`
	Phone                  *string    `json:"phone"`
	IsActive               bool       `json:"is_active"`
	CreatedAt              time.Time  `json:"created_at"`
	LastLogin              *time.Time `json:"last_login"`
	HasBrokerageConnection bool       `json:"has_brokerage_connection"`
	BrokerageConnectedAt   *time.Time `json:"brokerage_connected_at"`
}

// ToResponse strips the password hash and raw link credentials.
func (c *Client) ToResponse() ClientResponse {
	return ClientResponse{
		ID:                     c.ID,
		Email:                  c.Email,
		FirstName:              c.FirstName,
		LastName:               c.LastName,
		Phone:                  c.Phone,
		IsActive:               c.IsActive,
		CreatedAt:              c.CreatedAt,
		LastLogin:              c.LastLogin,
		HasBrokerageConnection: c.HasBrokerageConnection(),
		BrokerageConnectedAt:   c.BrokerageConnectedAt,
	}
}

// ClientProfileUpdate holds the mutable profile fields. Nil means unchanged.
type ClientProfileUpdate struct {
	FirstName *string
	LastName  *string
	Phone     *string
}

// Empty reports whether the update carries no changes.
func (u ClientProfileUpdate) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Phone == nil
}

// ClientFilter narrows an admin client listing.
type ClientFilter struct {
	Search string
	Active *bool
}
