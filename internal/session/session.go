// Package session holds the server-side session that binds a browser cookie
// to a client identity, an admin identity and a brokerage link. The client
// and admin slots are independent namespaces.
package session

import (
	"sync"

	"github.com/google/uuid"
)

// Kind selects an identity namespace within a session.
type Kind string

const (
	KindClient Kind = "client"
	KindAdmin  Kind = "admin"
)

// Identity is the authenticated principal stored in a slot.
type Identity struct {
	ID    int64  `json:"id"`
	Email string `json:"email,omitempty"`
}

// BrokerageLink is the placeholder access token handed out by the brokerage
// stub. Its presence is the only gate on the brokerage endpoints.
type BrokerageLink struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
}

// Data is the persisted form of a session.
type Data struct {
	Client    *Identity      `json:"client,omitempty"`
	Admin     *Identity      `json:"admin,omitempty"`
	Brokerage *BrokerageLink `json:"brokerage,omitempty"`
}

type Session struct {
	mu sync.Mutex

	id         string
	previousID string
	persisted  bool
	dirty      bool
	data       Data
}

// New returns an empty, unsaved session with a fresh id.
func New() *Session {
	return &Session{id: newID()}
}

func restore(id string, data Data) *Session {
	return &Session{id: id, persisted: true, data: data}
}

func newID() string {
	return uuid.NewString()
}

func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Establish binds identity to the kind slot and rotates the session id.
// Binding a different client drops the brokerage link of the previous one.
func (s *Session) Establish(kind Kind, identity Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := identity
	switch kind {
	case KindClient:
		if s.data.Client != nil && s.data.Client.ID != identity.ID {
			s.data.Brokerage = nil
		}
		s.data.Client = &id
	case KindAdmin:
		s.data.Admin = &id
	default:
		return
	}

	if s.persisted && s.previousID == "" {
		s.previousID = s.id
	}
	s.id = newID()
	s.dirty = true
}

// Current returns the identity in the kind slot, if any.
func (s *Session) Current(kind Kind) (Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var slot *Identity
	switch kind {
	case KindClient:
		slot = s.data.Client
	case KindAdmin:
		slot = s.data.Admin
	}
	if slot == nil {
		return Identity{}, false
	}
	return *slot, true
}

// Clear empties the kind slot. Clearing the client slot also drops the
// brokerage link; the admin slot is never touched by a client clear.
func (s *Session) Clear(kind Kind) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch kind {
	case KindClient:
		if s.data.Client != nil || s.data.Brokerage != nil {
			s.data.Client = nil
			s.data.Brokerage = nil
			s.dirty = true
		}
	case KindAdmin:
		if s.data.Admin != nil {
			s.data.Admin = nil
			s.dirty = true
		}
	}
}

// ClearAll empties every slot.
func (s *Session) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.data.empty() {
		s.data = Data{}
		s.dirty = true
	}
}

func (s *Session) SetBrokerageLink(link BrokerageLink) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := link
	s.data.Brokerage = &l
	s.dirty = true
}

func (s *Session) BrokerageLink() (BrokerageLink, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data.Brokerage == nil || s.data.Brokerage.AccessToken == "" {
		return BrokerageLink{}, false
	}
	return *s.data.Brokerage, true
}

func (s *Session) ClearBrokerageLink() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data.Brokerage != nil {
		s.data.Brokerage = nil
		s.dirty = true
	}
}

// Empty reports whether no slot holds anything.
func (s *Session) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.empty()
}

// Dirty reports whether the session changed since it was loaded or saved.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

func (d Data) empty() bool {
	return d.Client == nil && d.Admin == nil && d.Brokerage == nil
}
