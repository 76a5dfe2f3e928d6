package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BradenHooton/investment-portal/internal/models"
)

// MemoryClientRepository is an in-process ClientRepository for tests.
type MemoryClientRepository struct {
	mu      sync.Mutex
	nextID  int64
	clients map[int64]*models.Client
}

func NewMemoryClientRepository() *MemoryClientRepository {
	return &MemoryClientRepository{clients: make(map[int64]*models.Client)}
}

func copyClient(c *models.Client) *models.Client {
	cp := *c
	return &cp
}

func (m *MemoryClientRepository) Create(ctx context.Context, c *models.Client) (*models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.clients {
		if existing.Email == c.Email {
			return nil, models.ErrConflict
		}
	}

	m.nextID++
	stored := copyClient(c)
	stored.ID = m.nextID
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	m.clients[stored.ID] = stored
	return copyClient(stored), nil
}

func (m *MemoryClientRepository) GetByID(ctx context.Context, id int64) (*models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.clients[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return copyClient(c), nil
}

func (m *MemoryClientRepository) GetByEmail(ctx context.Context, email string) (*models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.clients {
		if c.Email == email {
			return copyClient(c), nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *MemoryClientRepository) update(id int64, fn func(c *models.Client)) (*models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.clients[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	fn(c)
	return copyClient(c), nil
}

func (m *MemoryClientRepository) UpdateProfile(ctx context.Context, id int64, upd models.ClientProfileUpdate) (*models.Client, error) {
	return m.update(id, func(c *models.Client) {
		if upd.FirstName != nil {
			c.FirstName = *upd.FirstName
		}
		if upd.LastName != nil {
			c.LastName = *upd.LastName
		}
		if upd.Phone != nil {
			if *upd.Phone == "" {
				c.Phone = nil
			} else {
				p := *upd.Phone
				c.Phone = &p
			}
		}
	})
}

func (m *MemoryClientRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := m.update(id, func(c *models.Client) { c.PasswordHash = passwordHash })
	return err
}

func (m *MemoryClientRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) (*models.Client, error) {
	return m.update(id, func(c *models.Client) { c.LastLogin = &at })
}

func (m *MemoryClientRepository) SetActive(ctx context.Context, id int64, active bool) (bool, *models.Client, error) {
	var previous bool
	c, err := m.update(id, func(c *models.Client) {
		previous = c.IsActive
		c.IsActive = active
	})
	if err != nil {
		return false, nil, err
	}
	return previous, c, nil
}

func (m *MemoryClientRepository) SetBrokerageLink(ctx context.Context, id int64, accessToken, itemID string, at time.Time) (*models.Client, error) {
	return m.update(id, func(c *models.Client) {
		c.BrokerageAccessToken = &accessToken
		c.BrokerageItemID = &itemID
		c.BrokerageConnectedAt = &at
	})
}

func (m *MemoryClientRepository) ClearBrokerageLink(ctx context.Context, id int64) error {
	_, err := m.update(id, func(c *models.Client) {
		c.BrokerageAccessToken = nil
		c.BrokerageItemID = nil
		c.BrokerageConnectedAt = nil
	})
	return err
}

func (m *MemoryClientRepository) List(ctx context.Context, filter models.ClientFilter, limit, offset int) ([]*models.Client, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	search := strings.ToLower(filter.Search)
	matched := make([]*models.Client, 0)
	for _, c := range m.clients {
		if filter.Active != nil && c.IsActive != *filter.Active {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(c.FirstName), search) &&
			!strings.Contains(strings.ToLower(c.LastName), search) &&
			!strings.Contains(strings.ToLower(c.Email), search) {
			continue
		}
		matched = append(matched, copyClient(c))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := int64(len(matched))
	if offset >= len(matched) {
		return []*models.Client{}, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *MemoryClientRepository) CountTotal(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.clients)), nil
}

func (m *MemoryClientRepository) CountActive(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, c := range m.clients {
		if c.IsActive {
			n++
		}
	}
	return n, nil
}

func (m *MemoryClientRepository) CountNewSince(ctx context.Context, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, c := range m.clients {
		if !c.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// MemoryAdminUserRepository is an in-process AdminUserRepository for tests.
type MemoryAdminUserRepository struct {
	mu     sync.Mutex
	nextID int64
	admins map[int64]*models.AdminUser
}

func NewMemoryAdminUserRepository() *MemoryAdminUserRepository {
	return &MemoryAdminUserRepository{admins: make(map[int64]*models.AdminUser)}
}

func (m *MemoryAdminUserRepository) Create(ctx context.Context, a *models.AdminUser) (*models.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.admins {
		if existing.Username == a.Username || existing.Email == a.Email {
			return nil, models.ErrConflict
		}
	}

	m.nextID++
	stored := *a
	stored.ID = m.nextID
	if stored.Role == "" {
		stored.Role = models.AdminRoleAdmin
	}
	stored.CreatedAt = time.Now().UTC()
	m.admins[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (m *MemoryAdminUserRepository) GetByID(ctx context.Context, id int64) (*models.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.admins[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := *a
	return &out, nil
}

func (m *MemoryAdminUserRepository) GetByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.admins {
		if a.Username == username {
			out := *a
			return &out, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *MemoryAdminUserRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) (*models.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.admins[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	a.LastLogin = &at
	out := *a
	return &out, nil
}

// SetActive flips an admin's active flag directly.
func (m *MemoryAdminUserRepository) SetActive(id int64, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a, ok := m.admins[id]; ok {
		a.IsActive = active
	}
}

// MemoryAuditLogRepository is an in-process AuditLogRepository for tests.
// Usernames are resolved through Admins when set.
type MemoryAuditLogRepository struct {
	mu     sync.Mutex
	logs   []*models.AuditLog
	Admins *MemoryAdminUserRepository

	// CreateErr, when set, is returned by Create instead of storing.
	CreateErr error
}

func NewMemoryAuditLogRepository(admins *MemoryAdminUserRepository) *MemoryAuditLogRepository {
	return &MemoryAuditLogRepository{Admins: admins}
}

func (m *MemoryAuditLogRepository) Create(ctx context.Context, log *models.AuditLog) (*models.AuditLog, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}

	stored := *log
	if m.Admins != nil {
		if a, err := m.Admins.GetByID(ctx, log.AdminUserID); err == nil {
			username := a.Username
			stored.AdminUsername = &username
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored.ID = int64(len(m.logs) + 1)
	stored.Timestamp = time.Now().UTC()
	m.logs = append(m.logs, &stored)
	out := stored
	return &out, nil
}

func (m *MemoryAuditLogRepository) List(ctx context.Context, limit, offset int) ([]*models.AuditLog, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ordered := make([]*models.AuditLog, len(m.logs))
	copy(ordered, m.logs)
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].Timestamp.Equal(ordered[j].Timestamp) {
			return ordered[i].Timestamp.After(ordered[j].Timestamp)
		}
		return ordered[i].ID > ordered[j].ID
	})

	total := int64(len(ordered))
	if offset >= len(ordered) {
		return []*models.AuditLog{}, total, nil
	}
	end := offset + limit
	if end > len(ordered) {
		end = len(ordered)
	}
	return ordered[offset:end], total, nil
}

// Entries returns every stored entry in insertion order.
func (m *MemoryAuditLogRepository) Entries() []*models.AuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*models.AuditLog, len(m.logs))
	copy(out, m.logs)
	return out
}

// MockClientRepository wraps a MemoryClientRepository; set a Func field to
// override one method, typically to inject a store failure.
type MockClientRepository struct {
	*MemoryClientRepository

	GetByEmailFunc      func(ctx context.Context, email string) (*models.Client, error)
	UpdateLastLoginFunc func(ctx context.Context, id int64, at time.Time) (*models.Client, error)
	SetActiveFunc       func(ctx context.Context, id int64, active bool) (bool, *models.Client, error)
	ListFunc            func(ctx context.Context, filter models.ClientFilter, limit, offset int) ([]*models.Client, int64, error)
}

func NewMockClientRepository() *MockClientRepository {
	return &MockClientRepository{MemoryClientRepository: NewMemoryClientRepository()}
}

func (m *MockClientRepository) GetByEmail(ctx context.Context, email string) (*models.Client, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return m.MemoryClientRepository.GetByEmail(ctx, email)
}

func (m *MockClientRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) (*models.Client, error) {
	if m.UpdateLastLoginFunc != nil {
		return m.UpdateLastLoginFunc(ctx, id, at)
	}
	return m.MemoryClientRepository.UpdateLastLogin(ctx, id, at)
}

func (m *MockClientRepository) SetActive(ctx context.Context, id int64, active bool) (bool, *models.Client, error) {
	if m.SetActiveFunc != nil {
		return m.SetActiveFunc(ctx, id, active)
	}
	return m.MemoryClientRepository.SetActive(ctx, id, active)
}

func (m *MockClientRepository) List(ctx context.Context, filter models.ClientFilter, limit, offset int) ([]*models.Client, int64, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter, limit, offset)
	}
	return m.MemoryClientRepository.List(ctx, filter, limit, offset)
}
