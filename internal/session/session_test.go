package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BradenHooton/investment-portal/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var testCookie = auth.CookieConfig{Name: "portal_session", SameSite: "lax"}

func newTestManager(store Store) *Manager {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewManager(store, auth.NewSessionTokenSigner(testSecret), testCookie, time.Hour, logger)
}

// requestWithCookies replays the cookies a previous response set.
func requestWithCookies(w *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

// ── Session slots ──

func TestSession_NamespacesAreIndependent(t *testing.T) {
	s := New()
	s.Establish(KindClient, Identity{ID: 1, Email: "a@x.com"})
	s.Establish(KindAdmin, Identity{ID: 9})

	s.Clear(KindClient)

	_, ok := s.Current(KindClient)
	assert.False(t, ok)
	admin, ok := s.Current(KindAdmin)
	require.True(t, ok)
	assert.Equal(t, int64(9), admin.ID)

	s.Establish(KindClient, Identity{ID: 1, Email: "a@x.com"})
	s.Clear(KindAdmin)

	client, ok := s.Current(KindClient)
	require.True(t, ok)
	assert.Equal(t, "a@x.com", client.Email)
	_, ok = s.Current(KindAdmin)
	assert.False(t, ok)
}

func TestSession_ClearClientDropsBrokerageLink(t *testing.T) {
	s := New()
	s.Establish(KindClient, Identity{ID: 1})
	s.Establish(KindAdmin, Identity{ID: 2})
	s.SetBrokerageLink(BrokerageLink{AccessToken: "tok", ItemID: "item"})

	s.Clear(KindClient)

	_, ok := s.BrokerageLink()
	assert.False(t, ok)
	_, ok = s.Current(KindAdmin)
	assert.True(t, ok)
}

func TestSession_ClearIsIdempotent(t *testing.T) {
	s := New()
	s.Clear(KindClient)
	s.Clear(KindAdmin)

	assert.True(t, s.Empty())
	assert.False(t, s.Dirty())
}

func TestSession_EstablishRotatesID(t *testing.T) {
	s := New()
	before := s.ID()

	s.Establish(KindClient, Identity{ID: 1})

	assert.NotEqual(t, before, s.ID())
	assert.True(t, s.Dirty())
}

func TestSession_EstablishOtherClientDropsBrokerageLink(t *testing.T) {
	s := New()
	s.Establish(KindClient, Identity{ID: 1})
	s.SetBrokerageLink(BrokerageLink{AccessToken: "tok", ItemID: "item"})

	s.Establish(KindClient, Identity{ID: 1})
	_, ok := s.BrokerageLink()
	assert.True(t, ok, "same client keeps its link")

	s.Establish(KindClient, Identity{ID: 2})
	_, ok = s.BrokerageLink()
	assert.False(t, ok)
}

func TestSession_EstablishKeepsAnonymousBrokerageLink(t *testing.T) {
	s := New()
	s.SetBrokerageLink(BrokerageLink{AccessToken: "tok", ItemID: "item"})

	s.Establish(KindClient, Identity{ID: 1})

	_, ok := s.BrokerageLink()
	assert.True(t, ok)
}

func TestSession_ClearAll(t *testing.T) {
	s := New()
	s.Establish(KindClient, Identity{ID: 1})
	s.Establish(KindAdmin, Identity{ID: 2})
	s.SetBrokerageLink(BrokerageLink{AccessToken: "tok"})

	s.ClearAll()

	assert.True(t, s.Empty())
}

// ── MemoryStore ──

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "a", []byte("one"), time.Minute))
	require.NoError(t, store.Save(ctx, "b", []byte("two"), time.Hour))

	data, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), data)

	now = now.Add(2 * time.Minute)

	_, err = store.Load(ctx, "a")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	removed, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "a", []byte("one"), time.Minute))
	require.NoError(t, store.Delete(ctx, "a"))

	_, err := store.Load(ctx, "a")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

// ── Manager ──

func TestManager_Load_NoCookie_ReturnsEmptySession(t *testing.T) {
	m := newTestManager(NewMemoryStore())

	s, err := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))

	require.NoError(t, err)
	assert.True(t, s.Empty())
}

func TestManager_SaveAndLoad_RoundTrip(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(store)

	s := New()
	s.Establish(KindClient, Identity{ID: 7, Email: "a@x.com"})
	s.SetBrokerageLink(BrokerageLink{AccessToken: "tok", ItemID: "item"})

	w := httptest.NewRecorder()
	require.NoError(t, m.Save(context.Background(), w, s))
	assert.False(t, s.Dirty())

	loaded, err := m.Load(requestWithCookies(w))
	require.NoError(t, err)

	client, ok := loaded.Current(KindClient)
	require.True(t, ok)
	assert.Equal(t, int64(7), client.ID)
	link, ok := loaded.BrokerageLink()
	require.True(t, ok)
	assert.Equal(t, "tok", link.AccessToken)
	assert.Equal(t, s.ID(), loaded.ID())
}

func TestManager_Save_RotationDeletesOldID(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(store)
	ctx := context.Background()

	s := New()
	s.Establish(KindAdmin, Identity{ID: 1})
	require.NoError(t, m.Save(ctx, httptest.NewRecorder(), s))
	oldID := s.ID()

	s.Establish(KindClient, Identity{ID: 2})
	require.NoError(t, m.Save(ctx, httptest.NewRecorder(), s))

	_, err := store.Load(ctx, oldID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = store.Load(ctx, s.ID())
	assert.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}

func TestManager_Save_EmptySessionDestroysAndClearsCookie(t *testing.T) {
	store := NewMemoryStore()
	m := newTestManager(store)
	ctx := context.Background()

	s := New()
	s.Establish(KindClient, Identity{ID: 1})
	require.NoError(t, m.Save(ctx, httptest.NewRecorder(), s))

	s.Clear(KindClient)
	w := httptest.NewRecorder()
	require.NoError(t, m.Save(ctx, w, s))

	assert.Equal(t, 0, store.Len())
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestManager_Save_UnchangedSessionWritesNothing(t *testing.T) {
	m := newTestManager(NewMemoryStore())

	w := httptest.NewRecorder()
	require.NoError(t, m.Save(context.Background(), w, New()))

	assert.Empty(t, w.Result().Cookies())
}

func TestManager_Save_CleanSessionDoesNotExtendExpiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	m := newTestManager(store)

	s := New()
	s.Establish(KindClient, Identity{ID: 7})
	w := httptest.NewRecorder()
	require.NoError(t, m.Save(context.Background(), w, s))

	now = now.Add(40 * time.Minute)
	loaded, err := m.Load(requestWithCookies(w))
	require.NoError(t, err)
	_, ok := loaded.Current(KindClient)
	require.True(t, ok)

	w2 := httptest.NewRecorder()
	require.NoError(t, m.Save(context.Background(), w2, loaded))
	assert.Empty(t, w2.Result().Cookies())

	now = now.Add(30 * time.Minute)
	_, err = store.Load(context.Background(), s.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestManager_Load_TamperedCookie_ReturnsEmptySession(t *testing.T) {
	m := newTestManager(NewMemoryStore())

	s := New()
	s.Establish(KindClient, Identity{ID: 1})
	w := httptest.NewRecorder()
	require.NoError(t, m.Save(context.Background(), w, s))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "portal_session", Value: w.Result().Cookies()[0].Value + "tampered"})

	loaded, err := m.Load(req)
	require.NoError(t, err)
	assert.True(t, loaded.Empty())
}

type failingStore struct{ MemoryStore }

func (f *failingStore) Load(ctx context.Context, id string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func TestMiddleware_StoreFailure_Returns503(t *testing.T) {
	m := newTestManager(&failingStore{})

	token, err := auth.NewSessionTokenSigner(testSecret).Sign("some-id", time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "portal_session", Value: token})

	called := false
	w := httptest.NewRecorder()
	m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(w, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMiddleware_AttachesSession(t *testing.T) {
	m := newTestManager(NewMemoryStore())

	var got *Session
	w := httptest.NewRecorder()
	m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	})).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, got)
	assert.True(t, got.Empty())
}
