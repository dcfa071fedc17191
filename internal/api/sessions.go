package api

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/example/storefront/internal/cart"
	"github.com/example/storefront/internal/identity"
	"github.com/example/storefront/internal/infrastructure/notify"
)

const clientCookieName = "shopper_id"

// ChangeBus connects cart sessions to each other. Satisfied by
// notify.Hub (single process) and notify.KafkaChannel (across
// processes).
type ChangeBus interface {
	Subscribe() (notify.Subscription, notify.Publisher)
}

// SessionManager hands out one cart session per client. A client is a
// browser, identified by the shopper_id cookie; its session lives for the
// life of the process and follows the shopper through login and logout.
// Every session is subscribed to the change bus so carts converge across
// sessions the way browser tabs do.
type SessionManager struct {
	mu       sync.Mutex
	store    *cart.Store
	bus      ChangeBus
	sessions map[string]*managedSession
}

type managedSession struct {
	session *cart.Session
	cancel  context.CancelFunc
}

func NewSessionManager(store *cart.Store, bus ChangeBus) *SessionManager {
	return &SessionManager{
		store:    store,
		bus:      bus,
		sessions: make(map[string]*managedSession),
	}
}

// Session returns the client's cart session, creating and watching it on
// first use, and drives it to the requested identity. The guest-to-user
// transition inside SetIdentity performs the login cart merge.
func (m *SessionManager) Session(ctx context.Context, clientID string, id identity.Identity) *cart.Session {
	m.mu.Lock()
	ms, ok := m.sessions[clientID]
	if !ok {
		sub, pub := m.bus.Subscribe()
		sess := cart.NewSession(m.store.ForClient(clientID), pub)

		watchCtx, cancel := context.WithCancel(context.Background())
		go sess.Watch(watchCtx, sub)

		ms = &managedSession{session: sess, cancel: cancel}
		m.sessions[clientID] = ms
	}
	m.mu.Unlock()

	ms.session.SetIdentity(ctx, id)
	return ms.session
}

// Close stops all watch goroutines.
func (m *SessionManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ms := range m.sessions {
		ms.cancel()
	}
	m.sessions = make(map[string]*managedSession)
}

// clientID reads the shopper_id cookie, minting and setting one when the
// client arrives without it.
func clientID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(clientCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	id := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     clientCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   365 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
