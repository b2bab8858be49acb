package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/travelagi/dashboard/internal/model/persona"
	"github.com/travelagi/dashboard/internal/webhook"
)

// Storage keys mirror the ones the original page kept in localStorage, so an
// operator inspecting the state database sees familiar names.
const (
	keyUserID    = "user_id"
	keyAccountID = "account_id"
	keyPersona   = "user_persona"

	notifiedKeyPrefix = "webhook_called_"
)

// Linker is the slice of the webhook client the manager depends on.
type Linker interface {
	StartLinking(ctx context.Context, userID string) (webhook.LinkingResult, error)
	NotifyLinked(ctx context.Context, accountID, userID string) error
}

// Manager owns the session: identity, the cached persona, and the loading
// indicator. It is the single coordinator for that state; handlers and the
// channel client hold a reference instead of touching storage directly.
type Manager struct {
	store Store
	links Linker

	mu            sync.RWMutex
	userID        string
	accountID     string
	persona       *persona.TravelPersona
	personaFailed bool

	// Guards against concurrent notification calls; released once the call
	// finishes. The durable per-account flag is what makes delivery
	// at-most-once.
	notifyInFlight atomic.Bool
}

// NewManager wires the manager to its durable store and webhook client.
func NewManager(store Store, links Linker) *Manager {
	return &Manager{store: store, links: links}
}

// Initialize restores identity and the cached persona from durable storage.
// A malformed cached persona is logged and dropped; it never blocks startup.
func (m *Manager) Initialize(ctx context.Context) error {
	userID, _, err := m.store.Get(ctx, keyUserID)
	if err != nil {
		return fmt.Errorf("restore user id: %w", err)
	}
	accountID, _, err := m.store.Get(ctx, keyAccountID)
	if err != nil {
		return fmt.Errorf("restore account id: %w", err)
	}

	var restored *persona.TravelPersona
	if cached, ok, err := m.store.Get(ctx, keyPersona); err != nil {
		return fmt.Errorf("restore persona: %w", err)
	} else if ok {
		restored, err = persona.Decode([]byte(cached))
		if err != nil {
			log.Printf("[session] error parsing saved persona: %v", err)
			restored = nil
		}
	}

	m.mu.Lock()
	m.userID = userID
	m.accountID = accountID
	m.persona = restored
	m.personaFailed = false
	m.mu.Unlock()
	return nil
}

// UserID returns the generated user identifier, empty before first linking.
func (m *Manager) UserID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.userID
}

// AccountID returns the linked account identifier, empty when not linked.
func (m *Manager) AccountID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accountID
}

// Persona returns the current persona, nil when none has been delivered.
func (m *Manager) Persona() *persona.TravelPersona {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.persona
}

// LoadingPersona reports whether the dashboard should show the spinner: an
// account is linked but no persona is known yet, and the last delivery did
// not fail to parse.
func (m *Manager) LoadingPersona() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accountID != "" && m.persona == nil && !m.personaFailed
}

// Snapshot returns a consistent read of the render-relevant state.
func (m *Manager) Snapshot() (accountID string, p *persona.TravelPersona, loading bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accountID, m.persona, m.accountID != "" && m.persona == nil && !m.personaFailed
}

// HandleLinkCallback consumes the OAuth-style redirect parameters. The
// notification webhook fires at most once per distinct account id: a durable
// flag skips accounts already notified, and an in-flight marker stops two
// concurrent callbacks from double-firing. The return value tells the caller
// whether the parameters were fully consumed and may be stripped from the
// URL; after a failed notification they stay, so the next load retries.
func (m *Manager) HandleLinkCallback(ctx context.Context, status, accountID string) bool {
	if status == "" || accountID == "" {
		return false
	}

	m.mu.Lock()
	m.accountID = accountID
	userID := m.userID
	m.mu.Unlock()
	if err := m.store.Put(ctx, keyAccountID, accountID); err != nil {
		log.Printf("[session] persist account id: %v", err)
	}

	notified, _, err := m.store.Get(ctx, notifiedKeyPrefix+accountID)
	if err != nil {
		log.Printf("[session] read notified flag: %v", err)
	}
	if notified != "" {
		return true
	}

	if !m.notifyInFlight.CompareAndSwap(false, true) {
		return true
	}
	defer m.notifyInFlight.Store(false)

	if err := m.links.NotifyLinked(ctx, accountID, userID); err != nil {
		log.Printf("[session] notification webhook failed: %v", err)
		return false
	}

	if err := m.store.Put(ctx, notifiedKeyPrefix+accountID, "true"); err != nil {
		log.Printf("[session] persist notified flag: %v", err)
	}
	return true
}

// StartLinking mints a user id when absent, persists it, and asks the
// linking provider for the redirect URL the browser should navigate to.
func (m *Manager) StartLinking(ctx context.Context) (string, error) {
	m.mu.Lock()
	userID := m.userID
	if userID == "" {
		userID = uuid.NewString()
		m.userID = userID
	}
	m.mu.Unlock()

	if err := m.store.Put(ctx, keyUserID, userID); err != nil {
		return "", fmt.Errorf("persist user id: %w", err)
	}

	result, err := m.links.StartLinking(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("start linking: %w", err)
	}
	if result.RedirectURL == "" {
		return "", fmt.Errorf("linking provider returned no redirect url")
	}
	return result.RedirectURL, nil
}

// ApplyPersonaPayload replaces the persona with a fresh delivery from the
// event channel. Replacement is total: nothing from the previous persona
// survives. A payload that fails to parse leaves the prior persona in place
// and clears the loading indicator.
func (m *Manager) ApplyPersonaPayload(ctx context.Context, raw []byte) error {
	p, err := persona.Decode(raw)
	if err != nil {
		log.Printf("[session] error parsing persona payload: %v", err)
		m.mu.Lock()
		m.personaFailed = true
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	m.persona = p
	m.personaFailed = false
	m.mu.Unlock()

	encoded, err := p.Encode()
	if err != nil {
		log.Printf("[session] cache persona: %v", err)
		return nil
	}
	if err := m.store.Put(ctx, keyPersona, string(encoded)); err != nil {
		log.Printf("[session] cache persona: %v", err)
	}
	return nil
}
