package musiclink

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Manager owns the run's provider clients, in priority order, and remembers
// which of them have been disabled by an authentication failure.
type Manager struct {
	clients  []Client
	disabled map[ProviderName]error
	mutex    sync.RWMutex
	logger   *zap.Logger
}

// NewManager creates a manager for the given clients. Registration order is kept.
func NewManager(logger *zap.Logger, clients ...Client) *Manager {
	return &Manager{
		clients:  clients,
		disabled: make(map[ProviderName]error),
		logger:   logger,
	}
}

// AuthenticateAll authenticates every client once. A client that fails is disabled
// for the rest of the run; the others are unaffected.
func (m *Manager) AuthenticateAll(ctx context.Context) {
	for _, client := range m.clients {
		if err := client.Authenticate(ctx); err != nil {
			m.Disable(client.Name(), err)
			continue
		}
		m.logger.Info("Provider authenticated", zap.String("provider", string(client.Name())))
	}
}

// Disable marks a provider unusable. Only the first cause is logged.
func (m *Manager) Disable(name ProviderName, cause error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.disabled[name]; exists {
		return
	}
	m.disabled[name] = cause

	m.logger.Error("Provider disabled for the rest of the run",
		zap.String("provider", string(name)),
		zap.Error(cause))
}

// Enabled reports whether the provider is still usable.
func (m *Manager) Enabled(name ProviderName) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	_, disabled := m.disabled[name]
	return !disabled
}

// Client returns the enabled client registered under name.
func (m *Manager) Client(name ProviderName) (Client, bool) {
	if !m.Enabled(name) {
		return nil, false
	}
	for _, client := range m.clients {
		if client.Name() == name {
			return client, true
		}
	}
	return nil, false
}

// Clients returns the enabled clients in registration order.
func (m *Manager) Clients() []Client {
	enabled := make([]Client, 0, len(m.clients))
	for _, client := range m.clients {
		if m.Enabled(client.Name()) {
			enabled = append(enabled, client)
		}
	}
	return enabled
}
