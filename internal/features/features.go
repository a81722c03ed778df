package features

import (
	"sort"
	"sync"
)

// Feature flag names.
const (
	// FeatureCacheEnabled serves profile reads through the cache
	FeatureCacheEnabled = "cache_enabled"
	// FeatureEventHooksEnabled publishes domain events
	FeatureEventHooksEnabled = "event_hooks_enabled"
	// FeatureHolyWeekBlackout adds the Holy Week blackout period
	FeatureHolyWeekBlackout = "holy_week_blackout"
)

// FeatureFlag represents a feature flag configuration.
type FeatureFlag struct {
	Name        string `json:"name"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description"`
}

// Manager manages feature flags.
type Manager struct {
	mu    sync.RWMutex
	flags map[string]*FeatureFlag
}

// NewManager creates a manager with every known flag registered as disabled.
func NewManager() *Manager {
	m := &Manager{flags: make(map[string]*FeatureFlag)}
	m.Register(FeatureCacheEnabled, false, "Cache profile reads")
	m.Register(FeatureEventHooksEnabled, false, "Publish profile, beneficiary, eligibility and transfer events")
	m.Register(FeatureHolyWeekBlackout, false, "Treat Holy Week as a blackout period")
	return m
}

// NewManagerFromConfig registers the known flags and applies the configured
// values. Unknown names are registered as-is.
func NewManagerFromConfig(values map[string]bool) *Manager {
	m := NewManager()
	for name, enabled := range values {
		m.Set(name, enabled)
	}
	return m
}

// Register registers a new feature flag.
func (m *Manager) Register(name string, enabled bool, description string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.flags[name] = &FeatureFlag{
		Name:        name,
		Enabled:     enabled,
		Description: description,
	}
}

// IsEnabled checks if a feature flag is enabled. Unknown flags are disabled.
func (m *Manager) IsEnabled(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	flag, exists := m.flags[name]
	if !exists {
		return false
	}

	return flag.Enabled
}

// Set enables or disables a flag, registering it if needed.
func (m *Manager) Set(name string, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if flag, exists := m.flags[name]; exists {
		flag.Enabled = enabled
		return
	}
	m.flags[name] = &FeatureFlag{Name: name, Enabled: enabled}
}

func (m *Manager) Enable(name string)  { m.Set(name, true) }
func (m *Manager) Disable(name string) { m.Set(name, false) }

// All returns a copy of every flag sorted by name.
func (m *Manager) All() []FeatureFlag {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]FeatureFlag, 0, len(m.flags))
	for _, v := range m.flags {
		result = append(result, *v)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}
