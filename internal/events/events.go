package events

import (
	"context"
	"sync"
	"time"

	"pass-eligibility-api/internal/models"
	"pass-eligibility-api/pkg/logger"
)

// EventType represents the type of event.
type EventType string

const (
	EventProfileUpdated     EventType = "profile.updated"
	EventBeneficiaryCreated EventType = "beneficiary.created"
	EventBeneficiaryUpdated EventType = "beneficiary.updated"
	EventBeneficiaryDeleted EventType = "beneficiary.deleted"
	EventEligibilityChecked EventType = "eligibility.checked"
	EventTransferCreated    EventType = "transfer.created"
)

// EventTypes lists every event the service publishes.
var EventTypes = []EventType{
	EventProfileUpdated,
	EventBeneficiaryCreated,
	EventBeneficiaryUpdated,
	EventBeneficiaryDeleted,
	EventEligibilityChecked,
	EventTransferCreated,
}

// Event represents an event in the system.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Data      any
}

// ProfileUpdatedData is published after a profile change, listing the
// beneficiaries whose family group moved.
type ProfileUpdatedData struct {
	Profile   models.Profile
	Regrouped []models.Beneficiary
}

// BeneficiaryData is published on beneficiary create, update and delete.
type BeneficiaryData struct {
	Beneficiary models.Beneficiary
}

// EligibilityCheckedData contains data for eligibility checked events.
type EligibilityCheckedData struct {
	ProfileID     string
	BeneficiaryID string
	Eligible      bool
	Offers        int
	CheckedAt     time.Time
}

// TransferCreatedData contains data for transfer created events.
type TransferCreatedData struct {
	Transfer models.Transfer
}

// Handler is a function that handles events.
type Handler func(ctx context.Context, event Event) error

// Manager manages event handlers and event publishing.
type Manager struct {
	mu       sync.RWMutex
	wg       sync.WaitGroup
	handlers map[EventType][]Handler
	enabled  bool
	now      func() time.Time
}

// NewManager creates a new event manager.
func NewManager(enabled bool) *Manager {
	return &Manager{
		handlers: make(map[EventType][]Handler),
		enabled:  enabled,
		now:      time.Now,
	}
}

// Enabled reports whether events are delivered.
func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled
}

// Subscribe subscribes a handler to a specific event type.
func (m *Manager) Subscribe(eventType EventType, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled {
		return
	}

	m.handlers[eventType] = append(m.handlers[eventType], handler)
}

// SubscribeAll subscribes a handler to every type in EventTypes.
func (m *Manager) SubscribeAll(handler Handler) {
	for _, t := range EventTypes {
		m.Subscribe(t, handler)
	}
}

// Publish delivers an event to every subscribed handler. Handlers run
// asynchronously and detached from the caller's cancellation.
func (m *Manager) Publish(ctx context.Context, eventType EventType, data any) {
	m.mu.RLock()
	if !m.enabled {
		m.mu.RUnlock()
		return
	}
	handlers := m.handlers[eventType]
	m.wg.Add(len(handlers))
	m.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	event := Event{
		Type:      eventType,
		Timestamp: m.now(),
		Data:      data,
	}

	hctx := context.WithoutCancel(ctx)
	for _, handler := range handlers {
		go func(h Handler) {
			defer m.wg.Done()
			if err := h(hctx, event); err != nil {
				logger.From(hctx).Error("event handler failed",
					"event", string(event.Type),
					"error", err,
				)
			}
		}(handler)
	}
}

func (m *Manager) PublishProfileUpdated(ctx context.Context, profile models.Profile, regrouped []models.Beneficiary) {
	m.Publish(ctx, EventProfileUpdated, ProfileUpdatedData{Profile: profile, Regrouped: regrouped})
}

func (m *Manager) PublishBeneficiary(ctx context.Context, eventType EventType, b models.Beneficiary) {
	m.Publish(ctx, eventType, BeneficiaryData{Beneficiary: b})
}

func (m *Manager) PublishEligibilityChecked(ctx context.Context, profileID string, b models.Beneficiary, result models.EligibilityResult) {
	m.Publish(ctx, EventEligibilityChecked, EligibilityCheckedData{
		ProfileID:     profileID,
		BeneficiaryID: b.ID,
		Eligible:      result.Eligible,
		Offers:        len(result.Offers),
		CheckedAt:     m.now(),
	})
}

func (m *Manager) PublishTransferCreated(ctx context.Context, t models.Transfer) {
	m.Publish(ctx, EventTransferCreated, TransferCreatedData{Transfer: t})
}

// Wait blocks until every handler started so far has returned.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Shutdown stops delivery and waits for in-flight handlers.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	m.enabled = false
	m.handlers = make(map[EventType][]Handler)
	m.mu.Unlock()

	m.wg.Wait()
}

// LogHandler writes every event it receives to the structured log.
func LogHandler(ctx context.Context, event Event) error {
	logger.From(ctx).Info("event",
		"type", string(event.Type),
		"timestamp", event.Timestamp,
	)
	return nil
}
