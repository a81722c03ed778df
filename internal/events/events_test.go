package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pass-eligibility-api/internal/models"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(ctx context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func TestPublish_DeliversToSubscribers(t *testing.T) {
	m := NewManager(true)
	rec := &recorder{}
	m.Subscribe(EventBeneficiaryCreated, rec.handle)
	m.Subscribe(EventBeneficiaryCreated, func(ctx context.Context, e Event) error {
		return errors.New("handler failure is only logged")
	})

	m.PublishBeneficiary(context.Background(), EventBeneficiaryCreated, models.Beneficiary{ID: "b-1"})
	m.PublishBeneficiary(context.Background(), EventBeneficiaryDeleted, models.Beneficiary{ID: "b-1"})
	m.Wait()

	got := rec.all()
	require.Len(t, got, 1)
	assert.Equal(t, EventBeneficiaryCreated, got[0].Type)
	assert.Equal(t, "b-1", got[0].Data.(BeneficiaryData).Beneficiary.ID)
}

func TestPublish_CancelledContextStillDelivers(t *testing.T) {
	m := NewManager(true)
	rec := &recorder{}
	m.Subscribe(EventEligibilityChecked, func(ctx context.Context, e Event) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return rec.handle(ctx, e)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.PublishEligibilityChecked(ctx, "p-1", models.Beneficiary{ID: "b-1"}, models.EligibilityResult{Eligible: true})
	m.Wait()

	got := rec.all()
	require.Len(t, got, 1)
	data := got[0].Data.(EligibilityCheckedData)
	assert.True(t, data.Eligible)
	assert.Equal(t, "p-1", data.ProfileID)
}

func TestDisabledManager(t *testing.T) {
	m := NewManager(false)
	rec := &recorder{}
	m.Subscribe(EventTransferCreated, rec.handle)

	m.PublishTransferCreated(context.Background(), models.Transfer{ID: "t-1"})
	m.Wait()

	assert.False(t, m.Enabled())
	assert.Empty(t, rec.all())
}

func TestShutdown(t *testing.T) {
	m := NewManager(true)
	rec := &recorder{}
	m.Subscribe(EventProfileUpdated, rec.handle)
	m.Shutdown()

	m.PublishProfileUpdated(context.Background(), models.Profile{ID: "p-1"}, nil)
	m.Wait()

	assert.Empty(t, rec.all())
}

func TestSubscribeAll_ReceivesEveryPublishedEvent(t *testing.T) {
	m := NewManager(true)
	rec := &recorder{}
	m.SubscribeAll(rec.handle)
	ctx := context.Background()

	b := models.Beneficiary{ID: "b-1", ProfileID: "p-1"}
	m.PublishProfileUpdated(ctx, models.Profile{ID: "p-1"}, nil)
	m.PublishBeneficiary(ctx, EventBeneficiaryCreated, b)
	m.PublishBeneficiary(ctx, EventBeneficiaryUpdated, b)
	m.PublishBeneficiary(ctx, EventBeneficiaryDeleted, b)
	m.PublishEligibilityChecked(ctx, "p-1", b, models.EligibilityResult{Eligible: true})
	m.PublishTransferCreated(ctx, models.Transfer{ID: "t-1"})
	m.Wait()

	seen := make(map[EventType]bool)
	for _, e := range rec.all() {
		seen[e.Type] = true
	}
	for _, typ := range EventTypes {
		assert.True(t, seen[typ], "expected %s to be delivered", typ)
	}
	require.Len(t, rec.all(), len(EventTypes))
}
