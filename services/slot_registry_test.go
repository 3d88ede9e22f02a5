package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/anjiri1684/tutor_booking/models"
	"github.com/google/uuid"
)

func TestTryHoldGrantsSingleHold(t *testing.T) {
	e := newEngine(t, openTestDB(t))
	slot := seedSlot(t, e.db, 1)
	userA := uuid.New()
	userB := uuid.New()

	token, err := e.registry.TryHold(context.Background(), slot.ID, userA)
	if err != nil {
		t.Fatalf("first hold failed: %v", err)
	}
	if token.SlotID != slot.ID || token.UserID != userA {
		t.Fatalf("token carries wrong identities: %+v", token)
	}
	if token.ExpiresAt.IsZero() {
		t.Fatalf("token has no expiry")
	}

	if _, err := e.registry.TryHold(context.Background(), slot.ID, userB); !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}

	reloaded := e.reloadSlot(t, slot.ID)
	if reloaded.Booked != 1 {
		t.Fatalf("expected booked=1, got %d", reloaded.Booked)
	}
}

func TestTryHoldUnknownSlot(t *testing.T) {
	e := newEngine(t, openTestDB(t))

	if _, err := e.registry.TryHold(context.Background(), uuid.New(), uuid.New()); !errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("expected ErrSlotNotFound, got %v", err)
	}
}

func TestTryHoldConcurrent(t *testing.T) {
	e := newEngine(t, openTestDB(t))
	slot := seedSlot(t, e.db, 1)

	const attempts = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	losses := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.registry.TryHold(context.Background(), slot.ID, uuid.New())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrSlotUnavailable):
				losses++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly 1 successful hold, got %d", successes)
	}
	if losses != attempts-1 {
		t.Fatalf("expected %d losers, got %d", attempts-1, losses)
	}
	if got := e.reloadSlot(t, slot.ID).Booked; got != 1 {
		t.Fatalf("expected booked=1 after the race, got %d", got)
	}
}

func TestReleaseReopensSlot(t *testing.T) {
	e := newEngine(t, openTestDB(t))
	slot := seedSlot(t, e.db, 1)
	ctx := context.Background()

	if _, err := e.registry.TryHold(ctx, slot.ID, uuid.New()); err != nil {
		t.Fatalf("hold failed: %v", err)
	}
	if err := e.registry.Release(ctx, slot.ID); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	reloaded := e.reloadSlot(t, slot.ID)
	if reloaded.Status != models.SlotStatusOpen {
		t.Fatalf("expected open, got %q", reloaded.Status)
	}
	if reloaded.Booked != 0 {
		t.Fatalf("expected booked=0, got %d", reloaded.Booked)
	}

	if _, err := e.registry.TryHold(ctx, slot.ID, uuid.New()); err != nil {
		t.Fatalf("re-hold after release failed: %v", err)
	}
}

func TestConfirmMarksSlotReserved(t *testing.T) {
	e := newEngine(t, openTestDB(t))
	ctx := context.Background()

	cases := []struct {
		enrollmentType string
		wantStatus     string
	}{
		{models.EnrollmentTypePaid, models.SlotStatusPaidReserved},
		{models.EnrollmentTypeTrial, models.SlotStatusTrialReserved},
		{models.EnrollmentTypeDemo, models.SlotStatusTrialReserved},
	}

	for _, tc := range cases {
		slot := seedSlot(t, e.db, 1)
		user := uuid.New()

		if _, err := e.registry.TryHold(ctx, slot.ID, user); err != nil {
			t.Fatalf("hold failed: %v", err)
		}
		if err := e.registry.Confirm(ctx, slot.ID, user, tc.enrollmentType); err != nil {
			t.Fatalf("confirm failed: %v", err)
		}

		reloaded := e.reloadSlot(t, slot.ID)
		if reloaded.Status != tc.wantStatus {
			t.Fatalf("type %s: expected status %q, got %q", tc.enrollmentType, tc.wantStatus, reloaded.Status)
		}
		if reloaded.ReservedBy == nil || *reloaded.ReservedBy != user {
			t.Fatalf("type %s: reserved_by not set to holder", tc.enrollmentType)
		}
	}
}

func TestGroupSlotCapacity(t *testing.T) {
	e := newEngine(t, openTestDB(t))
	slot := seedSlot(t, e.db, 3)
	ctx := context.Background()

	users := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for i, user := range users[:2] {
		if _, err := e.registry.TryHold(ctx, slot.ID, user); err != nil {
			t.Fatalf("hold %d failed: %v", i, err)
		}
	}

	// Below capacity the slot keeps accepting holds; confirm is a no-op.
	if err := e.registry.Confirm(ctx, slot.ID, users[0], models.EnrollmentTypeTrial); err != nil {
		t.Fatalf("confirm below capacity errored: %v", err)
	}
	if got := e.reloadSlot(t, slot.ID).Status; got != models.SlotStatusOpen {
		t.Fatalf("expected partially filled group slot to stay open, got %q", got)
	}

	if _, err := e.registry.TryHold(ctx, slot.ID, users[2]); err != nil {
		t.Fatalf("third hold failed: %v", err)
	}
	if _, err := e.registry.TryHold(ctx, slot.ID, uuid.New()); !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable past capacity, got %v", err)
	}

	if err := e.registry.Confirm(ctx, slot.ID, users[2], models.EnrollmentTypeTrial); err != nil {
		t.Fatalf("confirm at capacity failed: %v", err)
	}
	if got := e.reloadSlot(t, slot.ID).Status; got != models.SlotStatusTrialReserved {
		t.Fatalf("expected trial_reserved at capacity, got %q", got)
	}
}
