package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/doorlist/doorlist/internal/domain"
	"github.com/doorlist/doorlist/internal/qr"
	"github.com/doorlist/doorlist/internal/repository"
	"github.com/doorlist/doorlist/pkg/events"
	"github.com/doorlist/doorlist/pkg/logger"
)

type CheckinService interface {
	CheckIn(ctx context.Context, eventID uuid.UUID, code string) (*domain.CheckinResult, error)
	GuestCount(ctx context.Context, eventID uuid.UUID) (int, error)
}

type checkinService struct {
	eventRepo repository.EventRepository
	guestRepo repository.GuestRepository
	eventBus  events.EventBus
}

func NewCheckinService(
	eventRepo repository.EventRepository,
	guestRepo repository.GuestRepository,
	eventBus events.EventBus,
) CheckinService {
	return &checkinService{
		eventRepo: eventRepo,
		guestRepo: guestRepo,
		eventBus:  eventBus,
	}
}

// CheckIn resolves a scanned or typed code to a guest of the event and
// marks them present. Repeat scans succeed with AlreadyCheckedIn set and
// the original timestamp; a code issued for another event fails lookup
// even when the guest ID exists elsewhere.
func (s *checkinService) CheckIn(ctx context.Context, eventID uuid.UUID, code string) (*domain.CheckinResult, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("%w: event %s", domain.ErrNotFound, eventID)
	}

	guestID, err := qr.ExtractGuestID(eventID, code)
	if err != nil {
		if errors.Is(err, qr.ErrEventMismatch) {
			return nil, fmt.Errorf("%w: code belongs to a different event", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidCode, err)
	}

	guest, err := s.guestRepo.GetByEventAndID(ctx, eventID, guestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load guest: %w", err)
	}
	if guest == nil {
		return nil, fmt.Errorf("%w: guest %s", domain.ErrNotFound, guestID)
	}

	if !guest.Admitted() {
		// Hand the guest back so the operator sees who is waiting on
		// approval; no state changes.
		return &domain.CheckinResult{Guest: guest}, domain.ErrNotApproved
	}

	if guest.CheckedIn {
		return &domain.CheckinResult{Guest: guest, AlreadyCheckedIn: true}, nil
	}

	updated, err := s.guestRepo.CheckIn(ctx, eventID, guestID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to check in guest: %w", err)
	}
	if updated == nil {
		// Lost a race with a concurrent scan of the same pass; the
		// stored timestamp is the one that counts.
		guest, err = s.guestRepo.GetByEventAndID(ctx, eventID, guestID)
		if err != nil {
			return nil, fmt.Errorf("failed to reload guest: %w", err)
		}
		if guest == nil {
			return nil, fmt.Errorf("%w: guest %s", domain.ErrNotFound, guestID)
		}
		return &domain.CheckinResult{Guest: guest, AlreadyCheckedIn: true}, nil
	}

	evt := events.GuestCheckedInEvent{
		GuestID: updated.ID,
		EventID: eventID,
		Name:    updated.Name,
	}
	if updated.CheckedInAt != nil {
		evt.CheckedInAt = *updated.CheckedInAt
	}
	if err := s.eventBus.Publish(ctx, events.GuestCheckedIn, evt); err != nil {
		logger.ErrorContext(ctx, "Failed to publish guest checked in event", "error", err, "guest_id", updated.ID)
	}

	return &domain.CheckinResult{Guest: updated}, nil
}

// GuestCount re-queries the store every time; door statistics must not
// be served stale.
func (s *checkinService) GuestCount(ctx context.Context, eventID uuid.UUID) (int, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to load event: %w", err)
	}
	if event == nil {
		return 0, fmt.Errorf("%w: event %s", domain.ErrNotFound, eventID)
	}
	return s.guestRepo.CountByEvent(ctx, eventID)
}
