package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/doorlist/doorlist/internal/domain"
	"github.com/doorlist/doorlist/internal/repository"
	"github.com/doorlist/doorlist/pkg/events"
	"github.com/doorlist/doorlist/pkg/logger"
)

type EventService interface {
	CreateEvent(ctx context.Context, userID, orgID uuid.UUID, req *domain.CreateEventRequest) (*domain.Event, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	GetPublicEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error)
	ListOrgEvents(ctx context.Context, userID, orgID uuid.UUID, limit, offset int) ([]domain.Event, error)
	ListActiveEvents(ctx context.Context, limit, offset int) ([]domain.Event, error)
	UpdateEvent(ctx context.Context, userID, id uuid.UUID, patch domain.EventPatch) (*domain.Event, error)
	ArchiveEvent(ctx context.Context, userID, id uuid.UUID) error
	ListGuests(ctx context.Context, userID, eventID uuid.UUID, limit, offset int) ([]domain.Guest, error)
	ApproveGuest(ctx context.Context, userID, eventID, guestID uuid.UUID) (*domain.Guest, error)
	AuthorizeOperator(ctx context.Context, userID, eventID uuid.UUID) (*domain.Event, error)
}

type eventService struct {
	eventRepo repository.EventRepository
	guestRepo repository.GuestRepository
	orgRepo   repository.OrganizationRepository
	eventBus  events.EventBus
}

func NewEventService(
	eventRepo repository.EventRepository,
	guestRepo repository.GuestRepository,
	orgRepo repository.OrganizationRepository,
	eventBus events.EventBus,
) EventService {
	return &eventService{
		eventRepo: eventRepo,
		guestRepo: guestRepo,
		orgRepo:   orgRepo,
		eventBus:  eventBus,
	}
}

func (s *eventService) requireRole(ctx context.Context, userID, orgID uuid.UUID, manage bool) error {
	role, err := s.orgRepo.RoleOf(ctx, orgID, userID)
	if err != nil {
		return fmt.Errorf("failed to resolve membership: %w", err)
	}
	if role == "" {
		return fmt.Errorf("%w: not a member of the organization", domain.ErrForbidden)
	}
	if manage && !role.CanManageEvents() {
		return fmt.Errorf("%w: role %s cannot manage events", domain.ErrForbidden, role)
	}
	return nil
}

func (s *eventService) CreateEvent(ctx context.Context, userID, orgID uuid.UUID, req *domain.CreateEventRequest) (*domain.Event, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	org, err := s.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}
	if org == nil {
		return nil, fmt.Errorf("%w: organization %s", domain.ErrNotFound, orgID)
	}
	if err := s.requireRole(ctx, userID, orgID, true); err != nil {
		return nil, err
	}

	event, err := s.eventRepo.Create(ctx, orgID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	evt := events.EventCreatedEvent{
		EventID:        event.ID,
		OrganizationID: orgID,
		Title:          event.Title,
		Type:           string(event.Type),
		StartsAt:       event.StartsAt,
		CreatedAt:      event.CreatedAt,
	}
	if err := s.eventBus.Publish(ctx, events.EventCreated, evt); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event created event", "error", err, "event_id", event.ID)
	}

	return event, nil
}

func (s *eventService) GetEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("%w: event %s", domain.ErrNotFound, id)
	}
	return event, nil
}

// GetPublicEvent only serves events visible on public pages.
func (s *eventService) GetPublicEvent(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	event, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if !event.Active {
		return nil, fmt.Errorf("%w: event %s", domain.ErrNotFound, id)
	}
	return event, nil
}

func (s *eventService) ListOrgEvents(ctx context.Context, userID, orgID uuid.UUID, limit, offset int) ([]domain.Event, error) {
	if err := s.requireRole(ctx, userID, orgID, false); err != nil {
		return nil, err
	}
	return s.eventRepo.ListByOrg(ctx, orgID, limit, offset)
}

func (s *eventService) ListActiveEvents(ctx context.Context, limit, offset int) ([]domain.Event, error) {
	return s.eventRepo.ListActive(ctx, limit, offset)
}

func (s *eventService) UpdateEvent(ctx context.Context, userID, id uuid.UUID, patch domain.EventPatch) (*domain.Event, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireRole(ctx, userID, existing.OrganizationID, true); err != nil {
		return nil, err
	}

	updated, err := s.eventRepo.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: event %s", domain.ErrNotFound, id)
	}

	if err := s.eventBus.Publish(ctx, events.EventUpdated, events.EventCreatedEvent{
		EventID:        updated.ID,
		OrganizationID: updated.OrganizationID,
		Title:          updated.Title,
		Type:           string(updated.Type),
		StartsAt:       updated.StartsAt,
		CreatedAt:      updated.CreatedAt,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event updated event", "error", err, "event_id", updated.ID)
	}

	return updated, nil
}

func (s *eventService) ArchiveEvent(ctx context.Context, userID, id uuid.UUID) error {
	existing, err := s.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireRole(ctx, userID, existing.OrganizationID, true); err != nil {
		return err
	}

	archived, err := s.eventRepo.Archive(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to archive event: %w", err)
	}
	if !archived {
		return fmt.Errorf("%w: event already archived", domain.ErrInvalidState)
	}

	if err := s.eventBus.Publish(ctx, events.EventArchived, events.EventArchivedEvent{
		EventID:    id,
		ArchivedAt: time.Now(),
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event archived event", "error", err, "event_id", id)
	}
	return nil
}

func (s *eventService) ListGuests(ctx context.Context, userID, eventID uuid.UUID, limit, offset int) ([]domain.Guest, error) {
	if _, err := s.AuthorizeOperator(ctx, userID, eventID); err != nil {
		return nil, err
	}
	return s.guestRepo.ListByEvent(ctx, eventID, limit, offset)
}

func (s *eventService) ApproveGuest(ctx context.Context, userID, eventID, guestID uuid.UUID) (*domain.Guest, error) {
	if _, err := s.AuthorizeOperator(ctx, userID, eventID); err != nil {
		return nil, err
	}

	guest, err := s.guestRepo.Approve(ctx, eventID, guestID)
	if err != nil {
		return nil, fmt.Errorf("failed to approve guest: %w", err)
	}
	if guest == nil {
		return nil, fmt.Errorf("%w: guest %s", domain.ErrNotFound, guestID)
	}

	if err := s.eventBus.Publish(ctx, events.GuestApproved, events.GuestApprovedEvent{
		GuestID:    guest.ID,
		EventID:    eventID,
		ApprovedAt: time.Now(),
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish guest approved event", "error", err, "guest_id", guest.ID)
	}
	return guest, nil
}

// AuthorizeOperator checks that the user may work the door of the event:
// any member of the owning organization qualifies.
func (s *eventService) AuthorizeOperator(ctx context.Context, userID, eventID uuid.UUID) (*domain.Event, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.requireRole(ctx, userID, event.OrganizationID, false); err != nil {
		return nil, err
	}
	return event, nil
}
