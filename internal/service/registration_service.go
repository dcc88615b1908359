package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/doorlist/doorlist/internal/domain"
	"github.com/doorlist/doorlist/internal/platform/mailer"
	"github.com/doorlist/doorlist/internal/qr"
	"github.com/doorlist/doorlist/internal/repository"
	"github.com/doorlist/doorlist/pkg/events"
	"github.com/doorlist/doorlist/pkg/logger"
)

const qrImageSize = 256

type RegistrationService interface {
	Register(ctx context.Context, eventID uuid.UUID, req *domain.RegisterGuestRequest, idempotencyKey string) (*domain.RegistrationResult, error)
}

type registrationService struct {
	eventRepo       repository.EventRepository
	guestRepo       repository.GuestRepository
	idempotencyRepo repository.IdempotencyRepository
	eventBus        events.EventBus
	mail            mailer.Service
}

func NewRegistrationService(
	eventRepo repository.EventRepository,
	guestRepo repository.GuestRepository,
	idempotencyRepo repository.IdempotencyRepository,
	eventBus events.EventBus,
	mail mailer.Service,
) RegistrationService {
	return &registrationService{
		eventRepo:       eventRepo,
		guestRepo:       guestRepo,
		idempotencyRepo: idempotencyRepo,
		eventBus:        eventBus,
		mail:            mail,
	}
}

// Register creates a guest for a guest-list event and returns the
// rendered pass. Duplicate registrations by the same name/phone are
// allowed; only the Idempotency-Key header deduplicates retries.
func (s *registrationService) Register(ctx context.Context, eventID uuid.UUID, req *domain.RegisterGuestRequest, idempotencyKey string) (*domain.RegistrationResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load event: %w", err)
	}
	if event == nil {
		return nil, fmt.Errorf("%w: event %s", domain.ErrNotFound, eventID)
	}
	// A replayed Idempotency-Key resolves before the open-for-registration
	// gate, so a retry of a successful registration still returns the
	// stored guest after the event closes.
	if idempotencyKey != "" {
		existingID, err := s.idempotencyRepo.CheckOrCreate(ctx, idempotencyKey, uuid.Nil)
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if existingID != uuid.Nil {
			existing, err := s.guestRepo.GetByEventAndID(ctx, eventID, existingID)
			if err != nil {
				return nil, fmt.Errorf("failed to load existing guest: %w", err)
			}
			if existing != nil {
				png, err := qr.RenderPNG(existing.QRPayload, qrImageSize)
				if err != nil {
					return nil, fmt.Errorf("failed to render pass: %w", err)
				}
				return &domain.RegistrationResult{
					Guest:            existing,
					QRCode:           png,
					RequiresApproval: existing.RequiresApproval,
					Existing:         true,
				}, nil
			}
		}
	}

	if !event.AcceptsRegistrations() {
		return nil, fmt.Errorf("%w: event is not open for guest registration", domain.ErrInvalidState)
	}

	if max := event.MaxGuests(); max > 0 {
		count, err := s.guestRepo.CountByEvent(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("failed to count guests: %w", err)
		}
		if count >= max {
			return nil, fmt.Errorf("%w: guest list is full", domain.ErrInvalidState)
		}
	}

	guestID := uuid.New()
	payload := qr.Payload{
		EventID:  eventID,
		GuestID:  guestID,
		Name:     req.Name,
		Phone:    req.Phone,
		IssuedAt: time.Now().Unix(),
	}
	encoded, err := payload.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode pass payload: %w", err)
	}
	png, err := qr.RenderPNG(encoded, qrImageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render pass: %w", err)
	}

	requiresApproval := event.RequiresApproval()
	guest, err := s.guestRepo.Create(ctx, &domain.Guest{
		ID:               guestID,
		EventID:          eventID,
		Name:             req.Name,
		Phone:            req.Phone,
		Email:            req.Email,
		QRPayload:        encoded,
		Source:           domain.GuestFromRegistration,
		RequiresApproval: requiresApproval,
		IsApproved:       !requiresApproval,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create guest: %w", err)
	}

	if idempotencyKey != "" {
		if _, err := s.idempotencyRepo.CheckOrCreate(ctx, idempotencyKey, guest.ID); err != nil {
			logger.ErrorContext(ctx, "Failed to store idempotency record", "error", err, "guest_id", guest.ID)
		}
	}

	event2 := events.GuestRegisteredEvent{
		GuestID:          guest.ID,
		EventID:          eventID,
		Name:             guest.Name,
		Phone:            guest.Phone,
		RequiresApproval: guest.RequiresApproval,
		RegisteredAt:     guest.CreatedAt,
	}
	if err := s.eventBus.Publish(ctx, events.GuestRegistered, event2); err != nil {
		logger.ErrorContext(ctx, "Failed to publish guest registered event", "error", err, "guest_id", guest.ID)
	}

	// Pass delivery runs off the request path; a slow or failing mail
	// provider never delays or fails the registration itself.
	if guest.Email != "" {
		mailCtx := context.WithoutCancel(ctx)
		go func() {
			if err := s.mail.SendGuestPass(guest.Email, guest.Name, event.Title, png); err != nil {
				logger.WarnContext(mailCtx, "Failed to send guest pass email", "error", err, "guest_id", guest.ID)
			}
		}()
		if err := s.eventBus.Publish(ctx, events.NotifySend, events.NotificationEvent{
			Type:      "guest_pass",
			Recipient: guest.Email,
			Subject:   event.Title,
			Data:      map[string]interface{}{"guest_id": guest.ID.String()},
		}); err != nil {
			logger.ErrorContext(ctx, "Failed to publish notification event", "error", err, "guest_id", guest.ID)
		}
	}

	return &domain.RegistrationResult{
		Guest:            guest,
		QRCode:           png,
		RequiresApproval: guest.RequiresApproval,
	}, nil
}
