package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/doorlist/doorlist/internal/domain"
	"github.com/doorlist/doorlist/internal/repository"
)

type OrganizationService interface {
	CreateOrganization(ctx context.Context, ownerID uuid.UUID, req *domain.CreateOrgRequest) (*domain.Organization, error)
	GetOrganization(ctx context.Context, id uuid.UUID) (*domain.Organization, error)
	ListOrganizations(ctx context.Context, userID uuid.UUID) ([]domain.Organization, error)
	UpdateOrganization(ctx context.Context, userID, id uuid.UUID, patch domain.OrgPatch) (*domain.Organization, error)
	AddMember(ctx context.Context, actorID, orgID uuid.UUID, email string, role domain.OrgRole) error
	ListMembers(ctx context.Context, userID, orgID uuid.UUID) ([]domain.Membership, error)
}

type organizationService struct {
	orgRepo  repository.OrganizationRepository
	userRepo repository.UserRepository
}

func NewOrganizationService(orgRepo repository.OrganizationRepository, userRepo repository.UserRepository) OrganizationService {
	return &organizationService{orgRepo: orgRepo, userRepo: userRepo}
}

func (s *organizationService) CreateOrganization(ctx context.Context, ownerID uuid.UUID, req *domain.CreateOrgRequest) (*domain.Organization, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	slug := domain.Slugify(req.Name)
	existing, err := s.orgRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: an organization named %q already exists", domain.ErrConflict, req.Name)
	}

	org, err := s.orgRepo.Create(ctx, ownerID, &domain.Organization{
		ID:        uuid.New(),
		Name:      req.Name,
		Slug:      slug,
		Email:     req.Email,
		Address:   req.Address,
		Website:   req.Website,
		Instagram: req.Instagram,
		LogoURL:   req.LogoURL,
		BannerURL: req.BannerURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}
	return org, nil
}

func (s *organizationService) GetOrganization(ctx context.Context, id uuid.UUID) (*domain.Organization, error) {
	org, err := s.orgRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}
	if org == nil {
		return nil, fmt.Errorf("%w: organization %s", domain.ErrNotFound, id)
	}
	return org, nil
}

func (s *organizationService) ListOrganizations(ctx context.Context, userID uuid.UUID) ([]domain.Organization, error) {
	return s.orgRepo.ListByUser(ctx, userID)
}

func (s *organizationService) UpdateOrganization(ctx context.Context, userID, id uuid.UUID, patch domain.OrgPatch) (*domain.Organization, error) {
	role, err := s.orgRepo.RoleOf(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve membership: %w", err)
	}
	if !role.CanManageEvents() {
		return nil, fmt.Errorf("%w: role %q cannot edit the organization", domain.ErrForbidden, role)
	}

	org, err := s.orgRepo.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}
	if org == nil {
		return nil, fmt.Errorf("%w: organization %s", domain.ErrNotFound, id)
	}
	return org, nil
}

// AddMember grants a role by email; only owners may manage membership.
func (s *organizationService) AddMember(ctx context.Context, actorID, orgID uuid.UUID, email string, role domain.OrgRole) error {
	actorRole, err := s.orgRepo.RoleOf(ctx, orgID, actorID)
	if err != nil {
		return fmt.Errorf("failed to resolve membership: %w", err)
	}
	if actorRole != domain.RoleOwner {
		return fmt.Errorf("%w: only the owner can manage members", domain.ErrForbidden)
	}
	if _, ok := domain.ParseOrgRole(string(role)); !ok {
		return domain.Validationf("invalid role %q", role)
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("%w: no account for %s", domain.ErrNotFound, email)
	}

	return s.orgRepo.AddMember(ctx, orgID, user.ID, role)
}

func (s *organizationService) ListMembers(ctx context.Context, userID, orgID uuid.UUID) ([]domain.Membership, error) {
	role, err := s.orgRepo.RoleOf(ctx, orgID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve membership: %w", err)
	}
	if role == "" {
		return nil, fmt.Errorf("%w: not a member of the organization", domain.ErrForbidden)
	}
	return s.orgRepo.ListMembers(ctx, orgID)
}
