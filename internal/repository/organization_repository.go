package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/doorlist/doorlist/internal/domain"
)

type OrganizationRepository interface {
	Create(ctx context.Context, ownerID uuid.UUID, org *domain.Organization) (*domain.Organization, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Organization, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Organization, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Organization, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.OrgPatch) (*domain.Organization, error)
	RoleOf(ctx context.Context, orgID, userID uuid.UUID) (domain.OrgRole, error)
	AddMember(ctx context.Context, orgID, userID uuid.UUID, role domain.OrgRole) error
	ListMembers(ctx context.Context, orgID uuid.UUID) ([]domain.Membership, error)
}

type organizationRepository struct {
	pool *pgxpool.Pool
}

func NewOrganizationRepository(pool *pgxpool.Pool) OrganizationRepository {
	return &organizationRepository{pool: pool}
}

const orgCols = `id, name, slug, email, address, website, instagram,
logo_url, banner_url, created_at, updated_at`

func scanOrg(row pgx.Row) (*domain.Organization, error) {
	var o domain.Organization
	err := row.Scan(
		&o.ID, &o.Name, &o.Slug, &o.Email, &o.Address, &o.Website, &o.Instagram,
		&o.LogoURL, &o.BannerURL, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Create inserts the organization and its owner membership in one
// transaction so an org can never exist without an owner.
func (r *organizationRepository) Create(ctx context.Context, ownerID uuid.UUID, org *domain.Organization) (*domain.Organization, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const insertOrg = `INSERT INTO organizations (
		id, name, slug, email, address, website, instagram, logo_url, banner_url
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	RETURNING ` + orgCols

	created, err := scanOrg(tx.QueryRow(ctx, insertOrg,
		org.ID, org.Name, org.Slug, org.Email, org.Address,
		org.Website, org.Instagram, org.LogoURL, org.BannerURL,
	))
	if err != nil {
		return nil, err
	}

	const insertMember = `INSERT INTO organization_members (organization_id, user_id, role) VALUES ($1,$2,$3)`
	if _, err := tx.Exec(ctx, insertMember, created.ID, ownerID, domain.RoleOwner); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

func (r *organizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Organization, error) {
	const q = `SELECT ` + orgCols + ` FROM organizations WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	o, err := scanOrg(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return o, err
}

func (r *organizationRepository) GetBySlug(ctx context.Context, slug string) (*domain.Organization, error) {
	const q = `SELECT ` + orgCols + ` FROM organizations WHERE slug=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	o, err := scanOrg(r.pool.QueryRow(ctx, q, slug))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return o, err
}

func (r *organizationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Organization, error) {
	const q = `SELECT o.id, o.name, o.slug, o.email, o.address, o.website, o.instagram,
		o.logo_url, o.banner_url, o.created_at, o.updated_at
		FROM organizations o
		JOIN organization_members m ON m.organization_id = o.id
		WHERE m.user_id=$1 ORDER BY o.created_at DESC`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []domain.Organization
	for rows.Next() {
		o, err := scanOrg(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, *o)
	}
	return orgs, rows.Err()
}

func (r *organizationRepository) Update(ctx context.Context, id uuid.UUID, patch domain.OrgPatch) (*domain.Organization, error) {
	const q = `
		UPDATE organizations
		SET
			name       = COALESCE($2, name),
			email      = COALESCE($3, email),
			address    = COALESCE($4, address),
			website    = COALESCE($5, website),
			instagram  = COALESCE($6, instagram),
			logo_url   = COALESCE($7, logo_url),
			banner_url = COALESCE($8, banner_url),
			updated_at = now()
		WHERE id=$1
		RETURNING ` + orgCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	o, err := scanOrg(r.pool.QueryRow(ctx, q,
		id, patch.Name, patch.Email, patch.Address,
		patch.Website, patch.Instagram, patch.LogoURL, patch.BannerURL,
	))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return o, err
}

// RoleOf returns the empty role when the user is not a member.
func (r *organizationRepository) RoleOf(ctx context.Context, orgID, userID uuid.UUID) (domain.OrgRole, error) {
	const q = `SELECT role FROM organization_members WHERE organization_id=$1 AND user_id=$2`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var role domain.OrgRole
	err := r.pool.QueryRow(ctx, q, orgID, userID).Scan(&role)
	if err == pgx.ErrNoRows {
		return "", nil
	}
	return role, err
}

func (r *organizationRepository) AddMember(ctx context.Context, orgID, userID uuid.UUID, role domain.OrgRole) error {
	const q = `INSERT INTO organization_members (organization_id, user_id, role)
		VALUES ($1,$2,$3)
		ON CONFLICT (organization_id, user_id) DO UPDATE SET role = EXCLUDED.role`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, orgID, userID, role)
	return err
}

func (r *organizationRepository) ListMembers(ctx context.Context, orgID uuid.UUID) ([]domain.Membership, error) {
	const q = `SELECT organization_id, user_id, role, created_at FROM organization_members
		WHERE organization_id=$1 ORDER BY created_at ASC`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.Membership
	for rows.Next() {
		var m domain.Membership
		if err := rows.Scan(&m.OrganizationID, &m.UserID, &m.Role, &m.CreatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
