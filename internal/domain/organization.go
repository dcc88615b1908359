package domain

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

type OrgRole string

const (
	RoleOwner  OrgRole = "owner"
	RoleAdmin  OrgRole = "admin"
	RoleMember OrgRole = "member"
)

func ParseOrgRole(s string) (OrgRole, bool) {
	switch OrgRole(s) {
	case RoleOwner, RoleAdmin, RoleMember:
		return OrgRole(s), true
	default:
		return "", false
	}
}

// CanManageEvents reports whether the role may create, edit or archive
// events of the organization.
func (r OrgRole) CanManageEvents() bool {
	return r == RoleOwner || r == RoleAdmin
}

type Organization struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	Website   string    `json:"website,omitempty"`
	Instagram string    `json:"instagram,omitempty"`
	LogoURL   string    `json:"logo_url,omitempty"`
	BannerURL string    `json:"banner_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Membership struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	UserID         uuid.UUID `json:"user_id"`
	Role           OrgRole   `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}

// Slugify derives a URL slug from an organization name: lowercase,
// runs of non-alphanumerics collapsed to single dashes.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

type CreateOrgRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	Website   string `json:"website"`
	Instagram string `json:"instagram"`
	LogoURL   string `json:"logo_url"`
	BannerURL string `json:"banner_url"`
}

func (r *CreateOrgRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Address = strings.TrimSpace(r.Address)
	r.Website = strings.TrimSpace(r.Website)
	r.Instagram = strings.TrimSpace(r.Instagram)
}

func (r *CreateOrgRequest) Validate() error {
	if r.Name == "" {
		return Validationf("name is required")
	}
	if Slugify(r.Name) == "" {
		return Validationf("name must contain at least one letter or digit")
	}
	if r.Email != "" && !strings.Contains(r.Email, "@") {
		return Validationf("invalid email address")
	}
	return nil
}

type OrgPatch struct {
	Name      *string `json:"name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Address   *string `json:"address,omitempty"`
	Website   *string `json:"website,omitempty"`
	Instagram *string `json:"instagram,omitempty"`
	LogoURL   *string `json:"logo_url,omitempty"`
	BannerURL *string `json:"banner_url,omitempty"`
}
