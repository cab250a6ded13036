// Package people implements the person domain for Rapport.
// It provides the Person value type, typed associations, the Postgres-backed
// Store consumed by the dedupe engine, and read-side HTTP endpoints.
package people

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Person represents one real individual within one workspace.
// Optional scalar fields are nil when unset.
type Person struct {
	ID          uuid.UUID         `json:"id"`
	WorkspaceID uuid.UUID         `json:"workspace_id"`
	FirstName   *string           `json:"first_name"`
	LastName    *string           `json:"last_name"`
	DisplayName *string           `json:"display_name"`
	Email       *string           `json:"email"`
	Phone       *string           `json:"phone"`
	Bio         *string           `json:"bio"`
	Location    *string           `json:"location"`
	AvatarURL   *string           `json:"avatar_url"`
	Sources     []string          `json:"sources"`
	SourceIDs   map[string]string `json:"source_ids"`
	CustomData  map[string]any    `json:"custom_data"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// FullName joins first and last name with a space and trims the result.
func (p Person) FullName() string {
	return strings.TrimSpace(Value(p.FirstName) + " " + Value(p.LastName))
}

// SocialProfile is a person's presence on one platform. A person holds at most
// one profile per platform.
type SocialProfile struct {
	Platform string  `json:"platform"`
	URL      *string `json:"url"`
	Handle   *string `json:"handle"`
}

// Associations holds the dependent rows a merge must reconcile.
type Associations struct {
	TagIDs         []uuid.UUID     `json:"tag_ids"`
	SocialProfiles []SocialProfile `json:"social_profiles"`
	CompanyIDs     []uuid.UUID     `json:"company_ids"`
}

// Record is a Person together with its associations.
type Record struct {
	Person
	Associations
}

// Update is a partial person update. Nil fields are left untouched.
type Update struct {
	FirstName   *string
	LastName    *string
	DisplayName *string
	Email       *string
	Phone       *string
	Bio         *string
	Location    *string
	AvatarURL   *string
	Sources     []string
	SourceIDs   map[string]string
	CustomData  map[string]any
}

// IsEmpty reports whether the update changes nothing.
func (u Update) IsEmpty() bool {
	return u.FirstName == nil &&
		u.LastName == nil &&
		u.DisplayName == nil &&
		u.Email == nil &&
		u.Phone == nil &&
		u.Bio == nil &&
		u.Location == nil &&
		u.AvatarURL == nil &&
		u.Sources == nil &&
		u.SourceIDs == nil &&
		u.CustomData == nil
}

// Dependent names a table whose rows carry a foreign key to a person.
type Dependent string

const (
	DependentInteractions Dependent = "interactions"
	DependentNotes        Dependent = "notes"
	DependentCompanies    Dependent = "companies"
)

// Relinked reports how many dependent rows moved to the surviving person and how
// many were dropped because the survivor already held an equivalent row.
type Relinked struct {
	Moved   int64 `json:"moved"`
	Dropped int64 `json:"dropped"`
}

// Value dereferences s, returning "" for nil.
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// IsBlank reports whether s is nil or contains only whitespace.
func IsBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
