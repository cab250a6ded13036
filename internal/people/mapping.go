package people

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/JaimeStill/rapport/pkg/query"
	"github.com/JaimeStill/rapport/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "people", "p").
	Project("id", "ID").
	Project("workspace_id", "WorkspaceID").
	Project("first_name", "FirstName").
	Project("last_name", "LastName").
	Project("display_name", "DisplayName").
	Project("email", "Email").
	Project("phone", "Phone").
	Project("bio", "Bio").
	Project("location", "Location").
	Project("avatar_url", "AvatarURL").
	Project("sources", "Sources").
	Project("source_ids", "SourceIDs").
	Project("custom_data", "CustomData").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = []query.SortField{
	{Field: "CreatedAt"},
	{Field: "ID"},
}

// Filters contains optional filtering criteria for person queries.
// Email matches case-insensitively; Source matches persons whose sources include it.
type Filters struct {
	Email  *string `json:"email,omitempty"`
	Source *string `json:"source,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	b.WhereEqualsFold("Email", f.Email)

	if f.Source != nil && *f.Source != "" {
		doc, _ := json.Marshal([]string{*f.Source})
		b.WhereJSONContains("Sources", string(doc))
	}

	return b
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if e := values.Get("email"); e != "" {
		f.Email = &e
	}

	if s := values.Get("source"); s != "" {
		f.Source = &s
	}

	return f
}

func scanPerson(s repository.Scanner) (Person, error) {
	var (
		p          Person
		sources    []byte
		sourceIDs  []byte
		customData []byte
	)

	err := s.Scan(
		&p.ID,
		&p.WorkspaceID,
		&p.FirstName,
		&p.LastName,
		&p.DisplayName,
		&p.Email,
		&p.Phone,
		&p.Bio,
		&p.Location,
		&p.AvatarURL,
		&sources,
		&sourceIDs,
		&customData,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return p, err
	}

	if err := decodeJSON(sources, &p.Sources); err != nil {
		return p, fmt.Errorf("decode sources: %w", err)
	}
	if err := decodeJSON(sourceIDs, &p.SourceIDs); err != nil {
		return p, fmt.Errorf("decode source_ids: %w", err)
	}
	if err := decodeJSON(customData, &p.CustomData); err != nil {
		return p, fmt.Errorf("decode custom_data: %w", err)
	}

	normalizeExtensions(&p)
	return p, nil
}

func decodeJSON(data []byte, dest any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, dest)
}

func encodeJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func normalizeExtensions(p *Person) {
	if p.Sources == nil {
		p.Sources = []string{}
	}
	if p.SourceIDs == nil {
		p.SourceIDs = map[string]string{}
	}
	if p.CustomData == nil {
		p.CustomData = map[string]any{}
	}
}
