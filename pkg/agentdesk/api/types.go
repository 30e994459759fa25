package api

import (
	"maps"
	"slices"
	"time"
)

// Agent is a configurable remote agent
type Agent struct {
	ID           string                 `json:"id,omitempty"`
	Name         string                 `json:"name,omitempty"`
	Description  string                 `json:"description,omitempty"`
	Role         string                 `json:"role,omitempty"`
	Instructions string                 `json:"instructions,omitempty"`
	Tools        []string               `json:"tools,omitempty"`
	Sessions     []string               `json:"sessions,omitempty"`
	CreatedBy    string                 `json:"created_by,omitempty"`
	OrgID        string                 `json:"org_id,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt    *time.Time             `json:"created_at,omitempty"`
	UpdatedAt    *time.Time             `json:"updated_at,omitempty"`
}

// Clone returns a deep copy of a
func (a *Agent) Clone() *Agent {
	if a == nil {
		return nil
	}
	out := *a
	out.Tools = slices.Clone(a.Tools)
	out.Sessions = slices.Clone(a.Sessions)
	out.Metadata = maps.Clone(a.Metadata)
	out.CreatedAt = cloneTime(a.CreatedAt)
	out.UpdatedAt = cloneTime(a.UpdatedAt)
	return &out
}

// Tool is a capability an agent may call
type Tool struct {
	ID          string                 `json:"id,omitempty"`
	Name        string                 `json:"name,omitempty"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
	CreatedBy   string                 `json:"created_by,omitempty"`
	OrgID       string                 `json:"org_id,omitempty"`
	CreatedAt   *time.Time             `json:"created_at,omitempty"`
	UpdatedAt   *time.Time             `json:"updated_at,omitempty"`
}

// Skill is a narrow capability invocable within a task
type Skill struct {
	ID           string     `json:"id,omitempty"`
	Name         string     `json:"name,omitempty"`
	Description  string     `json:"description,omitempty"`
	Instructions string     `json:"instructions,omitempty"`
	CreatedBy    string     `json:"created_by,omitempty"`
	OrgID        string     `json:"org_id,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// Session groups tasks under an agent
type Session struct {
	ID          string     `json:"id,omitempty"`
	Name        string     `json:"name,omitempty"`
	Description string     `json:"description,omitempty"`
	AgentID     string     `json:"agent_id,omitempty"`
	Tasks       []string   `json:"tasks,omitempty"`
	CreatedBy   string     `json:"created_by,omitempty"`
	OrgID       string     `json:"org_id,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// Clone returns a deep copy of s
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Tasks = slices.Clone(s.Tasks)
	out.CreatedAt = cloneTime(s.CreatedAt)
	out.UpdatedAt = cloneTime(s.UpdatedAt)
	return &out
}

// Task is a unit of work within a session
type Task struct {
	ID           string     `json:"id,omitempty"`
	Name         string     `json:"name,omitempty"`
	Description  string     `json:"description,omitempty"`
	Instructions string     `json:"instructions,omitempty"`
	Skills       []string   `json:"skills,omitempty"`
	CreatedBy    string     `json:"created_by,omitempty"`
	OrgID        string     `json:"org_id,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// Clone returns a deep copy of t
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	out := *t
	out.Skills = slices.Clone(t.Skills)
	out.CreatedAt = cloneTime(t.CreatedAt)
	out.UpdatedAt = cloneTime(t.UpdatedAt)
	return &out
}

// Curriculum is an ordered collection of modules
type Curriculum struct {
	ID          string     `json:"id,omitempty"`
	Name        string     `json:"name,omitempty"`
	Description string     `json:"description,omitempty"`
	Modules     []string   `json:"modules,omitempty"`
	CreatedBy   string     `json:"created_by,omitempty"`
	OrgID       string     `json:"org_id,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// Module is a unit of a curriculum
type Module struct {
	ID          string                 `json:"id,omitempty"`
	Name        string                 `json:"name,omitempty"`
	Description string                 `json:"description,omitempty"`
	Content     map[string]interface{} `json:"content,omitempty"`
	CreatedBy   string                 `json:"created_by,omitempty"`
	OrgID       string                 `json:"org_id,omitempty"`
	CreatedAt   *time.Time             `json:"created_at,omitempty"`
	UpdatedAt   *time.Time             `json:"updated_at,omitempty"`
}

// ListOptions are the query parameters accepted by every list endpoint
type ListOptions struct {
	CreatedBy  string
	OrgID      string
	PageToken  string
	MaxResults int
}

// ListResponse is a page of results
type ListResponse[T any] struct {
	Items         []T    `json:"items"`
	NextPageToken string `json:"next_page_token,omitempty"`
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
