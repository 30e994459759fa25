// Package api holds the agentdesk wire types and a thin typed client over the
// REST resources: agents, tools, skills, sessions, tasks, curricula and modules.
package api

import (
	"context"
	"net/url"
	"strconv"
)

// Resource collection paths
const (
	AgentsPath    = "/agents"
	ToolsPath     = "/tools"
	SkillsPath    = "/skills"
	SessionsPath  = "/sessions"
	TasksPath     = "/tasks"
	CurriculaPath = "/curricula"
	ModulesPath   = "/modules"
	ChatTestPath  = "/chat/test"
	SkillTestPath = "/chat/test-skill"
)

// Transport is the set of HTTP verbs the API client is built on
type Transport interface {
	Get(ctx context.Context, path string, query url.Values, out interface{}) error
	Post(ctx context.Context, path string, body, out interface{}) error
	Patch(ctx context.Context, path string, body, out interface{}) error
	Delete(ctx context.Context, path string, out interface{}) error
}

// ItemPath returns the path of a single resource
func ItemPath(collection, id string) string {
	return collection + "/" + url.PathEscape(id)
}

// Resource provides CRUD operations over one collection
type Resource[T any] struct {
	t    Transport
	path string
}

// NewResource creates a Resource for the given collection path
func NewResource[T any](t Transport, path string) *Resource[T] {
	return &Resource[T]{t: t, path: path}
}

// Create creates a new item
func (r *Resource[T]) Create(ctx context.Context, item *T) (*T, error) {
	var out T
	if err := r.t.Post(ctx, r.path, item, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches one item by id
func (r *Resource[T]) Get(ctx context.Context, id string) (*T, error) {
	var out T
	if err := r.t.Get(ctx, ItemPath(r.path, id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns one page of items
func (r *Resource[T]) List(ctx context.Context, opts ListOptions) (*ListResponse[T], error) {
	var out ListResponse[T]
	if err := r.t.Get(ctx, r.path, opts.query(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update applies a partial update. patch is marshalled as-is.
func (r *Resource[T]) Update(ctx context.Context, id string, patch interface{}) (*T, error) {
	var out T
	if err := r.t.Patch(ctx, ItemPath(r.path, id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes an item
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	return r.t.Delete(ctx, ItemPath(r.path, id), nil)
}

func (o ListOptions) query() url.Values {
	q := url.Values{}
	if o.CreatedBy != "" {
		q.Set("created_by", o.CreatedBy)
	}
	if o.OrgID != "" {
		q.Set("org_id", o.OrgID)
	}
	if o.PageToken != "" {
		q.Set("page_token", o.PageToken)
	}
	if o.MaxResults > 0 {
		q.Set("max_results", strconv.Itoa(o.MaxResults))
	}
	return q
}

// Client groups the typed resources
type Client struct {
	t Transport

	Agents    *Resource[Agent]
	Tools     *Resource[Tool]
	Skills    *Resource[Skill]
	Sessions  *Resource[Session]
	Tasks     *Resource[Task]
	Curricula *Resource[Curriculum]
	Modules   *Resource[Module]
}

// NewClient creates a new Client
func NewClient(t Transport) *Client {
	return &Client{
		t:         t,
		Agents:    NewResource[Agent](t, AgentsPath),
		Tools:     NewResource[Tool](t, ToolsPath),
		Skills:    NewResource[Skill](t, SkillsPath),
		Sessions:  NewResource[Session](t, SessionsPath),
		Tasks:     NewResource[Task](t, TasksPath),
		Curricula: NewResource[Curriculum](t, CurriculaPath),
		Modules:   NewResource[Module](t, ModulesPath),
	}
}

func relationPath(parent, parentID, child, childID string) string {
	return ItemPath(parent, parentID) + ItemPath(child, childID)
}

func (c *Client) attach(ctx context.Context, parent, parentID, child, childID string) error {
	return c.t.Post(ctx, relationPath(parent, parentID, child, childID), nil, nil)
}

func (c *Client) detach(ctx context.Context, parent, parentID, child, childID string) error {
	return c.t.Delete(ctx, relationPath(parent, parentID, child, childID), nil)
}

func (c *Client) AddToolToAgent(ctx context.Context, agentID, toolID string) error {
	return c.attach(ctx, AgentsPath, agentID, ToolsPath, toolID)
}

func (c *Client) RemoveToolFromAgent(ctx context.Context, agentID, toolID string) error {
	return c.detach(ctx, AgentsPath, agentID, ToolsPath, toolID)
}

func (c *Client) AddSessionToAgent(ctx context.Context, agentID, sessionID string) error {
	return c.attach(ctx, AgentsPath, agentID, SessionsPath, sessionID)
}

func (c *Client) RemoveSessionFromAgent(ctx context.Context, agentID, sessionID string) error {
	return c.detach(ctx, AgentsPath, agentID, SessionsPath, sessionID)
}

func (c *Client) AddTaskToSession(ctx context.Context, sessionID, taskID string) error {
	return c.attach(ctx, SessionsPath, sessionID, TasksPath, taskID)
}

func (c *Client) RemoveTaskFromSession(ctx context.Context, sessionID, taskID string) error {
	return c.detach(ctx, SessionsPath, sessionID, TasksPath, taskID)
}

func (c *Client) AddSkillToTask(ctx context.Context, taskID, skillID string) error {
	return c.attach(ctx, TasksPath, taskID, SkillsPath, skillID)
}

func (c *Client) RemoveSkillFromTask(ctx context.Context, taskID, skillID string) error {
	return c.detach(ctx, TasksPath, taskID, SkillsPath, skillID)
}

func (c *Client) AddModuleToCurriculum(ctx context.Context, curriculumID, moduleID string) error {
	return c.attach(ctx, CurriculaPath, curriculumID, ModulesPath, moduleID)
}

func (c *Client) RemoveModuleFromCurriculum(ctx context.Context, curriculumID, moduleID string) error {
	return c.detach(ctx, CurriculaPath, curriculumID, ModulesPath, moduleID)
}

// TestChat posts a message to the chat test endpoint
func (c *Client) TestChat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	var out ChatResponse
	if err := c.t.Post(ctx, ChatTestPath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TestSkill posts a message to the skill test endpoint
func (c *Client) TestSkill(ctx context.Context, req *SkillRequest) (*ChatResponse, error) {
	var out ChatResponse
	if err := c.t.Post(ctx, SkillTestPath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
