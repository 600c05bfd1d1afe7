package services

import (
	"context"
	"fmt"
	"net/http"
)

// Project is a client engagement.
type Project struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
	Budget string `json:"budget,omitempty"`
}

// Projects wraps the project endpoints.
type Projects struct {
	api Doer
}

// NewProjects returns the project service over the given client.
func NewProjects(api Doer) *Projects {
	return &Projects{api: api}
}

// List fetches the user's projects.
func (s *Projects) List(ctx context.Context) ([]Project, error) {
	var out []Project
	if err := s.api.Do(ctx, http.MethodGet, "/projects", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches a single project.
func (s *Projects) Get(ctx context.Context, id int64) (*Project, error) {
	out := &Project{}
	if err := s.api.Do(ctx, http.MethodGet, fmt.Sprintf("/projects/%d", id), nil, out); err != nil {
		return nil, err
	}
	return out, nil
}
