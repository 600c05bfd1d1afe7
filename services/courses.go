package services

import (
	"context"
	"fmt"
	"net/http"
)

// Course is a catalog entry.
type Course struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Enrolled    bool    `json:"enrolled,omitempty"`
}

// Enrollment is the record created when a user joins a course.
type Enrollment struct {
	ID       int64  `json:"id"`
	CourseID int64  `json:"course_id"`
	Status   string `json:"status"`
}

// Courses wraps the course catalog and enrollment endpoints.
type Courses struct {
	api Doer
}

// NewCourses returns the course service over the given client.
func NewCourses(api Doer) *Courses {
	return &Courses{api: api}
}

// List fetches the course catalog.
func (s *Courses) List(ctx context.Context) ([]Course, error) {
	var out []Course
	if err := s.api.Do(ctx, http.MethodGet, "/courses", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches a single course.
func (s *Courses) Get(ctx context.Context, id int64) (*Course, error) {
	out := &Course{}
	if err := s.api.Do(ctx, http.MethodGet, fmt.Sprintf("/courses/%d", id), nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Enroll joins the current user to a course.
func (s *Courses) Enroll(ctx context.Context, courseID int64) (*Enrollment, error) {
	out := &Enrollment{}
	if err := s.api.Do(ctx, http.MethodPost, fmt.Sprintf("/courses/%d/enroll", courseID), nil, out); err != nil {
		return nil, err
	}
	return out, nil
}
