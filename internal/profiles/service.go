// Package profiles stores the patient profiles the mobile client edits.
package profiles

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrMissingFields means a required profile field is blank.
var ErrMissingFields = errors.New("missing required fields")

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// Save creates a profile, or replaces the one named by the input's id.
func (s *Service) Save(ctx context.Context, in Input) (Profile, error) {
	if !in.complete() {
		return Profile{}, ErrMissingFields
	}
	if id := in.targetID(); id != "" {
		return s.Repo.Update(ctx, in.profile(id))
	}
	return s.Repo.Create(ctx, in.profile(uuid.NewString()))
}

func (s *Service) Get(ctx context.Context, id string) (Profile, error) {
	return s.Repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Profile, error) {
	return s.Repo.List(ctx)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.Repo.Delete(ctx, id)
}
