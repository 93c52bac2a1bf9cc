package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arogya-ai/arogya/backend/internal/models"
	"golang.org/x/sync/singleflight"
)

// ErrMissingSubject is returned when verified claims carry no subject.
var ErrMissingSubject = errors.New("claims missing subject")

// Claims are the identity-provider token claims used for provisioning. They are
// trusted as issued; nothing re-queries the provider for name or email.
type Claims struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Service encapsulates user-related business logic
type Service struct {
	repo  UserRepository
	group singleflight.Group
	now   func() time.Time
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r, now: func() time.Time { return time.Now().UTC() }}
}

type provisionResult struct {
	user    *models.User
	created bool
}

// provisionTimeout bounds the shared repository call, which outlives any single caller.
const provisionTimeout = 10 * time.Second

// Provision returns the record for claims.Sub, creating it when absent. Concurrent
// calls for the same subject within this process share one repository call; a
// caller whose ctx ends stops waiting without failing the others.
func (s *Service) Provision(ctx context.Context, c Claims) (*models.User, bool, error) {
	if c.Sub == "" {
		return nil, false, ErrMissingSubject
	}
	ch := s.group.DoChan(c.Sub, func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), provisionTimeout)
		defer cancel()
		u := &models.User{
			ID:        c.Sub,
			Name:      c.Name,
			Email:     c.Email,
			CreatedAt: s.now(),
		}
		stored, created, err := s.repo.CreateIfAbsent(shared, u)
		if err != nil {
			return nil, fmt.Errorf("provision %s: %w", c.Sub, err)
		}
		return provisionResult{user: stored, created: created}, nil
	})
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		r := res.Val.(provisionResult)
		return r.user, r.created, nil
	}
}

func (s *Service) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	return s.repo.GetBySub(ctx, sub)
}
