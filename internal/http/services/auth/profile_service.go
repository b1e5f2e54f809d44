package auth

import (
	"context"
	"fmt"

	"github.com/bjrfx/mediacore/internal/domain/repository"
	dto "github.com/bjrfx/mediacore/internal/http/dto/auth"
)

type profileService struct{ *core }

func (s *profileService) Me(ctx context.Context, uid string) (*dto.User, error) {
	u, err := s.Users.GetByID(ctx, uid)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return s.userView(ctx, u)
}
