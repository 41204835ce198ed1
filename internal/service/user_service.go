package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/publora/publora/internal/models"
	"github.com/publora/publora/internal/repository"
)

type UserService interface {
	GetUserInfo(ctx context.Context, id int64) (*models.User, error)
	RemoveUser(ctx context.Context, userID int64) error
}

type userService struct {
	u repository.UserRepository
}

func NewUserService(u repository.UserRepository) UserService {
	return &userService{u: u}
}

func (s *userService) GetUserInfo(ctx context.Context, id int64) (*models.User, error) {
	user, exists, err := s.u.GetByID(ctx, id)
	if err != nil {
		return nil, errors.New("error getting user info")
	}
	if !exists {
		err = errors.New("user doesn't exist")
		slog.Info(err.Error())
		return nil, err
	}
	return user, nil
}

func (s *userService) RemoveUser(ctx context.Context, userID int64) error {
	return s.u.Remove(ctx, userID)
}
