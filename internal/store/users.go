package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/teamflow/realtime/internal/domain"
)

var ErrUserNotFound = errors.New("user not found")

type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetUser(id domain.UserID) (*domain.User, error) {
	var user domain.User
	if err := s.db.First(&user, "user_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (s *UserStore) Create(user *domain.User) error {
	if err := s.db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}
