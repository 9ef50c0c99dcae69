package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/teamflow/realtime/internal/domain"
)

// ErrRoomNotFound is distinct from a plain membership miss so the
// connection layer can close with a different code for each.
var ErrRoomNotFound = errors.New("room not found")

type RoomStore struct {
	db *gorm.DB
}

func NewRoomStore(db *gorm.DB) *RoomStore {
	return &RoomStore{db: db}
}

func (s *RoomStore) GetRoom(id domain.RoomID) (*domain.ChatRoom, error) {
	var room domain.ChatRoom
	if err := s.db.First(&room, "chatroom_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return &room, nil
}

func (s *RoomStore) Create(room *domain.ChatRoom) error {
	if err := s.db.Create(room).Error; err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}
	return nil
}

// IsAdmitted decides admission for a principal: a membership row admits,
// and an elevated role bypasses the membership check entirely. A missing
// room is ErrRoomNotFound, not a false.
func (s *RoomStore) IsAdmitted(p *domain.Principal, room domain.RoomID) (bool, error) {
	if _, err := s.GetRoom(room); err != nil {
		return false, err
	}
	if p.Admin {
		return true, nil
	}
	var count int64
	err := s.db.Model(&domain.Membership{}).
		Where("room_id = ? AND user_id = ?", room, p.ID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return count > 0, nil
}

func (s *RoomStore) AddMember(room domain.RoomID, user domain.UserID, role string) error {
	m := domain.Membership{RoomID: room, UserID: user, Role: role}
	err := s.db.
		Where("room_id = ? AND user_id = ?", room, user).
		FirstOrCreate(&m).Error
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}
