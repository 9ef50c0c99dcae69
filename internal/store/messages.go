package store

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/teamflow/realtime/internal/domain"
)

// ErrReferenceNotFound means the room or sender behind a save vanished
// between admission and send. Fatal to the one operation, not to the
// connection.
var ErrReferenceNotFound = errors.New("referenced entity not found")

// NewMessage carries everything a chat frame contributes to a save. The
// message id is never taken from here; it is generated at creation.
type NewMessage struct {
	RoomID         domain.RoomID
	SenderID       domain.UserID
	Content        string
	Attachment     string
	AttachmentType string
	ReceiverID     domain.UserID // optional, best-effort
}

type MessageStore struct {
	db *gorm.DB
}

func NewMessageStore(db *gorm.DB) *MessageStore {
	return &MessageStore{db: db}
}

// Save durably stores a chat message and returns it with sender and
// receiver loaded for serialization. Room and sender must exist; an
// unresolvable receiver is tolerated and left unset.
func (s *MessageStore) Save(m NewMessage) (*domain.Message, error) {
	var room domain.ChatRoom
	if err := s.db.First(&room, "chatroom_id = ?", m.RoomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: room %s", ErrReferenceNotFound, m.RoomID)
		}
		return nil, fmt.Errorf("failed to resolve room: %w", err)
	}
	var sender domain.User
	if err := s.db.First(&sender, "user_id = ?", m.SenderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: sender %s", ErrReferenceNotFound, m.SenderID)
		}
		return nil, fmt.Errorf("failed to resolve sender: %w", err)
	}

	msg := domain.Message{
		ID:             "msg-" + uuid.NewString(),
		Content:        m.Content,
		Attachment:     m.Attachment,
		AttachmentType: m.AttachmentType,
		RoomID:         room.ID,
		SenderID:       sender.ID,
		Sender:         &sender,
	}
	if m.ReceiverID != "" {
		var receiver domain.User
		err := s.db.First(&receiver, "user_id = ?", m.ReceiverID).Error
		switch {
		case err == nil:
			msg.ReceiverID = &receiver.ID
			msg.Receiver = &receiver
		case errors.Is(err, gorm.ErrRecordNotFound):
			// direct-recipient linkage is metadata, not a hard requirement
		default:
			return nil, fmt.Errorf("failed to resolve receiver: %w", err)
		}
	}

	if err := s.db.Omit("Sender", "Receiver").Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}
	return &msg, nil
}

// MarkRead flips the read flag on the given ids in one batch write and
// returns the ids that actually existed. Unknown ids are skipped, not an
// error.
func (s *MessageStore) MarkRead(ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var existing []string
	err := s.db.Model(&domain.Message{}).
		Where("message_id IN ?", ids).
		Pluck("message_id", &existing).Error
	if err != nil {
		return nil, fmt.Errorf("failed to resolve messages: %w", err)
	}
	if len(existing) == 0 {
		return nil, nil
	}
	err = s.db.Model(&domain.Message{}).
		Where("message_id IN ?", existing).
		Update("is_read", true).Error
	if err != nil {
		return nil, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return existing, nil
}

// History pages a room's messages newest-first. Reconnecting clients use
// this to catch up on anything persisted while they were offline.
func (s *MessageStore) History(room domain.RoomID, limit int) ([]domain.Message, error) {
	if _, err := s.roomExists(room); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var msgs []domain.Message
	err := s.db.
		Preload("Sender").
		Preload("Receiver").
		Where("chatroom_id = ?", room).
		Order("sent_at DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return msgs, nil
}

func (s *MessageStore) roomExists(room domain.RoomID) (bool, error) {
	var count int64
	if err := s.db.Model(&domain.ChatRoom{}).Where("chatroom_id = ?", room).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check room: %w", err)
	}
	if count == 0 {
		return false, ErrRoomNotFound
	}
	return true, nil
}
