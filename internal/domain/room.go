package domain

import (
	"errors"
	"strings"
	"time"
)

type RoomID string

const (
	RoomKindProject = "project"
	RoomKindAdHoc   = "adhoc"
)

type ChatRoom struct {
	ID          RoomID    `gorm:"primaryKey;size:36;column:chatroom_id" json:"chatroom_id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Kind        string    `gorm:"size:20;not null;default:adhoc" json:"kind"`
	CreatedByID *UserID   `gorm:"size:36" json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (ChatRoom) TableName() string { return "chatrooms" }

// Membership binds one user to one room for admission checks. At most one
// row per (room, user) pair.
type Membership struct {
	ID       uint      `gorm:"primaryKey" json:"-"`
	RoomID   RoomID    `gorm:"size:36;not null;uniqueIndex:idx_room_user" json:"chatroom_id"`
	UserID   UserID    `gorm:"size:36;not null;uniqueIndex:idx_room_user" json:"user_id"`
	Role     string    `gorm:"size:20;not null;default:member" json:"role"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

func (Membership) TableName() string { return "chatroom_memberships" }

var ErrBadRoomKey = errors.New("bad room key")

// ParseRoomKey normalizes the room name from the connection path to the
// stored room identifier. Clients address a room as "chat_<id>" or
// "chat-<id>" (older builds sent hyphens) or as the bare id; both spellings
// resolve to the same room.
func ParseRoomKey(raw string) (RoomID, error) {
	key := strings.ReplaceAll(raw, "-", "_")
	if i := strings.Index(key, "_"); i >= 0 {
		key = key[i+1:]
	}
	if key == "" {
		return "", ErrBadRoomKey
	}
	return RoomID(key), nil
}
