package domain

import "time"

// Message is the one durable chat artifact. Identifiers are generated
// server-side at creation; messages are never deleted, only their read flag
// is flipped in batches.
type Message struct {
	ID             string    `gorm:"primaryKey;size:64;column:message_id" json:"message_id"`
	Content        string    `gorm:"type:text" json:"content"`
	Attachment     string    `gorm:"size:512" json:"attachment,omitempty"`
	AttachmentType string    `gorm:"size:50" json:"attachment_type,omitempty"`
	IsRead         bool      `gorm:"not null;default:false" json:"is_read"`
	SentAt         time.Time `gorm:"autoCreateTime" json:"sent_at"`
	RoomID         RoomID    `gorm:"size:36;not null;index;column:chatroom_id" json:"chatroom_id"`
	SenderID       UserID    `gorm:"size:36;not null" json:"-"`
	Sender         *User     `gorm:"foreignKey:SenderID" json:"-"`
	ReceiverID     *UserID   `gorm:"size:36" json:"-"`
	Receiver       *User     `gorm:"foreignKey:ReceiverID" json:"-"`
}

func (Message) TableName() string { return "messages" }

// MessageView is the serialized form broadcast to room members, with sender
// and receiver expanded to their public representations.
type MessageView struct {
	ID             string      `json:"message_id"`
	Content        string      `json:"content"`
	Attachment     string      `json:"attachment,omitempty"`
	AttachmentType string      `json:"attachment_type,omitempty"`
	IsRead         bool        `json:"is_read"`
	SentAt         time.Time   `json:"sent_at"`
	RoomID         RoomID      `json:"chatroom_id"`
	Sender         PublicUser  `json:"sent_by"`
	Receiver       *PublicUser `json:"receiver,omitempty"`
}

func (m *Message) View() MessageView {
	v := MessageView{
		ID:             m.ID,
		Content:        m.Content,
		Attachment:     m.Attachment,
		AttachmentType: m.AttachmentType,
		IsRead:         m.IsRead,
		SentAt:         m.SentAt,
		RoomID:         m.RoomID,
	}
	if m.Sender != nil {
		v.Sender = m.Sender.Public()
	}
	if m.Receiver != nil {
		pub := m.Receiver.Public()
		v.Receiver = &pub
	}
	return v
}
