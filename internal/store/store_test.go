package store

import (
	"errors"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/teamflow/realtime/internal/domain"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.ChatRoom{}, &domain.Membership{}, &domain.Message{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func seed(t *testing.T, db *gorm.DB) {
	t.Helper()
	users := []domain.User{
		{ID: "u1", FullName: "Alice Nguyen", Email: "alice@example.com", Role: domain.RoleUser},
		{ID: "u2", FullName: "Bo Tran", Email: "bo@example.com", Role: domain.RoleUser},
		{ID: "admin", FullName: "Root", Email: "root@example.com", Role: domain.RoleAdmin},
	}
	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}
	room := domain.ChatRoom{ID: "42", Name: "Project Apollo", Kind: domain.RoomKindProject}
	if err := db.Create(&room).Error; err != nil {
		t.Fatalf("seed room: %v", err)
	}
	if err := db.Create(&domain.Membership{RoomID: "42", UserID: "u1", Role: "member"}).Error; err != nil {
		t.Fatalf("seed membership: %v", err)
	}
}

func TestRoomStore_IsAdmitted(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	rooms := NewRoomStore(db)

	member := &domain.Principal{ID: "u1", Name: "Alice Nguyen"}
	outsider := &domain.Principal{ID: "u2", Name: "Bo Tran"}
	admin := &domain.Principal{ID: "admin", Name: "Root", Admin: true}

	ok, err := rooms.IsAdmitted(member, "42")
	if err != nil || !ok {
		t.Errorf("member admission = (%v, %v), want (true, nil)", ok, err)
	}
	ok, err = rooms.IsAdmitted(outsider, "42")
	if err != nil || ok {
		t.Errorf("outsider admission = (%v, %v), want (false, nil)", ok, err)
	}
	ok, err = rooms.IsAdmitted(admin, "42")
	if err != nil || !ok {
		t.Errorf("admin admission = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestRoomStore_IsAdmitted_RoomMissingIsDistinct(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	rooms := NewRoomStore(db)

	_, err := rooms.IsAdmitted(&domain.Principal{ID: "u1"}, "99")
	if !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("missing room error = %v, want ErrRoomNotFound", err)
	}
}

func TestRoomStore_IsAdmitted_Deterministic(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	rooms := NewRoomStore(db)
	p := &domain.Principal{ID: "u1"}

	for i := 0; i < 5; i++ {
		ok, err := rooms.IsAdmitted(p, "42")
		if err != nil || !ok {
			t.Fatalf("call %d: admission = (%v, %v), want (true, nil)", i, ok, err)
		}
	}
}

func TestMessageStore_Save(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	messages := NewMessageStore(db)

	msg, err := messages.Save(NewMessage{RoomID: "42", SenderID: "u1", Content: "hello"})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !strings.HasPrefix(msg.ID, "msg-") {
		t.Errorf("message id %q missing generated prefix", msg.ID)
	}
	if msg.Sender == nil || msg.Sender.ID != "u1" {
		t.Error("sender not loaded on returned message")
	}
	if msg.IsRead {
		t.Error("new message created with read flag set")
	}

	var found domain.Message
	if err := db.First(&found, "message_id = ?", msg.ID).Error; err != nil {
		t.Fatalf("saved message not retrievable: %v", err)
	}
	if found.Content != "hello" {
		t.Errorf("content = %q, want hello", found.Content)
	}
}

func TestMessageStore_Save_ReferentialErrors(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	messages := NewMessageStore(db)

	_, err := messages.Save(NewMessage{RoomID: "99", SenderID: "u1", Content: "x"})
	if !errors.Is(err, ErrReferenceNotFound) {
		t.Errorf("missing room error = %v, want ErrReferenceNotFound", err)
	}
	_, err = messages.Save(NewMessage{RoomID: "42", SenderID: "ghost", Content: "x"})
	if !errors.Is(err, ErrReferenceNotFound) {
		t.Errorf("missing sender error = %v, want ErrReferenceNotFound", err)
	}

	var count int64
	if err := db.Model(&domain.Message{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("failed saves persisted %d messages, want 0", count)
	}
}

func TestMessageStore_Save_ReceiverBestEffort(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	messages := NewMessageStore(db)

	msg, err := messages.Save(NewMessage{RoomID: "42", SenderID: "u1", Content: "x", ReceiverID: "ghost"})
	if err != nil {
		t.Fatalf("Save() with unresolvable receiver error = %v, want nil", err)
	}
	if msg.ReceiverID != nil {
		t.Errorf("receiver set to %v, want unset", *msg.ReceiverID)
	}

	msg, err = messages.Save(NewMessage{RoomID: "42", SenderID: "u1", Content: "y", ReceiverID: "u2"})
	if err != nil {
		t.Fatalf("Save() with receiver error = %v", err)
	}
	if msg.ReceiverID == nil || *msg.ReceiverID != "u2" {
		t.Error("resolvable receiver not linked")
	}
}

func TestMessageStore_MarkRead_MixedIDs(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	messages := NewMessageStore(db)

	a, err := messages.Save(NewMessage{RoomID: "42", SenderID: "u1", Content: "a"})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	b, err := messages.Save(NewMessage{RoomID: "42", SenderID: "u1", Content: "b"})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	updated, err := messages.MarkRead([]string{a.ID, "msg-nope", b.ID})
	if err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	if len(updated) != 2 {
		t.Fatalf("MarkRead() updated %d, want 2", len(updated))
	}
	for _, id := range updated {
		if id != a.ID && id != b.ID {
			t.Errorf("unexpected updated id %q", id)
		}
	}

	var unread int64
	if err := db.Model(&domain.Message{}).Where("is_read = ?", false).Count(&unread).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if unread != 0 {
		t.Errorf("%d messages still unread, want 0", unread)
	}
}

func TestMessageStore_MarkRead_Empty(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	messages := NewMessageStore(db)

	updated, err := messages.MarkRead(nil)
	if err != nil {
		t.Fatalf("MarkRead(nil) error = %v", err)
	}
	if len(updated) != 0 {
		t.Errorf("MarkRead(nil) updated %d, want 0", len(updated))
	}

	updated, err = messages.MarkRead([]string{"msg-nope"})
	if err != nil {
		t.Fatalf("MarkRead() with only unknown ids error = %v", err)
	}
	if len(updated) != 0 {
		t.Errorf("MarkRead() with unknown ids updated %d, want 0", len(updated))
	}
}

func TestMessageStore_History(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	messages := NewMessageStore(db)

	for _, content := range []string{"one", "two", "three"} {
		if _, err := messages.Save(NewMessage{RoomID: "42", SenderID: "u1", Content: content}); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	msgs, err := messages.History("42", 2)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("History() returned %d messages, want 2", len(msgs))
	}
	if msgs[0].Sender == nil {
		t.Error("history message missing expanded sender")
	}

	if _, err := messages.History("99", 10); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("History() on missing room error = %v, want ErrRoomNotFound", err)
	}
}

func TestUserStore_GetUser(t *testing.T) {
	db := setupTestDB(t)
	seed(t, db)
	users := NewUserStore(db)

	u, err := users.GetUser("u1")
	if err != nil {
		t.Fatalf("GetUser() error = %v", err)
	}
	if u.FullName != "Alice Nguyen" {
		t.Errorf("FullName = %q", u.FullName)
	}

	if _, err := users.GetUser("ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetUser(ghost) error = %v, want ErrUserNotFound", err)
	}
}
