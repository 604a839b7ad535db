package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-social-backend/internal/domain"
)

type pushed struct {
	UserID  uint
	Event   string
	Payload any
}

type fakePusher struct {
	sent []pushed
}

func (f *fakePusher) PushToUser(userID uint, event string, payload any) {
	f.sent = append(f.sent, pushed{UserID: userID, Event: event, Payload: payload})
}

func newNotifSvc(t *testing.T) (*NotificationService, *fakePusher, uint, uint) {
	t.Helper()
	db := newSvcDB(t, &domain.User{}, &domain.Notification{})
	fp := &fakePusher{}
	svc := &NotificationService{DB: db, Push: fp}
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	return svc, fp, alice, bob
}

func TestNotificationService_Notify(t *testing.T) {
	svc, fp, alice, bob := newNotifSvc(t)
	ctx := context.Background()

	ref := uint(42)
	svc.Notify(ctx, alice, bob, domain.NotificationMessage, &ref, "new message from user 2")

	got, err := svc.ListForUser(ctx, alice)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	n := got[0]
	if n.RecipientID != alice || n.SenderID != bob || n.Type != domain.NotificationMessage {
		t.Errorf("unexpected row: %+v", n)
	}
	if n.ReferenceID == nil || *n.ReferenceID != 42 {
		t.Errorf("reference = %v, want 42", n.ReferenceID)
	}
	if n.IsRead {
		t.Error("new notification should be unread")
	}

	if len(fp.sent) != 1 {
		t.Fatalf("pushes = %d, want 1", len(fp.sent))
	}
	if p := fp.sent[0]; p.UserID != alice || p.Event != PushEventName {
		t.Errorf("unexpected push: %+v", p)
	}
}

func TestNotificationService_Notify_PersistFailureSwallowed(t *testing.T) {
	svc, fp, alice, bob := newNotifSvc(t)

	// Closing the pool makes every write fail; Notify must not panic and
	// must not push a notification that was never stored.
	sqlDB, err := svc.DB.DB()
	if err != nil {
		t.Fatalf("DB: %v", err)
	}
	sqlDB.Close()

	svc.Notify(context.Background(), alice, bob, domain.NotificationMessage, nil, "hi")

	if len(fp.sent) != 0 {
		t.Errorf("pushed %d events after a failed persist", len(fp.sent))
	}
}

func TestNotificationService_Notify_NilPusher(t *testing.T) {
	svc, _, alice, bob := newNotifSvc(t)
	svc.Push = nil

	svc.Notify(context.Background(), alice, bob, domain.NotificationMessage, nil, "hi")

	count, err := svc.UnreadCount(context.Background(), alice)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 1 {
		t.Errorf("unread = %d, want 1", count)
	}
}

func TestNotificationService_ListForUser_NewestFirst(t *testing.T) {
	svc, _, alice, bob := newNotifSvc(t)
	ctx := context.Background()

	svc.Notify(ctx, alice, bob, domain.NotificationMessage, nil, "first")
	time.Sleep(5 * time.Millisecond)
	svc.Notify(ctx, alice, bob, domain.NotificationMessage, nil, "second")
	svc.Notify(ctx, bob, alice, domain.NotificationMessage, nil, "other recipient")

	got, err := svc.ListForUser(ctx, alice)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Message != "second" || got[1].Message != "first" {
		t.Errorf("order = %q, %q; want newest first", got[0].Message, got[1].Message)
	}
}

func TestNotificationService_UnreadCountAndMarkRead(t *testing.T) {
	svc, _, alice, bob := newNotifSvc(t)
	ctx := context.Background()

	svc.Notify(ctx, alice, bob, domain.NotificationMessage, nil, "one")
	svc.Notify(ctx, alice, bob, domain.NotificationMessage, nil, "two")

	count, err := svc.UnreadCount(ctx, alice)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 2 {
		t.Fatalf("unread = %d, want 2", count)
	}

	list, _ := svc.ListForUser(ctx, alice)
	if err := svc.MarkRead(ctx, alice, list[0].ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	count, _ = svc.UnreadCount(ctx, alice)
	if count != 1 {
		t.Errorf("unread = %d after mark, want 1", count)
	}

	// Marking again is a no-op.
	if err := svc.MarkRead(ctx, alice, list[0].ID); err != nil {
		t.Fatalf("repeat MarkRead: %v", err)
	}
	count, _ = svc.UnreadCount(ctx, alice)
	if count != 1 {
		t.Errorf("unread = %d after repeat mark, want 1", count)
	}
}

func TestNotificationService_MarkRead_Guards(t *testing.T) {
	svc, _, alice, bob := newNotifSvc(t)
	ctx := context.Background()

	svc.Notify(ctx, alice, bob, domain.NotificationMessage, nil, "one")
	list, _ := svc.ListForUser(ctx, alice)

	if err := svc.MarkRead(ctx, bob, list[0].ID); !errors.Is(err, ErrNotRecipient) {
		t.Errorf("outsider err = %v, want ErrNotRecipient", err)
	}
	if err := svc.MarkRead(ctx, alice, 9999); !errors.Is(err, ErrNotificationNotFound) {
		t.Errorf("missing err = %v, want ErrNotificationNotFound", err)
	}
}
