package repo

import (
	"context"
	"testing"

	"github.com/tbourn/go-social-backend/internal/domain"
)

func TestListMessagesForUser_VisibilityFlags(t *testing.T) {
	db := newRepoDB(t, &domain.User{}, &domain.DirectMessage{})
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	m1, err := CreateDirectMessage(ctx, db, alice, bob, "one")
	if err != nil {
		t.Fatalf("CreateDirectMessage: %v", err)
	}
	m2, err := CreateDirectMessage(ctx, db, bob, alice, "two")
	if err != nil {
		t.Fatalf("CreateDirectMessage: %v", err)
	}

	// Alice hides m1 (hers as sender) and m2 (hers as receiver).
	if err := SetMessageDeletedBySender(ctx, db, m1.ID); err != nil {
		t.Fatalf("SetMessageDeletedBySender: %v", err)
	}
	if err := SetMessageDeletedByReceiver(ctx, db, m2.ID); err != nil {
		t.Fatalf("SetMessageDeletedByReceiver: %v", err)
	}

	forAlice, err := ListMessagesForUser(ctx, db, alice)
	if err != nil {
		t.Fatalf("ListMessagesForUser: %v", err)
	}
	if len(forAlice) != 0 {
		t.Errorf("alice sees %d messages, want 0", len(forAlice))
	}

	// Bob's flags are untouched, so he still sees both.
	forBob, err := ListMessagesForUser(ctx, db, bob)
	if err != nil {
		t.Fatalf("ListMessagesForUser: %v", err)
	}
	if len(forBob) != 2 {
		t.Fatalf("bob sees %d messages, want 2", len(forBob))
	}
	if forBob[0].Content != "one" || forBob[1].Content != "two" {
		t.Errorf("order = %q, %q; want sent ascending", forBob[0].Content, forBob[1].Content)
	}
}

func TestListConversation_ScopedToPair(t *testing.T) {
	db := newRepoDB(t, &domain.User{}, &domain.DirectMessage{})
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	carol := seedUser(t, db, "carol")

	if _, err := CreateDirectMessage(ctx, db, alice, bob, "to bob"); err != nil {
		t.Fatalf("CreateDirectMessage: %v", err)
	}
	if _, err := CreateDirectMessage(ctx, db, alice, carol, "to carol"); err != nil {
		t.Fatalf("CreateDirectMessage: %v", err)
	}

	conv, err := ListConversation(ctx, db, alice, bob)
	if err != nil {
		t.Fatalf("ListConversation: %v", err)
	}
	if len(conv) != 1 || conv[0].Content != "to bob" {
		t.Errorf("conversation = %+v", conv)
	}
}

func TestPurgeDirectMessage(t *testing.T) {
	db := newRepoDB(t, &domain.User{}, &domain.DirectMessage{})
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	m, _ := CreateDirectMessage(ctx, db, alice, bob, "gone soon")
	if err := PurgeDirectMessage(ctx, db, m.ID); err != nil {
		t.Fatalf("PurgeDirectMessage: %v", err)
	}
	if _, err := GetDirectMessage(ctx, db, m.ID); err == nil {
		t.Error("expected error after purge")
	}
}
