package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/go-social-backend/internal/domain"
)

func TestCreateFriendship_PairUniqueness(t *testing.T) {
	db := newRepoDB(t, &domain.User{}, &domain.Friendship{})
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	f, err := CreateFriendship(ctx, db, alice, bob)
	if err != nil {
		t.Fatalf("CreateFriendship: %v", err)
	}
	if f.Status != domain.FriendshipPending {
		t.Errorf("status = %q", f.Status)
	}
	low, high := domain.NormalizePair(alice, bob)
	if f.PairLow != low || f.PairHigh != high {
		t.Errorf("pair = (%d,%d), want (%d,%d)", f.PairLow, f.PairHigh, low, high)
	}

	// The unique index rejects the same pair from either direction.
	if _, err := CreateFriendship(ctx, db, alice, bob); !errors.Is(err, ErrDuplicatePair) {
		t.Errorf("same order err = %v, want ErrDuplicatePair", err)
	}
	if _, err := CreateFriendship(ctx, db, bob, alice); !errors.Is(err, ErrDuplicatePair) {
		t.Errorf("reversed order err = %v, want ErrDuplicatePair", err)
	}
}

func TestGetFriendshipBetween_OrderIrrelevant(t *testing.T) {
	db := newRepoDB(t, &domain.User{}, &domain.Friendship{})
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	created, err := CreateFriendship(ctx, db, bob, alice)
	if err != nil {
		t.Fatalf("CreateFriendship: %v", err)
	}

	got, err := GetFriendshipBetween(ctx, db, alice, bob)
	if err != nil {
		t.Fatalf("GetFriendshipBetween: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("id = %d, want %d", got.ID, created.ID)
	}
	if got.InitiatorID != bob || got.RecipientID != alice {
		t.Errorf("direction = (%d→%d), want preserved", got.InitiatorID, got.RecipientID)
	}

	if _, err := GetFriendshipBetween(ctx, db, alice, 9999); err == nil {
		t.Error("expected error for missing pair")
	}
}

func TestPairExists_AnyStatus(t *testing.T) {
	db := newRepoDB(t, &domain.User{}, &domain.Friendship{})
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	ok, err := PairExists(ctx, db, alice, bob)
	if err != nil || ok {
		t.Fatalf("PairExists before = (%v, %v)", ok, err)
	}

	f, _ := CreateFriendship(ctx, db, alice, bob)
	if err := UpdateFriendshipStatus(ctx, db, f.ID, domain.FriendshipRejected); err != nil {
		t.Fatalf("UpdateFriendshipStatus: %v", err)
	}

	// Rejected rows still count; only the pair matters.
	ok, err = PairExists(ctx, db, bob, alice)
	if err != nil || !ok {
		t.Errorf("PairExists after reject = (%v, %v), want true", ok, err)
	}
}

func TestListFriendshipsForUserByStatus(t *testing.T) {
	db := newRepoDB(t, &domain.User{}, &domain.Friendship{})
	ctx := context.Background()
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	carol := seedUser(t, db, "carol")

	f1, _ := CreateFriendship(ctx, db, alice, bob)
	if _, err := CreateFriendship(ctx, db, carol, alice); err != nil {
		t.Fatalf("CreateFriendship: %v", err)
	}
	if err := UpdateFriendshipStatus(ctx, db, f1.ID, domain.FriendshipAccepted); err != nil {
		t.Fatalf("UpdateFriendshipStatus: %v", err)
	}

	all, err := ListFriendshipsForUser(ctx, db, alice)
	if err != nil {
		t.Fatalf("ListFriendshipsForUser: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all = %d, want 2", len(all))
	}

	accepted, err := ListFriendshipsForUserByStatus(ctx, db, alice, domain.FriendshipAccepted)
	if err != nil {
		t.Fatalf("ListFriendshipsForUserByStatus: %v", err)
	}
	if len(accepted) != 1 || accepted[0].ID != f1.ID {
		t.Errorf("accepted = %+v", accepted)
	}
}
