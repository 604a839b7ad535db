package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-social-backend/internal/domain"
)

func newCallSvc(t *testing.T) (*CallService, *fakeNotifier, uint, uint) {
	t.Helper()
	db := newSvcDB(t, &domain.User{}, &domain.CallSession{})
	fn := &fakeNotifier{}
	svc := &CallService{DB: db, Notifier: fn}
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	return svc, fn, alice, bob
}

func TestCallService_Initiate(t *testing.T) {
	svc, fn, alice, bob := newCallSvc(t)
	ctx := context.Background()

	sess, err := svc.Initiate(ctx, alice, bob, "video")
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if sess.Status != domain.CallInitiated {
		t.Errorf("status = %q, want %q", sess.Status, domain.CallInitiated)
	}
	if sess.CallerID != alice || sess.ReceiverID != bob {
		t.Errorf("parties = (%d,%d)", sess.CallerID, sess.ReceiverID)
	}
	if sess.CallType != "video" {
		t.Errorf("call type = %q", sess.CallType)
	}

	if len(fn.events) != 1 {
		t.Fatalf("events = %d, want 1", len(fn.events))
	}
	if ev := fn.events[0]; ev.Recipient != bob || ev.Type != domain.NotificationCall {
		t.Errorf("unexpected notification: %+v", ev)
	}
}

func TestCallService_Initiate_Guards(t *testing.T) {
	svc, _, alice, _ := newCallSvc(t)
	ctx := context.Background()

	if _, err := svc.Initiate(ctx, alice, alice, "audio"); !errors.Is(err, ErrSelfCall) {
		t.Errorf("self err = %v, want ErrSelfCall", err)
	}
	if _, err := svc.Initiate(ctx, alice, 9999, "audio"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown err = %v, want ErrUserNotFound", err)
	}
}

func TestCallService_UpdateStatus_Transitions(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name    string
		from    string
		to      string
		wantErr error
	}{
		{"initiated to accepted", domain.CallInitiated, domain.CallAccepted, nil},
		{"initiated to rejected", domain.CallInitiated, domain.CallRejected, nil},
		{"initiated to missed", domain.CallInitiated, domain.CallMissed, nil},
		{"initiated to ended", domain.CallInitiated, domain.CallEnded, ErrInvalidTransition},
		{"accepted to ended", domain.CallAccepted, domain.CallEnded, nil},
		{"accepted to rejected", domain.CallAccepted, domain.CallRejected, ErrInvalidTransition},
		{"rejected is terminal", domain.CallRejected, domain.CallAccepted, ErrInvalidTransition},
		{"missed is terminal", domain.CallMissed, domain.CallEnded, ErrInvalidTransition},
		{"ended is terminal", domain.CallEnded, domain.CallAccepted, ErrInvalidTransition},
		{"unknown status", domain.CallInitiated, "ringing", ErrInvalidCallStatus},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, alice, bob := newCallSvc(t)
			sess, err := svc.Initiate(ctx, alice, bob, "audio")
			if err != nil {
				t.Fatalf("Initiate: %v", err)
			}
			if tc.from != domain.CallInitiated {
				sess.Status = tc.from
				if err := svc.DB.Save(sess).Error; err != nil {
					t.Fatalf("seed status: %v", err)
				}
			}

			got, err := svc.UpdateStatus(ctx, bob, sess.ID, tc.to, nil, nil)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if tc.wantErr == nil && got.Status != tc.to {
				t.Errorf("status = %q, want %q", got.Status, tc.to)
			}
		})
	}
}

func TestCallService_UpdateStatus_Guards(t *testing.T) {
	svc, _, alice, bob := newCallSvc(t)
	ctx := context.Background()
	carol := seedUser(t, svc.DB, "carol")

	sess, _ := svc.Initiate(ctx, alice, bob, "audio")

	if _, err := svc.UpdateStatus(ctx, bob, 9999, domain.CallAccepted, nil, nil); !errors.Is(err, ErrCallNotFound) {
		t.Errorf("missing err = %v, want ErrCallNotFound", err)
	}
	if _, err := svc.UpdateStatus(ctx, carol, sess.ID, domain.CallAccepted, nil, nil); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("outsider err = %v, want ErrNotParticipant", err)
	}
}

func TestCallService_Duration(t *testing.T) {
	svc, _, alice, bob := newCallSvc(t)
	ctx := context.Background()

	sess, _ := svc.Initiate(ctx, alice, bob, "video")

	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(90*time.Second + 700*time.Millisecond)

	if _, err := svc.UpdateStatus(ctx, bob, sess.ID, domain.CallAccepted, &start, nil); err != nil {
		t.Fatalf("accept: %v", err)
	}
	got, err := svc.UpdateStatus(ctx, alice, sess.ID, domain.CallEnded, nil, &end)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if got.DurationSeconds == nil {
		t.Fatal("DurationSeconds not set")
	}
	if *got.DurationSeconds != 90 {
		t.Errorf("duration = %d, want 90 (sub-second remainder discarded)", *got.DurationSeconds)
	}
}

func TestCallService_Duration_MissingTimestamps(t *testing.T) {
	svc, _, alice, bob := newCallSvc(t)
	ctx := context.Background()

	// Accepted without a start time, then ended: no duration can be derived.
	sess, _ := svc.Initiate(ctx, alice, bob, "audio")
	if _, err := svc.UpdateStatus(ctx, bob, sess.ID, domain.CallAccepted, nil, nil); err != nil {
		t.Fatalf("accept: %v", err)
	}
	end := time.Now().UTC()
	got, err := svc.UpdateStatus(ctx, bob, sess.ID, domain.CallEnded, nil, &end)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if got.DurationSeconds != nil {
		t.Errorf("duration = %v, want nil without a start time", *got.DurationSeconds)
	}
	if got.EndedAt == nil {
		t.Error("EndedAt should still be recorded")
	}
}

func TestCallService_ListForUser(t *testing.T) {
	svc, _, alice, bob := newCallSvc(t)
	ctx := context.Background()
	carol := seedUser(t, svc.DB, "carol")

	if _, err := svc.Initiate(ctx, alice, bob, "audio"); err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if _, err := svc.Initiate(ctx, carol, alice, "video"); err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if _, err := svc.Initiate(ctx, bob, carol, "audio"); err != nil {
		t.Fatalf("Initiate: %v", err)
	}

	got, err := svc.ListForUser(ctx, alice)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	for _, s := range got {
		if !s.Involves(alice) {
			t.Errorf("session %d does not involve alice", s.ID)
		}
	}
}
