package services

import (
	"context"
	"fmt"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// ---------- shared test helpers ----------

// newSvcDB opens a throwaway in-memory sqlite database and migrates the
// given models.
func newSvcDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

// seedUser inserts a confirmed user and returns its ID.
func seedUser(t *testing.T, db *gorm.DB, name string) uint {
	t.Helper()
	u := domain.User{
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "x",
		Confirmed:    true,
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user %s: %v", name, err)
	}
	return u.ID
}

// notifyEvent captures one Notify call.
type notifyEvent struct {
	Recipient uint
	Sender    uint
	Type      string
	Ref       *uint
	Message   string
}

// fakeNotifier records notifications instead of persisting or pushing them.
type fakeNotifier struct {
	events []notifyEvent
}

func (f *fakeNotifier) Notify(_ context.Context, recipientID, senderID uint, ntype string, referenceID *uint, message string) {
	f.events = append(f.events, notifyEvent{
		Recipient: recipientID,
		Sender:    senderID,
		Type:      ntype,
		Ref:       referenceID,
		Message:   message,
	})
}

// allowAll is a Linker that always permits messaging.
type allowAll struct{}

func (allowAll) Linked(context.Context, uint, uint) (bool, error) { return true, nil }

// denyAll is a Linker that never permits messaging.
type denyAll struct{}

func (denyAll) Linked(context.Context, uint, uint) (bool, error) { return false, nil }
