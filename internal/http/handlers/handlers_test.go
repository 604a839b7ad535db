package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/text/language"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/http/middleware"
	"github.com/tbourn/go-social-backend/internal/otp"
	"github.com/tbourn/go-social-backend/internal/repo"
	"github.com/tbourn/go-social-backend/internal/security"
	"github.com/tbourn/go-social-backend/internal/services"
)

// ---------- test rig ----------

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	err = db.AutoMigrate(
		&domain.User{}, &domain.Friendship{}, &domain.DirectMessage{},
		&domain.CallSession{}, &domain.Notification{},
		&domain.Post{}, &domain.Comment{}, &domain.Like{},
		&domain.Idempotency{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

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

type silentMailer struct{}

func (silentMailer) SendCode(context.Context, string, string) error { return nil }

// newTestRouter wires real services over db, mirroring the production route
// layout. Authentication is replaced by a header that names the acting user.
func newTestRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()

	notifSvc := &services.NotificationService{DB: db}
	friendSvc := &services.FriendshipService{DB: db, Notifier: notifSvc}
	msgSvc := &services.DirectMessageService{DB: db, Links: friendSvc, Notifier: notifSvc}
	callSvc := &services.CallService{DB: db, Notifier: notifSvc}
	postSvc := &services.PostService{DB: db, Notifier: notifSvc}
	userSvc := &services.UserService{DB: db, NameLocale: language.English}
	authSvc := &services.AuthService{
		DB:         db,
		Codes:      otp.NewCache(),
		Tokens:     security.NewTokenManager("test-secret", time.Hour),
		Mail:       silentMailer{},
		CodeTTL:    10 * time.Minute,
		CodeLength: 6,
	}

	h := New(authSvc, userSvc, friendSvc, msgSvc, callSvc, notifSvc, postSvc, db, time.Hour)

	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)

	authed := r.Group("")
	authed.Use(func(c *gin.Context) {
		if raw := c.GetHeader("X-Test-User"); raw != "" {
			if n, err := strconv.ParseUint(raw, 10, 64); err == nil {
				c.Set("userID", uint(n))
			}
		}
		c.Next()
	})
	authed.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, userID uint, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))
	{
		authed.POST("/friendships", h.SendFriendRequest)
		authed.PUT("/friendships/:id", h.RespondFriendRequest)
		authed.GET("/friends/status/:userID", h.FriendshipStatus)
		authed.POST("/messages", h.SendMessage)
		authed.DELETE("/messages/:id", h.DeleteMessage)
		authed.PUT("/calls/:id/status", h.UpdateCallStatus)
		authed.POST("/calls", h.InitiateCall)
		authed.PUT("/notifications/read/:id", h.MarkNotificationRead)
		authed.GET("/notifications", h.ListNotifications)
	}
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, asUser uint, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if asUser != 0 {
		req.Header.Set("X-Test-User", strconv.FormatUint(uint64(asUser), 10))
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

// ---------- friendships ----------

func TestFriendshipEndpoints(t *testing.T) {
	db := newHandlerDB(t)
	r := newTestRouter(t, db)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	carol := seedUser(t, db, "carol")

	w := doJSON(t, r, http.MethodPost, "/friendships", alice,
		SendFriendRequestRequest{RecipientID: bob}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("send status = %d body=%s", w.Code, w.Body.String())
	}
	created := decode[FriendshipResponse](t, w)
	if created.Friendship.Status != domain.FriendshipPending {
		t.Errorf("status = %q", created.Friendship.Status)
	}

	// A second request for the same pair conflicts, from either side.
	w = doJSON(t, r, http.MethodPost, "/friendships", bob,
		SendFriendRequestRequest{RecipientID: alice}, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate status = %d", w.Code)
	}

	// An outsider cannot decide the request.
	fid := created.Friendship.ID
	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/friendships/%d", fid), carol,
		RespondFriendRequestRequest{Decision: "accept"}, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("outsider status = %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/friendships/%d", fid), bob,
		RespondFriendRequestRequest{Decision: "accept"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("accept status = %d body=%s", w.Code, w.Body.String())
	}

	// Deciding twice is an invalid state.
	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/friendships/%d", fid), bob,
		RespondFriendRequestRequest{Decision: "reject"}, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("re-decide status = %d", w.Code)
	}
	if resp := decode[ErrorResponse](t, w); resp.Code != ErrCodeInvalidState {
		t.Errorf("re-decide code = %q", resp.Code)
	}

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/friends/status/%d", bob), alice, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status endpoint = %d", w.Code)
	}
	if resp := decode[FriendshipStatusResponse](t, w); resp.Status != domain.FriendshipAccepted {
		t.Errorf("status = %q", resp.Status)
	}

	// No record between alice and carol: 200 with an empty status.
	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/friends/status/%d", carol), alice, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status endpoint = %d", w.Code)
	}
	if resp := decode[FriendshipStatusResponse](t, w); resp.Status != "" {
		t.Errorf("status = %q, want empty", resp.Status)
	}
}

// ---------- messages ----------

func TestSendMessageEndpoint(t *testing.T) {
	db := newHandlerDB(t)
	r := newTestRouter(t, db)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	carol := seedUser(t, db, "carol")

	// No friendship record yet: forbidden.
	w := doJSON(t, r, http.MethodPost, "/messages", alice,
		SendMessageRequest{ReceiverID: bob, Content: "hi"}, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("unlinked status = %d", w.Code)
	}
	if resp := decode[ErrorResponse](t, w); resp.Code != ErrCodeNotFriends {
		t.Errorf("unlinked code = %q", resp.Code)
	}

	// A pending request is enough to open the channel.
	doJSON(t, r, http.MethodPost, "/friendships", alice,
		SendFriendRequestRequest{RecipientID: bob}, nil)

	w = doJSON(t, r, http.MethodPost, "/messages", alice,
		SendMessageRequest{ReceiverID: bob, Content: "hi"}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("send status = %d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/messages", alice,
		SendMessageRequest{ReceiverID: 9999, Content: "hi"}, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown receiver status = %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/messages", carol,
		SendMessageRequest{ReceiverID: bob}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing content status = %d", w.Code)
	}
}

func TestSendMessageIdempotencyReplay(t *testing.T) {
	db := newHandlerDB(t)
	r := newTestRouter(t, db)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	doJSON(t, r, http.MethodPost, "/friendships", alice,
		SendFriendRequestRequest{RecipientID: bob}, nil)

	headers := map[string]string{"Idempotency-Key": "retry-1"}
	body := SendMessageRequest{ReceiverID: bob, Content: "only once"}

	w := doJSON(t, r, http.MethodPost, "/messages", alice, body, headers)
	if w.Code != http.StatusCreated {
		t.Fatalf("first send = %d body=%s", w.Code, w.Body.String())
	}
	first := decode[MessageResponse](t, w)
	if w.Header().Get("Idempotency-Replayed") != "" {
		t.Error("first send marked as replay")
	}

	w = doJSON(t, r, http.MethodPost, "/messages", alice, body, headers)
	if w.Code != http.StatusCreated {
		t.Fatalf("retry = %d body=%s", w.Code, w.Body.String())
	}
	second := decode[MessageResponse](t, w)
	if second.Message.ID != first.Message.ID {
		t.Errorf("retry created a new message: %d vs %d", second.Message.ID, first.Message.ID)
	}
	if w.Header().Get("Idempotency-Replayed") != "true" {
		t.Error("replay header missing")
	}

	var count int64
	db.Model(&domain.DirectMessage{}).Count(&count)
	if count != 1 {
		t.Errorf("stored messages = %d, want 1", count)
	}

	// A different key sends again.
	w = doJSON(t, r, http.MethodPost, "/messages", alice, body,
		map[string]string{"Idempotency-Key": "retry-2"})
	if w.Code != http.StatusCreated {
		t.Fatalf("new key = %d", w.Code)
	}
	db.Model(&domain.DirectMessage{}).Count(&count)
	if count != 2 {
		t.Errorf("stored messages = %d, want 2", count)
	}
}

func TestDeleteMessageEndpoint(t *testing.T) {
	db := newHandlerDB(t)
	r := newTestRouter(t, db)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	carol := seedUser(t, db, "carol")
	doJSON(t, r, http.MethodPost, "/friendships", alice,
		SendFriendRequestRequest{RecipientID: bob}, nil)

	w := doJSON(t, r, http.MethodPost, "/messages", alice,
		SendMessageRequest{ReceiverID: bob, Content: "hi"}, nil)
	m := decode[MessageResponse](t, w)

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/messages/%d", m.Message.ID), carol, nil, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("outsider delete = %d", w.Code)
	}
	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/messages/%d", m.Message.ID), alice, nil, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete = %d", w.Code)
	}
	w = doJSON(t, r, http.MethodDelete, "/messages/9999", alice, nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing delete = %d", w.Code)
	}
}

// ---------- calls ----------

func TestCallEndpoints(t *testing.T) {
	db := newHandlerDB(t)
	r := newTestRouter(t, db)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	w := doJSON(t, r, http.MethodPost, "/calls", alice,
		InitiateCallRequest{ReceiverID: bob, CallType: "audio"}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("initiate = %d body=%s", w.Code, w.Body.String())
	}
	call := decode[CallResponse](t, w)

	// Ending a call that was never accepted is an invalid state.
	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/calls/%d/status", call.Call.ID), bob,
		UpdateCallStatusRequest{Status: domain.CallEnded}, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("end-before-accept = %d", w.Code)
	}
	if resp := decode[ErrorResponse](t, w); resp.Code != ErrCodeInvalidState {
		t.Errorf("code = %q", resp.Code)
	}

	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/calls/%d/status", call.Call.ID), bob,
		UpdateCallStatusRequest{Status: domain.CallAccepted}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("accept = %d body=%s", w.Code, w.Body.String())
	}

	// Unknown target status never reaches the service.
	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/calls/%d/status", call.Call.ID), bob,
		UpdateCallStatusRequest{Status: "ringing"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown status = %d", w.Code)
	}
}

// ---------- notifications ----------

func TestNotificationEndpoints(t *testing.T) {
	db := newHandlerDB(t)
	r := newTestRouter(t, db)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")

	// The friend request fans out a notification to bob.
	doJSON(t, r, http.MethodPost, "/friendships", alice,
		SendFriendRequestRequest{RecipientID: bob}, nil)

	w := doJSON(t, r, http.MethodGet, "/notifications", bob, nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	list := decode[ListNotificationsResponse](t, w)
	if len(list.Notifications) != 1 {
		t.Fatalf("notifications = %d, want 1", len(list.Notifications))
	}
	nid := list.Notifications[0].ID

	// Only the recipient may mark it read.
	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/notifications/read/%d", nid), alice, nil, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("non-recipient mark = %d", w.Code)
	}
	w = doJSON(t, r, http.MethodPut, fmt.Sprintf("/notifications/read/%d", nid), bob, nil, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("mark = %d", w.Code)
	}
	w = doJSON(t, r, http.MethodPut, "/notifications/read/9999", bob, nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing mark = %d", w.Code)
	}
}

// ---------- auth ----------

func TestAuthEndpoints(t *testing.T) {
	db := newHandlerDB(t)
	r := newTestRouter(t, db)

	w := doJSON(t, r, http.MethodPost, "/auth/register", 0,
		RegisterRequest{Username: "dana", Email: "dana@example.com", Password: "long enough pw"}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("register = %d body=%s", w.Code, w.Body.String())
	}
	reg := decode[RegisterResponse](t, w)
	if reg.Username != "dana" {
		t.Errorf("register body = %+v", reg)
	}

	// Same username again conflicts.
	w = doJSON(t, r, http.MethodPost, "/auth/register", 0,
		RegisterRequest{Username: "dana", Email: "other@example.com", Password: "long enough pw"}, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate register = %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/auth/login", 0,
		LoginRequest{Email: "dana@example.com", Password: "wrong password"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad login = %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/auth/login", 0,
		LoginRequest{Email: "dana@example.com", Password: "long enough pw"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login = %d body=%s", w.Code, w.Body.String())
	}
	login := decode[LoginResponse](t, w)
	if login.Token == "" || login.UserID != reg.ID {
		t.Errorf("login body = %+v", login)
	}
}
