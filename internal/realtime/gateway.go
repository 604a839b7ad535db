package realtime

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// TokenVerifier resolves a bearer token to the user id it names.
// Implemented by security.TokenManager.
type TokenVerifier interface {
	Verify(token string) (uint, error)
}

// Gateway upgrades authenticated HTTP requests to WebSocket sessions and
// bridges them onto the Hub. Clients receive notification frames only; any
// inbound frames are read and discarded to service control messages.
type Gateway struct {
	Hub        *Hub
	Tokens     TokenVerifier
	SendBuffer int
	WriteWait  time.Duration
}

// NewGateway constructs a Gateway with sensible defaults.
func NewGateway(hub *Hub, tokens TokenVerifier, sendBuffer int) *Gateway {
	return &Gateway{
		Hub:        hub,
		Tokens:     tokens,
		SendBuffer: sendBuffer,
		WriteWait:  10 * time.Second,
	}
}

// Handler returns the Gin handler serving GET /ws.
//
// Authentication accepts a Bearer token in the Authorization header or a
// "token" query parameter (browsers cannot set headers on WebSocket dials).
func (g *Gateway) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := g.authenticate(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "unauthorized",
				"message": "missing or invalid token",
			})
			return
		}

		conn, err := websocket.Accept(c.Writer, c.Request, nil)
		if err != nil {
			// Accept has already written the handshake failure response.
			log.Warn().Err(err).Uint("user_id", userID).Msg("realtime: websocket accept")
			return
		}

		sess := g.Hub.Register(userID, g.SendBuffer)
		defer g.Hub.Unregister(sess)

		ctx := c.Request.Context()
		go g.readLoop(ctx, conn)
		g.writeLoop(ctx, conn, sess)

		conn.Close(websocket.StatusNormalClosure, "")
	}
}

func (g *Gateway) authenticate(c *gin.Context) (uint, bool) {
	tok := c.Query("token")
	if tok == "" {
		h := c.GetHeader("Authorization")
		if strings.HasPrefix(h, "Bearer ") {
			tok = strings.TrimPrefix(h, "Bearer ")
		}
	}
	if tok == "" || g.Tokens == nil {
		return 0, false
	}
	userID, err := g.Tokens.Verify(tok)
	if err != nil {
		return 0, false
	}
	return userID, true
}

// readLoop drains inbound frames so pings and close handshakes are serviced.
func (g *Gateway) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
	}
}

// writeLoop forwards queued frames to the connection until the session ends.
func (g *Gateway) writeLoop(ctx context.Context, conn *websocket.Conn, sess *Session) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sess.Done():
			return
		case frame := <-sess.Frames():
			wctx, cancel := context.WithTimeout(ctx, g.WriteWait)
			err := conn.Write(wctx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
