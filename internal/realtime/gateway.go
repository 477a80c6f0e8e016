package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"labfry/config"
	"labfry/internal/domain/service"
	"labfry/internal/usecase"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

const (
	defaultAuthGrace = 30 * time.Second
	writeTimeout     = 5 * time.Second
	sendQueueSize    = 64
	maxMessageBytes  = 4 << 10
)

// Gateway upgrades websocket connections and runs the presence protocol:
// an unauthenticated connection has a fixed grace period to present a valid
// access token, after which it is dropped.
type Gateway struct {
	logger   *slog.Logger
	tokenSvc service.TokenService
	uc       usecase.AuthUsecase
	tracker  *Tracker

	authGrace      time.Duration
	originPatterns []string
	insecureOrigin bool

	mu      sync.RWMutex
	clients map[string]*client
}

// GatewayParams holds dependencies for the Gateway, injected by Fx.
type GatewayParams struct {
	fx.In

	Config       *config.Config
	Logger       *slog.Logger
	TokenService service.TokenService
	AuthUsecase  usecase.AuthUsecase
	Tracker      *Tracker
}

// NewGateway is the constructor for Gateway.
func NewGateway(params GatewayParams) *Gateway {
	grace := defaultAuthGrace
	if params.Config.Auth != nil && params.Config.Auth.WSAuthGrace > 0 {
		grace = params.Config.Auth.WSAuthGrace
	}

	g := &Gateway{
		logger:    params.Logger,
		tokenSvc:  params.TokenService,
		uc:        params.AuthUsecase,
		tracker:   params.Tracker,
		authGrace: grace,
		clients:   make(map[string]*client),
	}

	if frontend, err := url.Parse(params.Config.Frontend.URL); err == nil && frontend.Host != "" {
		g.originPatterns = []string{frontend.Host}
	} else {
		// No frontend origin configured, accept any. Fine for local work,
		// not for anything internet facing.
		g.insecureOrigin = true
	}

	return g
}

// Handle is the echo handler mounted on the websocket route.
func (g *Gateway) Handle(c echo.Context) error {
	g.handleWS(c.Response(), c.Request())

	return nil
}

func (g *Gateway) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:     g.originPatterns,
		InsecureSkipVerify: g.insecureOrigin,
	})
	if err != nil {
		g.logger.Warn("Websocket accept failed", slog.String("error", err.Error()))

		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	conn.SetReadLimit(maxMessageBytes)

	connID := uuid.NewString()
	cl := newClient(connID, sendQueueSize)
	g.register(cl)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	g.logger.Debug("Socket connected", slog.String("connId", connID))

	var (
		shutdownOnce  sync.Once
		authenticated bool
	)

	// shutdown tears the session down exactly once: presence bookkeeping
	// first, then the connection.
	shutdown := func(code websocket.StatusCode, reason string) {
		shutdownOnce.Do(func() {
			if entry, ok := g.tracker.Get(connID); ok {
				g.tracker.Remove(connID)
				g.uc.UpdateOnlineStatus(context.WithoutCancel(ctx), entry.UserID, false)
				g.broadcastOthers(connID, newEnvelope(EventUserOffline, StatusUpdate{
					UserID:    entry.UserID.String(),
					IsOnline:  false,
					FirstName: entry.FirstName,
					LastName:  entry.LastName,
				}))
			}

			g.unregister(connID)
			cl.Close()
			_ = conn.Close(code, reason)
			cancel()
		})
	}

	// Writer drains the send queue onto the wire.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-cl.Done():
				return
			case env := <-cl.send:
				writeCtx, writeCancel := context.WithTimeout(ctx, writeTimeout)
				err := writeJSON(writeCtx, conn, env)
				writeCancel()
				if err != nil {
					shutdown(websocket.StatusAbnormalClosure, "write failed")

					return
				}
			}
		}
	}()

	// Connections that never authenticate are dropped after the grace period.
	graceTimer := time.AfterFunc(g.authGrace, func() {
		if _, ok := g.tracker.Get(connID); ok {
			return
		}
		cl.trySend(newEnvelope(EventAuthTimeout, ErrorData{Message: "Authentication timeout"}))
		// Leave the writer a moment to flush before the close frame.
		time.Sleep(100 * time.Millisecond)
		shutdown(websocket.StatusPolicyViolation, "authentication timeout")
	})
	defer graceTimer.Stop()

	for {
		var env Envelope
		if err := readJSON(ctx, conn, &env); err != nil {
			shutdown(websocket.StatusNormalClosure, "peer closed")

			return
		}

		switch env.Event {
		case EventAuthenticate:
			var data AuthenticateData
			_ = json.Unmarshal(env.Data, &data)
			if g.authenticate(ctx, cl, data.Token) {
				authenticated = true
				graceTimer.Stop()
			} else {
				shutdown(websocket.StatusPolicyViolation, "authentication failed")

				return
			}

		case EventUpdateOnlineStatus:
			if !authenticated {
				cl.trySend(newEnvelope(EventError, ErrorData{Message: "User not authenticated"}))

				continue
			}
			var data OnlineStatusData
			_ = json.Unmarshal(env.Data, &data)
			g.updateStatus(ctx, cl, data.IsOnline)

		case EventGetOnlineUsers:
			g.sendOnlineUsers(cl)

		case EventTypingStart:
			g.relayTyping(cl, env.Data, EventUserTypingStart)

		case EventTypingStop:
			g.relayTyping(cl, env.Data, EventUserTypingStop)

		default:
			cl.trySend(newEnvelope(EventError, ErrorData{Message: "Unsupported event: " + env.Event}))
		}
	}
}

// authenticate verifies the access token, records the identity and announces
// the user to everyone else.
func (g *Gateway) authenticate(ctx context.Context, cl *client, token string) bool {
	claims, err := g.tokenSvc.VerifyAccessToken(token)
	if err != nil {
		cl.trySend(newEnvelope(EventAuthError, ErrorData{Message: "Invalid token"}))

		return false
	}

	user, err := g.uc.GetProfile(ctx, claims.UserID)
	if err != nil {
		cl.trySend(newEnvelope(EventAuthError, ErrorData{Message: "User not found"}))

		return false
	}

	g.tracker.Add(cl.connID, Entry{
		UserID:    user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
		JoinedAt:  time.Now(),
	})

	g.uc.UpdateOnlineStatus(ctx, user.ID, true)

	g.broadcastOthers(cl.connID, newEnvelope(EventUserOnline, StatusUpdate{
		UserID:    user.ID.String(),
		IsOnline:  true,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}))

	cl.trySend(newEnvelope(EventAuthenticated, AuthenticatedData{
		Success: true,
		User: AuthenticatedUser{
			ID:        user.ID.String(),
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Role:      user.Role.String(),
			IsOnline:  true,
		},
	}))

	g.logger.Info("Socket authenticated",
		slog.String("connId", cl.connID),
		slog.String("userId", user.ID.String()),
	)

	return true
}

func (g *Gateway) updateStatus(ctx context.Context, cl *client, isOnline bool) {
	entry, ok := g.tracker.Get(cl.connID)
	if !ok {
		cl.trySend(newEnvelope(EventError, ErrorData{Message: "User not authenticated"}))

		return
	}

	g.uc.UpdateOnlineStatus(ctx, entry.UserID, isOnline)

	g.broadcastOthers(cl.connID, newEnvelope(EventUserStatusChange, StatusUpdate{
		UserID:    entry.UserID.String(),
		IsOnline:  isOnline,
		FirstName: entry.FirstName,
		LastName:  entry.LastName,
	}))

	message := "You are now offline"
	if isOnline {
		message = "You are now online"
	}
	cl.trySend(newEnvelope(EventStatusUpdated, StatusUpdatedData{
		Success:  true,
		IsOnline: isOnline,
		Message:  message,
	}))
}

func (g *Gateway) sendOnlineUsers(cl *client) {
	entries := g.tracker.List()
	users := make([]OnlineUser, 0, len(entries))
	for _, entry := range entries {
		users = append(users, OnlineUser{
			UserID:    entry.UserID.String(),
			FirstName: entry.FirstName,
			LastName:  entry.LastName,
			Role:      entry.Role.String(),
			JoinedAt:  entry.JoinedAt.UTC().Format(time.RFC3339),
		})
	}

	cl.trySend(newEnvelope(EventOnlineUsersList, OnlineUsersList{Users: users}))
}

// relayTyping forwards a typing notice to the target user's connections, or
// to everyone else when no target is given. Unauthenticated senders are
// silently ignored.
func (g *Gateway) relayTyping(cl *client, raw json.RawMessage, outEvent string) {
	entry, ok := g.tracker.Get(cl.connID)
	if !ok {
		return
	}

	var data TypingData
	_ = json.Unmarshal(raw, &data)

	notice := newEnvelope(outEvent, TypingNotice{
		UserID:    entry.UserID.String(),
		FirstName: entry.FirstName,
		LastName:  entry.LastName,
	})

	if data.TargetUserID != "" {
		targetID, err := uuid.Parse(data.TargetUserID)
		if err != nil {
			return
		}
		g.sendToUser(targetID, notice)

		return
	}

	g.broadcastOthers(cl.connID, notice)
}

func (g *Gateway) register(cl *client) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.clients[cl.connID] = cl
}

func (g *Gateway) unregister(connID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.clients, connID)
}

// broadcastOthers queues an envelope to every connection except the sender.
func (g *Gateway) broadcastOthers(exceptConnID string, env Envelope) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for connID, cl := range g.clients {
		if connID == exceptConnID {
			continue
		}
		cl.trySend(env)
	}
}

// sendToUser queues an envelope to every connection a user holds.
func (g *Gateway) sendToUser(userID uuid.UUID, env Envelope) {
	for _, connID := range g.tracker.ConnIDsForUser(userID) {
		g.mu.RLock()
		cl, ok := g.clients[connID]
		g.mu.RUnlock()
		if ok {
			cl.trySend(env)
		}
	}
}

func writeJSON(ctx context.Context, conn *websocket.Conn, env Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}

	return conn.Write(ctx, websocket.MessageText, payload)
}

func readJSON(ctx context.Context, conn *websocket.Conn, env *Envelope) error {
	_, payload, err := conn.Read(ctx)
	if err != nil {
		return err
	}

	return json.Unmarshal(payload, env)
}
