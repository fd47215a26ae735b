package ws

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/medilink/signaling/internal/domain"
)

// handleFrame decodes one inbound frame and dispatches on kind. Malformed
// frames get a best-effort error frame back; unknown kinds are logged and
// dropped, never errored.
func (ctl *Controller) handleFrame(c *wsConn, data []byte) {
	var msg domain.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Warn().Err(err).Str("module", "ws").Msg("bad json frame")
		ctl.sendError(c, "bad_payload")
		return
	}

	if ctl.Limiter != nil && !ctl.Limiter.Allow(c.userID()) {
		log.Warn().Str("module", "ws").Str("user", string(c.userID())).Msg("rate limited, dropping frame")
		return
	}

	switch msg.Kind {
	case domain.KindRegister:
		ctl.handleRegister(c, msg)
	case domain.KindHeartbeat:
		ctl.handleHeartbeat(c)
	case domain.KindChatMessage,
		domain.KindCallNotification,
		domain.KindAppointmentReminder,
		domain.KindEmergencyAlert,
		domain.KindUserOnline,
		domain.KindUserOffline,
		domain.KindTypingStart,
		domain.KindTypingStop,
		domain.KindMessageRead,
		domain.KindCallStatusUpdate:
		ctl.handleRoute(c, msg)
	default:
		log.Warn().Str("module", "ws").Str("kind", string(msg.Kind)).Msg("unknown signal")
	}
}

// handleRegister binds the connection to a user id. Last register wins:
// a second tab for the same user silently supersedes the first in the
// registry; the old tab's socket stays open until its own read loop ends.
func (ctl *Controller) handleRegister(c *wsConn, msg domain.Message) {
	raw, _ := msg.Data["userId"].(string)
	user := domain.UserID(raw)
	if err := domain.ValidateUserID(user); err != nil {
		ctl.sendError(c, "missing userId")
		return
	}

	c.setUser(user)
	ctl.Registry.Register(user, c)
	log.Info().Str("module", "ws").Str("user", string(user)).Msg("registered")

	ack := domain.NewMessage(domain.KindRegistered, "")
	ack.To = user
	ack.Data = map[string]any{"userId": string(user)}
	ctl.sendMessage(c, ack)

	online := domain.NewMessage(domain.KindUserOnline, user)
	online.Data = map[string]any{"userId": string(user)}
	ctl.Router.Route(online)
}

func (ctl *Controller) handleHeartbeat(c *wsConn) {
	ctl.sendMessage(c, domain.NewMessage(domain.KindHeartbeatResponse, ""))
}

// handleRoute forwards a typed message through the router. From is forced
// to the registered user so a tab cannot spoof another sender; anonymous
// connections may not route.
func (ctl *Controller) handleRoute(c *wsConn, msg domain.Message) {
	user := c.userID()
	if user == "" {
		ctl.sendError(c, "not registered")
		return
	}
	msg.From = user
	ctl.Router.Route(msg.Stamp())
}
