package server

import (
	"errors"
	"net/http"
	"strings"

	"DietPlanner/internal/chat"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	chatCookieName   = "dietplanner_chat"
	chatSessionIDKey = "id"
	msgEmptyPrompt   = "Prompt cannot be empty"
)

type ChatRequest struct {
	Prompt string `form:"prompt" json:"prompt" validate:"required"`
}

type chatResponse struct {
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// chatSessionID reads the session id from the cookie, issuing a new one when
// the cookie is missing or no longer verifies. The cookie is written to the
// response headers, so it must run before the body is written.
func (s *Server) chatSessionID(c echo.Context) string {
	if s.Chats.Scope() == chat.ScopeGlobal {
		return ""
	}

	logger := zerolog.Ctx(c.Request().Context())

	sess, err := s.cookies.Get(c.Request(), chatCookieName)
	if err != nil {
		logger.Debug().Err(err).Msg("Discarding unreadable chat session cookie")
	}

	if id, ok := sess.Values[chatSessionIDKey].(string); ok && id != "" {
		return id
	}

	id := uuid.NewString()
	sess.Values[chatSessionIDKey] = id
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		logger.Error().Err(err).Msg("Failed to save chat session cookie")
	}
	return id
}

// ChatHandler answers one prompt from the chat form.
func (s *Server) ChatHandler(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		// A body that is not a form carries no prompt.
		zerolog.Ctx(c.Request().Context()).Debug().Err(err).Msg("Ignoring unreadable chat body")
		req = ChatRequest{}
	}
	req.Prompt = strings.TrimSpace(req.Prompt)
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": msgEmptyPrompt})
	}

	session := s.Chats.Get(s.chatSessionID(c))

	answer, err := session.Respond(c.Request().Context(), req.Prompt)
	if errors.Is(err, chat.ErrEmptyPrompt) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": msgEmptyPrompt})
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"response": answer})
}

// ChatSocketHandler serves the same conversation over a websocket. Each text
// frame is a prompt; each reply is a JSON object with response or error set.
func (s *Server) ChatSocketHandler(c echo.Context) error {
	id := s.chatSessionID(c)

	// The upgrade writes its own response, so the cookie has to be passed on.
	header := http.Header{}
	for _, v := range c.Response().Header().Values("Set-Cookie") {
		header.Add("Set-Cookie", v)
	}

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), header)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		return nil
	}
	defer conn.Close()

	// With a shared transcript there is no per-browser id, so every socket
	// gets its own hub key.
	hubKey := id
	if hubKey == "" {
		hubKey = uuid.NewString()
	}
	s.hub.Register(hubKey, conn)
	defer s.hub.Unregister(hubKey, conn)

	ctx := c.Request().Context()
	logger := zerolog.Ctx(ctx)
	session := s.Chats.Get(id)

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn().Err(err).Msg("Chat socket closed unexpectedly")
			}
			return nil
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var out chatResponse
		answer, err := session.Respond(ctx, string(msg))
		if err != nil {
			out.Error = msgEmptyPrompt
		} else {
			out.Response = answer
		}

		if err := conn.WriteJSON(out); err != nil {
			logger.Warn().Err(err).Msg("Failed to write chat reply")
			return nil
		}
	}
}
