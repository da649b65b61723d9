package gate

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/gatewarden/gatewarden/core"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type connectionRequest struct {
	Type string `json:"type"`
}

// Connect evaluates one persistent-connection invocation. The token is
// only available in the handshake; a denied decision rejects the
// upgrade itself.
func (h *handler) Connect(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Gate.Handler.Connect")
	defer span.End()

	token := c.QueryParam(TokenQueryParam)
	if token == "" {
		err := errors.Wrap(core.NewErrorMalformedEvent(), "token missing from handshake")
		span.RecordError(err)
		return h.reject(ctx, c, "websocket", err)
	}

	decision, err := h.resolve(ctx, token)
	if err != nil {
		span.RecordError(err)
		return h.reject(ctx, c, "websocket", err)
	}

	if decision.Effect != core.EffectAllow {
		return h.reject(ctx, c, "websocket", errors.New("effect is deny"))
	}

	hints := core.ProtocolHints{
		GatewayArn: c.Request().Header.Get(GatewayArnHeader),
	}
	response := h.service.Assemble(decision, hints)

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		span.RecordError(err)
		return err
	}
	defer ws.Close()

	decisionCounter.WithLabelValues("allow", "websocket").Inc()

	// the decision is fixed for the connection's lifetime
	err = ws.WriteJSON(response)
	if err != nil {
		span.RecordError(err)
		return nil
	}

	for {
		var req connectionRequest
		err := ws.ReadJSON(&req)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.WarnContext(ctx, "connection closed unexpectedly",
					slog.String("error", err.Error()),
					slog.String("module", "gate"),
				)
			}
			break
		}

		switch req.Type {
		case "whoami":
			err = ws.WriteJSON(response)
			if err != nil {
				return nil
			}
		default:
			// unknown request types are ignored; the token cannot be
			// re-presented after the handshake
		}
	}

	return nil
}
