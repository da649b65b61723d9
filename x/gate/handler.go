package gate

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/xid"
	"go.opentelemetry.io/otel"

	"github.com/gatewarden/gatewarden/core"
	"github.com/gatewarden/gatewarden/x/util"
)

var tracer = otel.Tracer("gate")

var decisionCounter = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "gatewarden",
		Name:      "decisions_total",
		Help:      "Authorization decisions by outcome and protocol.",
	},
	[]string{"outcome", "protocol"},
)

// Handler is the interface for both entry-point variants
type Handler interface {
	Authorize(c echo.Context) error
	Connect(c echo.Context) error
}

type handler struct {
	service core.PolicyService
	config  util.Config
}

// NewHandler creates a new gate handler
func NewHandler(service core.PolicyService, config util.Config) Handler {
	return &handler{service, config}
}

// Authorize evaluates one request/response invocation.
// Every failure class collapses to the same unauthorized rejection.
func (h *handler) Authorize(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Gate.Handler.Authorize")
	defer span.End()

	token, err := extractToken(c)
	if err != nil {
		span.RecordError(err)
		return h.reject(ctx, c, "rest", err)
	}

	decision, err := h.resolve(ctx, token)
	if err != nil {
		span.RecordError(err)
		return h.reject(ctx, c, "rest", err)
	}

	if decision.Effect != core.EffectAllow {
		return h.reject(ctx, c, "rest", errors.New("effect is deny"))
	}

	hints := core.ProtocolHints{
		GatewayArn: c.Request().Header.Get(GatewayArnHeader),
		Method:     c.Request().Header.Get(GatewayMethodHeader),
		Path:       c.Request().Header.Get(GatewayPathHeader),
	}

	decisionCounter.WithLabelValues("allow", "rest").Inc()
	return c.JSON(http.StatusOK, h.service.Assemble(decision, hints))
}

// resolve runs the shared pipeline, retrying only store outages
// within the configured budget
func (h *handler) resolve(ctx context.Context, token string) (core.AccessDecision, error) {
	decision, err := h.service.Resolve(ctx, token)

	for attempt := 0; attempt < h.config.Authorizer.RetryAttempts(); attempt++ {
		var unavailable core.ErrorStoreUnavailable
		if !errors.As(err, &unavailable) {
			break
		}
		select {
		case <-ctx.Done():
			return core.AccessDecision{}, ctx.Err()
		case <-time.After(h.config.Authorizer.RetryInterval()):
		}
		decision, err = h.service.Resolve(ctx, token)
	}

	return decision, err
}

// reject emits the uniform unauthorized signal. The reason is kept in
// diagnostics only, never in the response payload.
func (h *handler) reject(ctx context.Context, c echo.Context, protocol string, err error) error {
	decisionCounter.WithLabelValues("deny", protocol).Inc()
	slog.WarnContext(ctx, "authorization rejected",
		slog.String("reason", err.Error()),
		slog.String("decision", xid.New().String()),
		slog.String("protocol", protocol),
		slog.String("module", "gate"),
	)
	return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Unauthorized"})
}

// extractToken reads the bearer token from the authorization header,
// falling back to the query parameter.
func extractToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("authorization")
	if authHeader != "" {
		split := strings.Split(authHeader, " ")
		if len(split) != 2 {
			return "", errors.Wrap(core.NewErrorMalformedEvent(), "invalid authorization header")
		}
		if split[0] != "Bearer" {
			return "", errors.Wrap(core.NewErrorMalformedEvent(), "only Bearer is acceptable")
		}
		return split[1], nil
	}

	token := c.QueryParam(TokenQueryParam)
	if token == "" {
		return "", errors.Wrap(core.NewErrorMalformedEvent(), "token missing from event")
	}

	return token, nil
}
