package group

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gatewarden/gatewarden/core"
)

// Handler is the interface for handling HTTP requests
type Handler interface {
	Get(c echo.Context) error
	List(c echo.Context) error
	Upsert(c echo.Context) error
	Delete(c echo.Context) error
}

type handler struct {
	service core.GroupService
}

// NewHandler creates a new handler
func NewHandler(service core.GroupService) Handler {
	return &handler{service}
}

// Get returns one group policy record
func (h *handler) Get(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Group.Handler.Get")
	defer span.End()

	record, err := h.service.Get(ctx, c.Param("id"))
	if err != nil {
		span.RecordError(err)
		var notFound core.ErrorNotFound
		if errors.As(err, &notFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Not Found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{"content": record})
}

// List returns all group policy records
func (h *handler) List(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Group.Handler.List")
	defer span.End()

	records, err := h.service.List(ctx)
	if err != nil {
		span.RecordError(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{"content": records})
}

// Upsert creates or replaces a group policy record
func (h *handler) Upsert(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Group.Handler.Upsert")
	defer span.End()

	var request core.GroupPolicyRecord
	err := c.Bind(&request)
	if err != nil {
		span.RecordError(err)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	request.GroupID = c.Param("id")

	created, err := h.service.Upsert(ctx, request)
	if err != nil {
		span.RecordError(err)
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{"content": created})
}

// Delete removes a group policy record
func (h *handler) Delete(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "Group.Handler.Delete")
	defer span.End()

	err := h.service.Delete(ctx, c.Param("id"))
	if err != nil {
		span.RecordError(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, echo.Map{"content": "deleted"})
}
