package resource

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/clinrepo/clinrepo/internal/index/surrogate"
	"github.com/clinrepo/clinrepo/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(fhirGroup *echo.Group) {
	fhirGroup.PUT("/:type/:id", h.Write)
	fhirGroup.GET("/:type/:id", h.Read)
	fhirGroup.DELETE("/:type/:id", h.Delete)
	fhirGroup.GET("/:type/:id/_history", h.History)
	fhirGroup.GET("/:type/:id/_history/:vid", h.Vread)
}

// Write stores a new version of the resource along with its extracted search
// values, replacing the resource's index rows.
func (h *Handler) Write(c echo.Context) error {
	var req WriteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.Resource) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "resource body is required")
	}
	search, err := req.DecodeSearch()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	expectedVersion := 0
	if ifMatch := c.Request().Header.Get("If-Match"); ifMatch != "" {
		expectedVersion, err = ParseETag(ifMatch)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid If-Match header: "+err.Error())
		}
	}

	res, err := h.svc.Upsert(c.Request().Context(),
		c.Param("type"), c.Param("id"), req.Resource, search, expectedVersion)
	switch {
	case errors.Is(err, ErrVersionConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, surrogate.ErrStoreUnavailable):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	status := http.StatusOK
	if res.VersionID == 1 {
		status = http.StatusCreated
	}
	c.Response().Header().Set("ETag", FormatETag(res.VersionID))
	return c.JSON(status, res)
}

// Read returns the current snapshot. Soft-deleted resources answer 410 Gone.
func (h *Handler) Read(c echo.Context) error {
	res, err := h.svc.Get(c.Request().Context(), c.Param("type"), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "resource not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if res.Deleted {
		c.Response().Header().Set("ETag", FormatETag(res.VersionID))
		return echo.NewHTTPError(http.StatusGone, "resource deleted")
	}

	if ifNoneMatch := c.Request().Header.Get("If-None-Match"); ifNoneMatch != "" {
		if v, err := ParseETag(ifNoneMatch); err == nil && v == res.VersionID {
			return c.NoContent(http.StatusNotModified)
		}
	}

	c.Response().Header().Set("ETag", FormatETag(res.VersionID))
	c.Response().Header().Set("Last-Modified", res.UpdatedAt.UTC().Format(http.TimeFormat))
	return c.JSON(http.StatusOK, res)
}

// Delete soft-deletes the resource and clears its index rows.
func (h *Handler) Delete(c echo.Context) error {
	err := h.svc.Delete(c.Request().Context(), c.Param("type"), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "resource not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// History lists the resource's versions, newest first.
func (h *Handler) History(c echo.Context) error {
	pg := pagination.FromContext(c)
	entries, total, err := h.svc.History(c.Request().Context(),
		c.Param("type"), c.Param("id"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, pg.Limit, pg.Offset))
}

// Vread returns one historical version of the resource.
func (h *Handler) Vread(c echo.Context) error {
	vid, err := strconv.Atoi(c.Param("vid"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid version id")
	}
	entry, err := h.svc.GetVersion(c.Request().Context(), c.Param("type"), c.Param("id"), vid)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "version not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	c.Response().Header().Set("ETag", FormatETag(entry.VersionID))
	return c.JSON(http.StatusOK, entry)
}
