package http

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tripfolio/api/internal/extract"
	"github.com/tripfolio/api/internal/service"
	"github.com/tripfolio/api/internal/util"
)

type TripFeatures struct {
	Delete bool
	Share  bool
}

type TripHandler struct {
	trips    *service.TripService
	share    *service.ShareService
	features TripFeatures
}

func RegisterTrips(e *echo.Echo, tripSvc *service.TripService, shareSvc *service.ShareService, features TripFeatures) {
	handler := &TripHandler{trips: tripSvc, share: shareSvc, features: features}

	group := e.Group("/api/v1/trips")
	group.POST("", handler.createTrip)
	group.GET("", handler.listTrips)
	group.GET("/:id", handler.getTrip)
	group.PATCH("/:id", handler.renameTrip)
	group.DELETE("/:id", handler.deleteTrip)
	group.POST("/:id/bookings", handler.addBooking)
	group.GET("/:id/timeline", handler.timeline)

	if features.Share {
		group.POST("/:id/share", handler.createShareLink)
		e.GET("/api/v1/shared/:token/timeline", handler.sharedTimeline)
	}
}

func (h *TripHandler) createTrip(c echo.Context) error {
	docs, err := readDocuments(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	}

	trip, err := h.trips.CreateTrip(c.Request().Context(), docs)
	if err != nil {
		return writeTripError(c, err)
	}
	return c.JSON(http.StatusCreated, util.Data("trip", trip))
}

func (h *TripHandler) listTrips(c echo.Context) error {
	trips, err := h.trips.ListTrips(c.Request().Context())
	if err != nil {
		return writeTripError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data("trips", trips))
}

func (h *TripHandler) getTrip(c echo.Context) error {
	trip, err := h.trips.GetTrip(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeTripError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data("trip", trip))
}

func (h *TripHandler) renameTrip(c echo.Context) error {
	var req struct {
		Title map[string]string `json:"title"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}

	if err := h.trips.RenameTrip(c.Request().Context(), c.Param("id"), req.Title); err != nil {
		return writeTripError(c, err)
	}
	return c.JSON(http.StatusOK, util.Envelope{"renamed": true})
}

func (h *TripHandler) deleteTrip(c echo.Context) error {
	if !h.features.Delete {
		return c.JSON(http.StatusForbidden, util.Error("trip deletion disabled"))
	}
	if err := h.trips.DeleteTrip(c.Request().Context(), c.Param("id")); err != nil {
		return writeTripError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *TripHandler) addBooking(c echo.Context) error {
	docs, err := readDocuments(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	}

	result, err := h.trips.AddBooking(c.Request().Context(), c.Param("id"), docs)
	if err != nil {
		return writeTripError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data("result", result))
}

func (h *TripHandler) timeline(c echo.Context) error {
	categories := splitCSVParam(c.QueryParam("categories"))
	query := c.QueryParam("q")

	tl, err := h.trips.Timeline(c.Request().Context(), c.Param("id"), categories, query)
	if err != nil {
		return writeTripError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data("timeline", tl))
}

func (h *TripHandler) createShareLink(c echo.Context) error {
	token, expiresAt, err := h.share.CreateShareLink(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeTripError(c, err)
	}
	return c.JSON(http.StatusCreated, util.Envelope{
		"token":      token,
		"expires_at": expiresAt,
	})
}

func (h *TripHandler) sharedTimeline(c echo.Context) error {
	trip, err := h.share.ResolveShareToken(c.Request().Context(), c.Param("token"))
	if err != nil {
		return writeTripError(c, err)
	}

	categories := splitCSVParam(c.QueryParam("categories"))
	tl := service.FilteredTimeline(trip, categories, c.QueryParam("q"))
	return c.JSON(http.StatusOK, util.Data("timeline", tl))
}

// readDocuments pulls the uploaded files out of the multipart form. An
// optional type_hint field applies to every file in the request.
func readDocuments(c echo.Context) ([]service.DocumentUpload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, errors.New("expected multipart form with documents")
	}

	files := form.File["documents"]
	if len(files) == 0 {
		return nil, errors.New("at least one document is required")
	}

	hint := extract.DocumentHint(strings.TrimSpace(c.FormValue("type_hint")))

	docs := make([]service.DocumentUpload, 0, len(files))
	for _, fh := range files {
		data, err := readMultipartFile(fh)
		if err != nil {
			return nil, err
		}
		docs = append(docs, service.DocumentUpload{
			FileName:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
			TypeHint:    hint,
		})
	}
	return docs, nil
}

func readMultipartFile(fh *multipart.FileHeader) ([]byte, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return io.ReadAll(src)
}

func splitCSVParam(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func writeTripError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrTripValidation), errors.Is(err, service.ErrActivityValidation):
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	case errors.Is(err, service.ErrTripNotFound), errors.Is(err, service.ErrActivityNotFound):
		return c.JSON(http.StatusNotFound, util.Error(err.Error()))
	case errors.Is(err, service.ErrNoUsableDocuments):
		return c.JSON(http.StatusUnprocessableEntity, util.Error(err.Error()))
	case errors.Is(err, service.ErrTripConflict):
		return c.JSON(http.StatusConflict, util.Error(err.Error()))
	case errors.Is(err, service.ErrShareTokenInvalid):
		return c.JSON(http.StatusUnauthorized, util.Error(err.Error()))
	default:
		c.Logger().Errorf("trip handler: %v", err)
		return c.JSON(http.StatusInternalServerError, util.Error("internal error"))
	}
}
