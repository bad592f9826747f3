package http

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tripfolio/api/internal/service"
	"github.com/tripfolio/api/internal/util"
)

type ActivityHandler struct {
	activities *service.ActivityService
}

func RegisterActivities(e *echo.Echo, activitySvc *service.ActivityService) {
	handler := &ActivityHandler{activities: activitySvc}

	group := e.Group("/api/v1/trips/:id/activities")
	group.POST("", handler.createActivity)
	group.PUT("/:activityID", handler.updateActivity)
	group.DELETE("/:activityID", handler.deleteActivity)

	e.GET("/api/v1/trips/:id/attachments/url", handler.attachmentURL)
}

func (h *ActivityHandler) createActivity(c echo.Context) error {
	input, err := readActivityInput(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	}

	trip, err := h.activities.CreateActivity(c.Request().Context(), c.Param("id"), *input)
	if err != nil {
		return writeTripError(c, err)
	}
	return c.JSON(http.StatusCreated, util.Data("trip", trip))
}

func (h *ActivityHandler) updateActivity(c echo.Context) error {
	input, err := readActivityInput(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error(err.Error()))
	}

	trip, err := h.activities.UpdateActivity(c.Request().Context(), c.Param("id"), c.Param("activityID"), *input)
	if err != nil {
		return writeTripError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data("trip", trip))
}

func (h *ActivityHandler) deleteActivity(c echo.Context) error {
	trip, err := h.activities.DeleteActivity(c.Request().Context(), c.Param("id"), c.Param("activityID"))
	if err != nil {
		return writeTripError(c, err)
	}
	return c.JSON(http.StatusOK, util.Data("trip", trip))
}

func (h *ActivityHandler) attachmentURL(c echo.Context) error {
	key := strings.TrimSpace(c.QueryParam("key"))
	if key == "" {
		return c.JSON(http.StatusBadRequest, util.Error("key query parameter is required"))
	}

	url, err := h.activities.AttachmentURL(c.Request().Context(), c.Param("id"), key)
	if err != nil {
		return writeTripError(c, err)
	}
	return c.JSON(http.StatusOK, util.Envelope{"url": url})
}

// readActivityInput accepts both JSON bodies and multipart forms; only the
// latter can carry attachments.
func readActivityInput(c echo.Context) (*service.ActivityInput, error) {
	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if !strings.HasPrefix(strings.ToLower(contentType), "multipart/form-data") {
		var req struct {
			Name                 string   `json:"name"`
			Description          *string  `json:"description"`
			Date                 string   `json:"date"`
			StartTime            *string  `json:"start_time"`
			EndTime              *string  `json:"end_time"`
			Address              *string  `json:"address"`
			URLs                 []string `json:"urls"`
			RemoveAttachmentKeys []string `json:"remove_attachment_keys"`
		}
		if err := c.Bind(&req); err != nil {
			return nil, err
		}
		return &service.ActivityInput{
			Name:                 req.Name,
			Description:          req.Description,
			Date:                 req.Date,
			StartTime:            req.StartTime,
			EndTime:              req.EndTime,
			Address:              req.Address,
			URLs:                 req.URLs,
			RemoveAttachmentKeys: req.RemoveAttachmentKeys,
		}, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}

	input := &service.ActivityInput{
		Name:                 c.FormValue("name"),
		Description:          optionalFormValue(c, "description"),
		Date:                 c.FormValue("date"),
		StartTime:            optionalFormValue(c, "start_time"),
		EndTime:              optionalFormValue(c, "end_time"),
		Address:              optionalFormValue(c, "address"),
		URLs:                 form.Value["urls"],
		RemoveAttachmentKeys: form.Value["remove_attachment_keys"],
	}

	for _, fh := range form.File["attachments"] {
		data, err := readMultipartFile(fh)
		if err != nil {
			return nil, err
		}
		input.Attachments = append(input.Attachments, service.AttachmentUpload{
			Reader:      bytes.NewReader(data),
			Size:        int64(len(data)),
			FileName:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
		})
	}
	return input, nil
}

func optionalFormValue(c echo.Context, name string) *string {
	value := c.FormValue(name)
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}
