package turns

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/turns/request", h.RequestTurn)
	api.PUT("/turns/:id/status", h.UpdateStatus)
	api.GET("/turns/:id", h.GetTurn)
	api.GET("/pharmacy/:id/turns", h.ListToday)
}

type requestTurnBody struct {
	PharmacyID   int64   `json:"pharmacy_id"`
	UserID       *int64  `json:"user_id,omitempty"`
	UserName     string  `json:"user_name"`
	UserDocument *string `json:"user_document,omitempty"`
}

func (h *Handler) RequestTurn(c echo.Context) error {
	var body requestTurnBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if body.PharmacyID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "pharmacy_id is required")
	}
	if body.UserName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_name is required")
	}

	turn, err := h.svc.RequestTurn(c.Request().Context(), AllocateRequest{
		PharmacyID:   body.PharmacyID,
		UserID:       body.UserID,
		UserName:     body.UserName,
		UserDocument: body.UserDocument,
	})
	if err != nil {
		return turnError(err)
	}
	return c.JSON(http.StatusCreated, turn)
}

type updateStatusBody struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body updateStatusBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	turn, err := h.svc.UpdateStatus(c.Request().Context(), id, body.Status)
	if err != nil {
		return turnError(err)
	}
	return c.JSON(http.StatusOK, turn)
}

func (h *Handler) GetTurn(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	turn, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return turnError(err)
	}
	return c.JSON(http.StatusOK, turn)
}

func (h *Handler) ListToday(c echo.Context) error {
	pharmacyID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid pharmacy id")
	}
	turns, err := h.svc.ListToday(c.Request().Context(), pharmacyID)
	if err != nil {
		return turnError(err)
	}
	if turns == nil {
		turns = []*Turn{}
	}
	return c.JSON(http.StatusOK, turns)
}

// turnError maps domain errors onto HTTP status codes.
func turnError(err error) error {
	switch {
	case errors.Is(err, ErrPharmacyNotFound), errors.Is(err, ErrTurnNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrCapacityExceeded), errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
