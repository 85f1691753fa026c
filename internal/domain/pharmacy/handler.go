package pharmacy

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
	api.GET("/pharmacies", h.ListPharmacies)
	api.POST("/pharmacies", h.CreatePharmacy)
	api.GET("/pharmacies/:id", h.GetPharmacy)

	api.GET("/medications", h.ListMedications)
	api.POST("/medications", h.CreateMedication)
}

func (h *Handler) ListPharmacies(c echo.Context) error {
	pharmacies, err := h.svc.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if pharmacies == nil {
		pharmacies = []*Pharmacy{}
	}
	return c.JSON(http.StatusOK, pharmacies)
}

func (h *Handler) CreatePharmacy(c echo.Context) error {
	var p Pharmacy
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPharmacy(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrPharmacyNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "pharmacy not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListMedications(c echo.Context) error {
	meds, err := h.svc.ListMedications(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if meds == nil {
		meds = []*Medication{}
	}
	return c.JSON(http.StatusOK, meds)
}

func (h *Handler) CreateMedication(c echo.Context) error {
	var m Medication
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateMedication(c.Request().Context(), &m); err != nil {
		if errors.Is(err, ErrDuplicateMedication) {
			return echo.NewHTTPError(http.StatusConflict, "medication code already exists")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, m)
}
