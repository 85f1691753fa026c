package inventory

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/farmaconnect/farmaconnect/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/pharmacy/:id/inventory", h.GetInventory)
	api.GET("/pharmacy/:id/transactions", h.ListTransactions)
	api.POST("/inventory/update", h.Dispense)
	api.POST("/inventory/restock", h.Restock)
	api.POST("/inventory/adjust", h.Adjust)
	api.PUT("/inventory/items", h.UpsertItem)
}

func (h *Handler) GetInventory(c echo.Context) error {
	pharmacyID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid pharmacy id")
	}
	views, err := h.svc.GetInventory(c.Request().Context(), pharmacyID)
	if err != nil {
		return inventoryError(err)
	}
	if views == nil {
		views = []*View{}
	}
	return c.JSON(http.StatusOK, views)
}

// dispenseBody mirrors the scan-at-the-counter payload: scan_code is the
// medication code read off the package.
type dispenseBody struct {
	PharmacyID        int64   `json:"pharmacy_id"`
	ScanCode          string  `json:"scan_code"`
	QuantityDispensed int     `json:"quantity_dispensed"`
	BatchNumber       *string `json:"batch_number,omitempty"`
	OperatorID        *string `json:"operator_id,omitempty"`
}

func (h *Handler) Dispense(c echo.Context) error {
	var body dispenseBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if body.PharmacyID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "pharmacy_id is required")
	}
	if body.ScanCode == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "scan_code is required")
	}
	if body.QuantityDispensed <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "quantity_dispensed must be positive")
	}

	err := h.svc.Dispense(c.Request().Context(), DispenseRequest{
		PharmacyID:     body.PharmacyID,
		MedicationCode: body.ScanCode,
		Quantity:       body.QuantityDispensed,
		BatchNumber:    body.BatchNumber,
		OperatorID:     body.OperatorID,
	})
	if err != nil {
		return inventoryError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "dispensed"})
}

type restockBody struct {
	PharmacyID  int64   `json:"pharmacy_id"`
	ScanCode    string  `json:"scan_code"`
	Quantity    int     `json:"quantity"`
	BatchNumber *string `json:"batch_number,omitempty"`
	OperatorID  *string `json:"operator_id,omitempty"`
}

func (h *Handler) Restock(c echo.Context) error {
	var body restockBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if body.PharmacyID <= 0 || body.ScanCode == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "pharmacy_id and scan_code are required")
	}
	if body.Quantity <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "quantity must be positive")
	}

	err := h.svc.Restock(c.Request().Context(), DispenseRequest{
		PharmacyID:     body.PharmacyID,
		MedicationCode: body.ScanCode,
		Quantity:       body.Quantity,
		BatchNumber:    body.BatchNumber,
		OperatorID:     body.OperatorID,
	})
	if err != nil {
		return inventoryError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "restocked"})
}

type adjustBody struct {
	PharmacyID int64   `json:"pharmacy_id"`
	ScanCode   string  `json:"scan_code"`
	Delta      int     `json:"delta"`
	OperatorID *string `json:"operator_id,omitempty"`
}

func (h *Handler) Adjust(c echo.Context) error {
	var body adjustBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if body.PharmacyID <= 0 || body.ScanCode == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "pharmacy_id and scan_code are required")
	}
	if body.Delta == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "delta must be non-zero")
	}

	err := h.svc.Adjust(c.Request().Context(), body.PharmacyID, body.ScanCode, body.Delta, body.OperatorID)
	if err != nil {
		return inventoryError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "adjusted"})
}

func (h *Handler) UpsertItem(c echo.Context) error {
	var item Item
	if err := c.Bind(&item); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if item.PharmacyID <= 0 || item.MedicationCode == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "pharmacy_id and medication_code are required")
	}
	if err := h.svc.UpsertItem(c.Request().Context(), &item); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, item)
}

func (h *Handler) ListTransactions(c echo.Context) error {
	pharmacyID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid pharmacy id")
	}
	pg := pagination.FromContext(c)

	txns, total, err := h.svc.ListTransactions(c.Request().Context(), pharmacyID, pg.Limit, pg.Offset)
	if err != nil {
		return inventoryError(err)
	}
	if txns == nil {
		txns = []*Transaction{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(txns, total, pg.Limit, pg.Offset))
}

// inventoryError maps domain errors onto HTTP status codes.
func inventoryError(err error) error {
	switch {
	case errors.Is(err, ErrInventoryNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInsufficientStock):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
