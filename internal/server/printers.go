package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/swe-students-fall2025/5-final-superfunteam/internal/printers"
)

type printerPayload struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
	Building *string `json:"building"`
	Floor    *string `json:"floor"`
}

type reportPayload struct {
	PrinterID  string `json:"printer_id"`
	EntityID   string `json:"entity_id"`
	Status     string `json:"status"`
	PaperLevel *int   `json:"paper_level"`
	TonerLevel *int   `json:"toner_level"`
	Comments   string `json:"comments"`
	ReportedBy string `json:"reported_by"`
}

func valueOf(field *string) string {
	if field == nil {
		return ""
	}
	return *field
}

func (h *httpHandler) handleListPrinters(c *gin.Context) {
	views, err := h.printers.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *httpHandler) handleGetPrinter(c *gin.Context) {
	detail, err := h.printers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *httpHandler) handleCreatePrinter(c *gin.Context) {
	var payload printerPayload
	if err := bindBody(c, &payload); err != nil {
		h.respondError(c, err)
		return
	}
	view, err := h.printers.Create(c.Request.Context(), printers.CreateInput{
		Name:     valueOf(payload.Name),
		Location: valueOf(payload.Location),
		Building: valueOf(payload.Building),
		Floor:    valueOf(payload.Floor),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *httpHandler) handleUpdatePrinter(c *gin.Context) {
	var payload printerPayload
	if err := bindBody(c, &payload); err != nil {
		h.respondError(c, err)
		return
	}
	view, err := h.printers.Update(c.Request.Context(), c.Param("id"), printers.Patch{
		Name:     payload.Name,
		Location: payload.Location,
		Building: payload.Building,
		Floor:    payload.Floor,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *httpHandler) handleDeletePrinter(c *gin.Context) {
	if err := h.printers.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) handleListReports(c *gin.Context) {
	limit, err := parseLimit(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	printerID, err := entityRef("printer_id", c.Query("printer_id"), c.Query("entity_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	reports, err := h.printers.ListReports(c.Request.Context(), printers.ReportFilter{PrinterID: printerID, Limit: limit})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reports)
}

func (h *httpHandler) handleSubmitReport(c *gin.Context) {
	var payload reportPayload
	if err := bindBody(c, &payload); err != nil {
		h.respondError(c, err)
		return
	}
	printerID, err := entityRef("printer_id", payload.PrinterID, payload.EntityID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	report, err := h.printers.SubmitReport(c.Request.Context(), printers.ReportInput{
		PrinterID:  printerID,
		Status:     payload.Status,
		PaperLevel: payload.PaperLevel,
		TonerLevel: payload.TonerLevel,
		Comments:   payload.Comments,
		ReportedBy: payload.ReportedBy,
	}, identityFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}
