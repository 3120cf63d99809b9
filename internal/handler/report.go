package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/middleware"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/model"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/service"
)

type ReportHandler struct {
	svc *service.ReportService
}

func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// Review handles PATCH /api/admin/reports/:id/review
func (h *ReportHandler) Review(c fiber.Ctx) error {
	reportID, errMsg := middleware.ValidateReportID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	moderator, ok := middleware.ActorFrom(c)
	if !ok {
		return writeError(c, model.ErrUnauthorized, "")
	}

	var req model.ReviewRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if req.ReviewStatus == "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "MISSING_FIELDS", "reviewStatus is required")
	}

	resp, err := h.svc.ReviewReport(c.Context(), reportID, moderator, req.ReviewStatus)
	if err != nil {
		return writeError(c, err, "Failed to review report")
	}
	return c.JSON(resp)
}
