package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/middleware"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/model"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/service"
)

type StationHandler struct {
	verifications *service.VerificationService
	status        *service.StatusService
	score         *service.ScoreService
	reports       *service.ReportService
}

func NewStationHandler(verifications *service.VerificationService, status *service.StatusService, score *service.ScoreService, reports *service.ReportService) *StationHandler {
	return &StationHandler{
		verifications: verifications,
		status:        status,
		score:         score,
		reports:       reports,
	}
}

// Summary handles GET /api/stations/:id/verification-summary
func (h *StationHandler) Summary(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateStationID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	summary, err := h.verifications.Summarize(c.Context(), id)
	if err != nil {
		return writeError(c, err, "Failed to load verification summary")
	}
	return c.JSON(summary)
}

// History handles GET /api/stations/:id/verification-history?limit=N
func (h *StationHandler) History(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateStationID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n < 1 {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "limit must be a positive integer")
		}
		limit = n
	}
	entries, err := h.verifications.History(c.Context(), id, limit)
	if err != nil {
		return writeError(c, err, "Failed to load verification history")
	}
	return c.JSON(entries)
}

// Status handles GET /api/stations/:id/status
func (h *StationHandler) Status(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateStationID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	resp, err := h.status.Status(c.Context(), id)
	if err != nil {
		return writeError(c, err, "Failed to resolve station status")
	}
	return c.JSON(resp)
}

// TrustScore handles GET /api/stations/:id/trust-score
func (h *StationHandler) TrustScore(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateStationID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	score, err := h.score.ComputeScore(c.Context(), id)
	if err != nil {
		return writeError(c, err, "Failed to compute trust score")
	}
	return c.JSON(score)
}

// Verify handles POST /api/stations/:id/verify
func (h *StationHandler) Verify(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateStationID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return writeError(c, model.ErrUnauthorized, "")
	}

	var req model.VerifyRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if req.Vote == "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "MISSING_FIELDS", "vote is required")
	}

	resp, err := h.verifications.RecordVote(c.Context(), id, actor, req.Vote)
	if err != nil {
		return writeError(c, err, "Failed to record vote")
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Report handles POST /api/stations/:id/reports. Anonymous reports are
// accepted.
func (h *StationHandler) Report(c fiber.Ctx) error {
	id, errMsg := middleware.ValidateStationID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	var req model.ReportRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if req.Reason == "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "MISSING_FIELDS", "reason is required")
	}

	var actor *model.Actor
	if a, ok := middleware.ActorFrom(c); ok {
		actor = &a
	}
	rep, err := h.reports.CreateReport(c.Context(), id, actor, req.Reason, req.Details)
	if err != nil {
		return writeError(c, err, "Failed to create report")
	}
	return c.Status(fiber.StatusCreated).JSON(rep)
}
