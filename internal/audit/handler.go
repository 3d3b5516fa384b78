package audit

import (
	"strconv"

	"food-dashboard/internal/models"

	"github.com/gofiber/fiber/v2"
)

const defaultListLimit = 50

// RequestIDKey is the Locals key the requestid middleware writes to.
const RequestIDKey = "requestid"

// RequestID correlates audit entries with the request log line.
func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(RequestIDKey).(string)
	return id
}

type AuditLogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"created_at"`
	RequestID   string             `json:"request_id"`
	Table       string             `json:"table"`
	Position    int                `json:"position"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
}

func ToResponse(l models.AuditLog) AuditLogResponse {
	return AuditLogResponse{
		ID:          l.ID,
		CreatedAt:   l.CreatedAt.Format("2006-01-02 15:04:05"),
		RequestID:   l.RequestID,
		Table:       l.RecordTable,
		Position:    l.Position,
		Action:      l.Action,
		Description: l.Description,
	}
}

// GET /api/audit-logs?table=waste_log&limit=20
func ListAuditLogsHandler(rec Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := defaultListLimit
		if s := c.Query("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 500 {
				return fiber.NewError(fiber.StatusBadRequest, "limit must be between 1 and 500")
			}
			limit = n
		}

		logs, err := rec.Recent(c.UserContext(), c.Query("table"), limit)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "audit logs could not be listed")
		}

		resp := make([]AuditLogResponse, 0, len(logs))
		for _, l := range logs {
			resp = append(resp, ToResponse(l))
		}
		return c.JSON(resp)
	}
}
