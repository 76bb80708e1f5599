package jobs

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"devisportal/internal/middleware"
	"devisportal/internal/pkg/response"
)

type QueueStatus struct {
	Queue     string `json:"queue"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Retry     int    `json:"retry"`
	Archived  int    `json:"archived"`
	Processed int    `json:"processed_today"`
	Failed    int    `json:"failed_today"`
}

// QueueInspector is the slice of *asynq.Inspector the handler reads.
type QueueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// Handler reports queue depth to admins.
type Handler struct {
	inspector QueueInspector
	loggerf   func(format string, args ...interface{})
}

func NewHandler(inspector QueueInspector, loggerf func(format string, args ...interface{})) *Handler {
	if loggerf == nil {
		loggerf = func(string, ...interface{}) {}
	}
	return &Handler{inspector: inspector, loggerf: loggerf}
}

// Health handles GET /api/admin/jobs/
func (h *Handler) Health(c *gin.Context) {
	info, err := h.inspector.GetQueueInfo(QueueDefault)
	if err != nil {
		h.loggerf("level=warn msg=\"queue inspect failed\" err=%v", err)
		response.Error(c, http.StatusServiceUnavailable, "QUEUE_UNAVAILABLE", "Job queue unavailable")
		return
	}
	response.JSON(c, http.StatusOK, QueueStatus{
		Queue:     info.Queue,
		Pending:   info.Pending,
		Active:    info.Active,
		Retry:     info.Retry,
		Archived:  info.Archived,
		Processed: info.Processed,
		Failed:    info.Failed,
	})
}

// RegisterRoutes expects rg to be behind JWTAuth.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/admin/jobs/", middleware.AdminOnly(), h.Health)
}
