package workspaceHandler

import (
	"fileinbox-service/internal/handler/request"
	"fileinbox-service/internal/handler/response"
	"fileinbox-service/internal/service/quotaService"
	"fileinbox-service/internal/service/workspaceService"
	"fileinbox-service/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type WorkspaceHandler struct {
	workspaces *workspaceService.WorkspaceService
	quota      *quotaService.QuotaService
}

func New(workspaces *workspaceService.WorkspaceService, quota *quotaService.QuotaService) *WorkspaceHandler {
	return &WorkspaceHandler{workspaces: workspaces, quota: quota}
}

// Provision records the authenticated user and returns their workspace,
// creating it on first call.
func (h *WorkspaceHandler) Provision(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.BadRequest(c, "session required")
		return
	}
	ws, err := h.workspaces.Provision(c.Request.Context(), userID, middleware.UserEmail(c))
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Created(c, ws)
}

func (h *WorkspaceHandler) Usage(c *gin.Context) {
	workspaceID, err := uuid.Parse(c.Query("workspace_id"))
	if err != nil {
		response.BadRequest(c, "invalid workspace_id")
		return
	}
	if _, err := h.workspaces.Get(c.Request.Context(), request.Actor(c), workspaceID); err != nil {
		response.Err(c, err)
		return
	}
	usage, err := h.quota.Usage(c.Request.Context(), workspaceID)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, usage)
}

// Recompute reconciles the usage counter against the stored files.
func (h *WorkspaceHandler) Recompute(c *gin.Context) {
	workspaceID, err := uuid.Parse(c.Query("workspace_id"))
	if err != nil {
		response.BadRequest(c, "invalid workspace_id")
		return
	}
	if _, err := h.workspaces.Get(c.Request.Context(), request.Actor(c), workspaceID); err != nil {
		response.Err(c, err)
		return
	}
	used, err := h.quota.Recompute(c.Request.Context(), workspaceID)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, gin.H{"used_bytes": used})
}
