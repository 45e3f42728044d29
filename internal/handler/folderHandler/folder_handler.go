package folderHandler

import (
	"fileinbox-service/internal/handler/request"
	"fileinbox-service/internal/handler/response"
	"fileinbox-service/internal/service/fileService"
	"fileinbox-service/internal/service/folderService"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type FolderHandler struct {
	folders *folderService.FolderService
	files   *fileService.FileService
}

func New(folders *folderService.FolderService, files *fileService.FileService) *FolderHandler {
	return &FolderHandler{folders: folders, files: files}
}

type createFolderRequest struct {
	WorkspaceID uuid.UUID  `json:"workspace_id" binding:"required"`
	ParentID    *uuid.UUID `json:"parent_id"`
	Name        string     `json:"name" binding:"required"`
}

func (h *FolderHandler) Create(c *gin.Context) {
	var req createFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	f, err := h.folders.Create(c.Request.Context(), request.ClaimedActor(c), req.WorkspaceID, req.ParentID, req.Name)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Created(c, f)
}

type renameRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *FolderHandler) Rename(c *gin.Context) {
	folderID, err := request.UUIDParam(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid folder id")
		return
	}
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	f, err := h.folders.Rename(c.Request.Context(), request.ClaimedActor(c), folderID, req.Name)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, f)
}

type moveRequest struct {
	ParentID *uuid.UUID `json:"parent_id"`
}

func (h *FolderHandler) Move(c *gin.Context) {
	folderID, err := request.UUIDParam(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid folder id")
		return
	}
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	f, err := h.folders.Move(c.Request.Context(), request.ClaimedActor(c), folderID, req.ParentID)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, f)
}

func (h *FolderHandler) Delete(c *gin.Context) {
	folderID, err := request.UUIDParam(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid folder id")
		return
	}
	report, err := h.folders.Delete(c.Request.Context(), request.ClaimedActor(c), folderID)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, report)
}

func (h *FolderHandler) Subtree(c *gin.Context) {
	folderID, err := request.UUIDParam(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid folder id")
		return
	}
	subtree, err := h.folders.Subtree(c.Request.Context(), request.ClaimedActor(c), folderID)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, subtree)
}

// List returns the children of parent_id, or the workspace roots when the
// parameter is absent.
func (h *FolderHandler) List(c *gin.Context) {
	workspaceID, err := uuid.Parse(c.Query("workspace_id"))
	if err != nil {
		response.BadRequest(c, "invalid workspace_id")
		return
	}
	parentID, err := request.OptionalUUIDQuery(c, "parent_id")
	if err != nil {
		response.BadRequest(c, "invalid parent_id")
		return
	}
	folders, err := h.folders.ListChildren(c.Request.Context(), request.ClaimedActor(c), workspaceID, parentID)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, folders)
}

// Counts is the dashboard aggregation: files, subfolders and distinct
// uploaders per folder of the workspace.
func (h *FolderHandler) Counts(c *gin.Context) {
	workspaceID, err := uuid.Parse(c.Query("workspace_id"))
	if err != nil {
		response.BadRequest(c, "invalid workspace_id")
		return
	}
	counts, err := h.files.FolderCounts(c.Request.Context(), request.Actor(c), workspaceID)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, counts)
}

func (h *FolderHandler) Uploaders(c *gin.Context) {
	folderID, err := request.UUIDParam(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid folder id")
		return
	}
	emails, err := h.files.UniqueUploaders(c.Request.Context(), request.Actor(c), folderID)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, emails)
}

func (h *FolderHandler) Files(c *gin.Context) {
	folderID, err := request.UUIDParam(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid folder id")
		return
	}
	workspaceID, err := uuid.Parse(c.Query("workspace_id"))
	if err != nil {
		response.BadRequest(c, "invalid workspace_id")
		return
	}
	files, err := h.files.ListFolder(c.Request.Context(), request.ClaimedActor(c), workspaceID, &folderID)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, files)
}
