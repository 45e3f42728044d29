package fileHandler

import (
	"fileinbox-service/internal/handler/request"
	"fileinbox-service/internal/handler/response"
	"fileinbox-service/internal/service/fileService"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type FileHandler struct {
	files *fileService.FileService
}

func New(files *fileService.FileService) *FileHandler {
	return &FileHandler{files: files}
}

type renameRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *FileHandler) Rename(c *gin.Context) {
	fileID, err := request.UUIDParam(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid file id")
		return
	}
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	f, err := h.files.Rename(c.Request.Context(), request.ClaimedActor(c), fileID, req.Name)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, f)
}

type moveRequest struct {
	FolderID *uuid.UUID `json:"folder_id"`
}

func (h *FileHandler) Move(c *gin.Context) {
	fileID, err := request.UUIDParam(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid file id")
		return
	}
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	f, err := h.files.Move(c.Request.Context(), request.ClaimedActor(c), fileID, req.FolderID)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, f)
}

func (h *FileHandler) Delete(c *gin.Context) {
	fileID, err := request.UUIDParam(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid file id")
		return
	}
	if err := h.files.Delete(c.Request.Context(), request.ClaimedActor(c), fileID); err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, nil)
}

// SignedURL hands out a presigned, expiring download URL instead of proxying
// bytes through the API.
func (h *FileHandler) SignedURL(c *gin.Context) {
	fileID, err := request.UUIDParam(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid file id")
		return
	}
	u, err := h.files.SignedDownloadURL(c.Request.Context(), request.ClaimedActor(c), fileID)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, gin.H{"url": u})
}

// ByEmail is the owner's attribution view over uploads from one email.
func (h *FileHandler) ByEmail(c *gin.Context) {
	workspaceID, err := uuid.Parse(c.Query("workspace_id"))
	if err != nil {
		response.BadRequest(c, "invalid workspace_id")
		return
	}
	email := c.Query("email")
	if email == "" {
		response.BadRequest(c, "email required")
		return
	}
	folderID, err := request.OptionalUUIDQuery(c, "folder_id")
	if err != nil {
		response.BadRequest(c, "invalid folder_id")
		return
	}
	files, err := h.files.FilesByEmail(c.Request.Context(), request.Actor(c), workspaceID, email, folderID)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, files)
}
