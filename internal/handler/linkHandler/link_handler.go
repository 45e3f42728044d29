package linkHandler

import (
	"fmt"

	"fileinbox-service/internal/apperr"
	"fileinbox-service/internal/handler/request"
	"fileinbox-service/internal/handler/response"
	"fileinbox-service/internal/model/link"
	"fileinbox-service/internal/service/fileService"
	"fileinbox-service/internal/service/linkService"
	"fileinbox-service/internal/service/permissionService"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type LinkHandler struct {
	links *linkService.LinkService
	perms *permissionService.PermissionService
	files *fileService.FileService
}

func New(links *linkService.LinkService, perms *permissionService.PermissionService, files *fileService.FileService) *LinkHandler {
	return &LinkHandler{links: links, perms: perms, files: files}
}

type generateRequest struct {
	Type link.Type `json:"type" binding:"required"`
}

func (h *LinkHandler) Generate(c *gin.Context) {
	folderID, err := request.UUIDParam(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid folder id")
		return
	}
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	l, err := h.links.Generate(c.Request.Context(), request.Actor(c), folderID, req.Type)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Created(c, l)
}

func (h *LinkHandler) Unlink(c *gin.Context) {
	folderID, err := request.UUIDParam(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid folder id")
		return
	}
	if err := h.links.Unlink(c.Request.Context(), request.Actor(c), folderID); err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, nil)
}

type switchTypeRequest struct {
	Type link.Type `json:"type" binding:"required"`
}

func (h *LinkHandler) SwitchType(c *gin.Context) {
	linkID, err := request.UUIDParam(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid link id")
		return
	}
	var req switchTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	l, err := h.links.SwitchType(c.Request.Context(), request.Actor(c), linkID, req.Type)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, l)
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h *LinkHandler) AddPermission(c *gin.Context) {
	linkID, err := request.UUIDParam(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid link id")
		return
	}
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.perms.AddPermission(c.Request.Context(), request.Actor(c), linkID, req.Email); err != nil {
		response.Err(c, err)
		return
	}
	response.Created(c, nil)
}

func (h *LinkHandler) RemovePermission(c *gin.Context) {
	linkID, err := request.UUIDParam(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid link id")
		return
	}
	email := c.Param("email")
	if email == "" {
		response.BadRequest(c, "email required")
		return
	}
	if err := h.perms.RemovePermission(c.Request.Context(), request.Actor(c), linkID, email); err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *LinkHandler) ListPermissions(c *gin.Context) {
	linkID, err := request.UUIDParam(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid link id")
		return
	}
	perms, err := h.perms.ListPermissions(c.Request.Context(), request.Actor(c), linkID)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, perms)
}

// InitiatePromotion starts the editor promotion for an uploader. The code
// goes back to the owner, who relays it out of band; verification is the
// candidate's side.
func (h *LinkHandler) InitiatePromotion(c *gin.Context) {
	linkID, err := request.UUIDParam(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid link id")
		return
	}
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	code, err := h.perms.InitiatePromotion(c.Request.Context(), request.Actor(c), linkID, req.Email)
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Created(c, gin.H{"code": code})
}

type verifyRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

func (h *LinkHandler) VerifyPromotion(c *gin.Context) {
	linkID, err := request.UUIDParam(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid link id")
		return
	}
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.perms.VerifyPromotion(c.Request.Context(), linkID, req.Email, req.Code); err != nil {
		response.Err(c, err)
		return
	}
	response.OK(c, nil)
}

// Upload receives a multipart file through a link. The target defaults to
// the linked folder; a folder_id form field places the file into a subfolder
// of the same share.
func (h *LinkHandler) Upload(c *gin.Context) {
	linkID, err := request.UUIDParam(c, "id")
	if err != nil {
		response.BadRequest(c, "invalid link id")
		return
	}
	l, err := h.links.Get(c.Request.Context(), linkID)
	if err != nil {
		response.Err(c, err)
		return
	}

	folderID := l.FolderID
	if raw := c.PostForm("folder_id"); raw != "" {
		folderID, err = uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid folder_id")
			return
		}
		// The target must sit inside this link's share, not some other one.
		governing, err := h.perms.GoverningLinkOf(c.Request.Context(), folderID)
		if err != nil {
			response.Err(c, err)
			return
		}
		if governing == nil || governing.ID != l.ID {
			response.Err(c, fmt.Errorf("folder %s is outside link %s: %w", folderID, l.ID, apperr.ErrNotFound))
			return
		}
	}

	header, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file required")
		return
	}
	src, err := header.Open()
	if err != nil {
		response.BadRequest(c, "unreadable file")
		return
	}
	defer src.Close()

	result, err := h.files.Upload(c.Request.Context(), request.ClaimedActor(c), fileService.UploadInput{
		FolderID:    folderID,
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		SizeBytes:   header.Size,
		Reader:      src,
	})
	if err != nil {
		response.Err(c, err)
		return
	}
	response.Created(c, gin.H{
		"file":      result.File,
		"usage":     result.Usage,
		"warning80": result.Warning80,
		"warning90": result.Warning90,
	})
}
