package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/coursehub-backend/internal/http/response"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
	"github.com/yungbote/coursehub-backend/internal/services"
)

// multipart bodies may exceed the material limit by this much before being cut off
const multipartOverhead = 1 << 20

type ClassroomHandler struct {
	log              *logger.Logger
	classroomService services.ClassroomService
	maxUploadBytes   int64
}

func NewClassroomHandler(log *logger.Logger, classroomService services.ClassroomService, maxUploadBytes int64) *ClassroomHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 50 << 20
	}
	return &ClassroomHandler{
		log:              log.With("handler", "ClassroomHandler"),
		classroomService: classroomService,
		maxUploadBytes:   maxUploadBytes,
	}
}

// POST /v1/classrooms
func (ch *ClassroomHandler) Create(c *gin.Context) {
	var in services.ClassroomInput
	if !bindJSON(c, &in) {
		return
	}
	room, err := ch.classroomService.Create(c.Request.Context(), in)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"classroom": room})
}

// GET /v1/classrooms
func (ch *ClassroomHandler) ListMine(c *gin.Context) {
	page, err := ch.classroomService.ListMine(reqCtx(c), pageQuery(c))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, page)
}

// GET /v1/classrooms/:id
func (ch *ClassroomHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	room, err := ch.classroomService.Get(reqCtx(c), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"classroom": room})
}

// PATCH /v1/classrooms/:id
func (ch *ClassroomHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var in services.ClassroomInput
	if !bindJSON(c, &in) {
		return
	}
	room, err := ch.classroomService.Update(c.Request.Context(), id, in)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"classroom": room})
}

// DELETE /v1/classrooms/:id
func (ch *ClassroomHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := ch.classroomService.Delete(c.Request.Context(), id); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondNoContent(c)
}

// POST /v1/classrooms/join
// body: { "code": "..." }
func (ch *ClassroomHandler) Join(c *gin.Context) {
	var req struct {
		Code string `json:"code"`
	}
	if !bindJSON(c, &req) {
		return
	}
	member, err := ch.classroomService.Join(c.Request.Context(), req.Code)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"member": member})
}

// POST /v1/classrooms/:id/members
// body: { "user_id", "role" }
func (ch *ClassroomHandler) AddMember(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		UserID uuid.UUID `json:"user_id"`
		Role   string    `json:"role"`
	}
	if !bindJSON(c, &req) {
		return
	}
	member, err := ch.classroomService.AddMember(c.Request.Context(), id, req.UserID, req.Role)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"member": member})
}

// PATCH /v1/classrooms/:id/members/:userId
func (ch *ClassroomHandler) UpdateMember(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	var req struct {
		Role string `json:"role"`
	}
	if !bindJSON(c, &req) {
		return
	}
	member, err := ch.classroomService.UpdateMemberRole(c.Request.Context(), id, userID, req.Role)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"member": member})
}

// DELETE /v1/classrooms/:id/members/:userId
func (ch *ClassroomHandler) RemoveMember(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}
	if err := ch.classroomService.RemoveMember(c.Request.Context(), id, userID); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondNoContent(c)
}

// POST /v1/classrooms/:id/materials
// JSON { "title", "url" } adds a link; multipart with fields "file" and "title" uploads a file.
func (ch *ClassroomHandler) AddMaterial(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		ch.uploadMaterial(c, id)
		return
	}
	var in services.MaterialLinkInput
	if !bindJSON(c, &in) {
		return
	}
	m, err := ch.classroomService.AddMaterialLink(c.Request.Context(), id, in)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"material": m})
}

func (ch *ClassroomHandler) uploadMaterial(c *gin.Context, classroomID uuid.UUID) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ch.maxUploadBytes+multipartOverhead)
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondBadRequest(c, "invalid_file", "multipart field \"file\" is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondBadRequest(c, "invalid_file", "could not read upload")
		return
	}
	defer f.Close()

	m, err := ch.classroomService.UploadMaterial(c.Request.Context(), classroomID, services.MaterialUpload{
		Title:       c.PostForm("title"),
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		response.RespondError(c, err)
		return
	}
	ch.log.Debug("Material uploaded", "classroom_id", classroomID, "bytes", fh.Size)
	response.RespondCreated(c, gin.H{"material": m})
}

// GET /v1/classrooms/:id/materials
func (ch *ClassroomHandler) ListMaterials(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	materials, err := ch.classroomService.ListMaterials(reqCtx(c), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"materials": materials})
}

// DELETE /v1/classrooms/:id/materials/:materialId
func (ch *ClassroomHandler) DeleteMaterial(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	materialID, ok := uuidParam(c, "materialId")
	if !ok {
		return
	}
	if err := ch.classroomService.DeleteMaterial(c.Request.Context(), id, materialID); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondNoContent(c)
}
