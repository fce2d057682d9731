package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursehub-backend/internal/http/response"
	"github.com/yungbote/coursehub-backend/internal/services"
)

type LessonHandler struct {
	lessonService services.LessonService
}

func NewLessonHandler(lessonService services.LessonService) *LessonHandler {
	return &LessonHandler{lessonService: lessonService}
}

// POST /v1/modules/:id/lessons
// body: { "title", "type": video|theory|quiz, "is_preview", "resource": {...} }
func (lh *LessonHandler) Create(c *gin.Context) {
	moduleID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var in services.LessonInput
	if !bindJSON(c, &in) {
		return
	}
	lesson, err := lh.lessonService.Create(c.Request.Context(), moduleID, in)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"lesson": lesson})
}

// GET /v1/lessons/:id
func (lh *LessonHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	lesson, err := lh.lessonService.Get(reqCtx(c), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lesson": lesson})
}

// PATCH /v1/lessons/:id
func (lh *LessonHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var in services.LessonInput
	if !bindJSON(c, &in) {
		return
	}
	lesson, err := lh.lessonService.Update(c.Request.Context(), id, in)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"lesson": lesson})
}

// DELETE /v1/lessons/:id
func (lh *LessonHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := lh.lessonService.Delete(c.Request.Context(), id); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondNoContent(c)
}

// POST /v1/lessons/:id/complete
func (lh *LessonHandler) Complete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	enrollment, err := lh.lessonService.Complete(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"enrollment": enrollment})
}
