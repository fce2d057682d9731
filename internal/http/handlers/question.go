package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursehub-backend/internal/http/response"
	"github.com/yungbote/coursehub-backend/internal/services"
)

type QuestionHandler struct {
	questionService services.QuestionService
}

func NewQuestionHandler(questionService services.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// POST /v1/lessons/:id/questions
func (qh *QuestionHandler) Create(c *gin.Context) {
	lessonID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var in services.QuestionInput
	if !bindJSON(c, &in) {
		return
	}
	q, err := qh.questionService.Create(c.Request.Context(), lessonID, in)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"question": q})
}

// GET /v1/lessons/:id/questions
func (qh *QuestionHandler) ListByLesson(c *gin.Context) {
	lessonID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	qs, err := qh.questionService.ListByLesson(reqCtx(c), lessonID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"questions": qs})
}

// PATCH /v1/questions/:id
func (qh *QuestionHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var in services.QuestionInput
	if !bindJSON(c, &in) {
		return
	}
	q, err := qh.questionService.Update(c.Request.Context(), id, in)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"question": q})
}

// DELETE /v1/questions/:id
func (qh *QuestionHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := qh.questionService.Delete(c.Request.Context(), id); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondNoContent(c)
}
