package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/http/response"
	"github.com/yungbote/coursehub-backend/internal/services"
)

type AttemptHandler struct {
	attemptService services.AttemptService
}

func NewAttemptHandler(attemptService services.AttemptService) *AttemptHandler {
	return &AttemptHandler{attemptService: attemptService}
}

type answerRequest struct {
	QuestionID        uuid.UUID `json:"question_id"`
	SelectedOptionIDs []string  `json:"selected_option_ids"`
	Text              string    `json:"text"`
}

// POST /v1/lessons/:id/attempts
func (ah *AttemptHandler) Start(c *gin.Context) {
	lessonID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	a, err := ah.attemptService.Start(c.Request.Context(), lessonID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"attempt": a})
}

// POST /v1/attempts/:id/submit
// body: { "answers": [{ "question_id", "selected_option_ids", "text" }] }
func (ah *AttemptHandler) Submit(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Answers []answerRequest `json:"answers"`
	}
	if !bindJSON(c, &req) {
		return
	}
	answers := make([]types.AttemptAnswer, 0, len(req.Answers))
	for _, a := range req.Answers {
		answers = append(answers, types.AttemptAnswer{
			QuestionID:        a.QuestionID,
			SelectedOptionIDs: a.SelectedOptionIDs,
			Text:              a.Text,
		})
	}
	a, err := ah.attemptService.Submit(c.Request.Context(), id, answers)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"attempt": a})
}

// GET /v1/attempts/:id
func (ah *AttemptHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	a, err := ah.attemptService.Get(reqCtx(c), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"attempt": a})
}

// GET /v1/lessons/:id/attempts
func (ah *AttemptHandler) ListMine(c *gin.Context) {
	lessonID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	attempts, err := ah.attemptService.ListMine(reqCtx(c), lessonID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"attempts": attempts})
}
