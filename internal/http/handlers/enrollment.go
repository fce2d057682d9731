package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursehub-backend/internal/http/response"
	"github.com/yungbote/coursehub-backend/internal/services"
)

type EnrollmentHandler struct {
	enrollmentService services.EnrollmentService
}

func NewEnrollmentHandler(enrollmentService services.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentService: enrollmentService}
}

// POST /v1/courses/:id/enroll
func (eh *EnrollmentHandler) Enroll(c *gin.Context) {
	courseID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	e, err := eh.enrollmentService.Enroll(c.Request.Context(), courseID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"enrollment": e})
}

// GET /v1/enrollments/me
func (eh *EnrollmentHandler) ListMine(c *gin.Context) {
	page, err := eh.enrollmentService.ListMine(reqCtx(c), pageQuery(c))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, page)
}

// GET /v1/courses/:id/enrollment
func (eh *EnrollmentHandler) GetMine(c *gin.Context) {
	courseID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	e, err := eh.enrollmentService.GetMine(reqCtx(c), courseID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"enrollment": e})
}

// GET /v1/courses/:id/enrollments
func (eh *EnrollmentHandler) ListByCourse(c *gin.Context) {
	courseID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	page, err := eh.enrollmentService.ListByCourse(reqCtx(c), courseID, pageQuery(c))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, page)
}
