package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursehub-backend/internal/data/repos"
	"github.com/yungbote/coursehub-backend/internal/http/response"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
	"github.com/yungbote/coursehub-backend/internal/services"
)

const maxThumbnailBytes = 5 << 20

type CourseHandler struct {
	log           *logger.Logger
	courseService services.CourseService
}

func NewCourseHandler(log *logger.Logger, courseService services.CourseService) *CourseHandler {
	return &CourseHandler{log: log.With("handler", "CourseHandler"), courseService: courseService}
}

// POST /v1/courses
func (ch *CourseHandler) Create(c *gin.Context) {
	var in services.CourseInput
	if !bindJSON(c, &in) {
		return
	}
	course, err := ch.courseService.Create(c.Request.Context(), in)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"course": course})
}

// GET /v1/courses?category_id=&search=&level=&instructor_id=
func (ch *CourseHandler) List(c *gin.Context) {
	categoryID, ok := uuidQuery(c, "category_id")
	if !ok {
		return
	}
	instructorID, ok := uuidQuery(c, "instructor_id")
	if !ok {
		return
	}
	filter := repos.CourseListFilter{
		CategoryID:   categoryID,
		InstructorID: instructorID,
		Level:        c.Query("level"),
		Search:       c.Query("search"),
	}
	page, err := ch.courseService.List(reqCtx(c), filter, pageQuery(c))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, page)
}

// GET /v1/courses/:id
func (ch *CourseHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	course, err := ch.courseService.Get(reqCtx(c), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"course": course})
}

// PATCH /v1/courses/:id
func (ch *CourseHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var in services.CourseInput
	if !bindJSON(c, &in) {
		return
	}
	course, err := ch.courseService.Update(c.Request.Context(), id, in)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"course": course})
}

// POST /v1/courses/:id/publish
func (ch *CourseHandler) Publish(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	course, err := ch.courseService.Publish(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"course": course})
}

// POST /v1/courses/:id/thumbnail (multipart field "thumbnail")
func (ch *CourseHandler) UploadThumbnail(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxThumbnailBytes+1<<20)
	fh, err := c.FormFile("thumbnail")
	if err != nil {
		response.RespondBadRequest(c, "invalid_file", "multipart field \"thumbnail\" is required")
		return
	}
	if fh.Size > maxThumbnailBytes {
		response.RespondBadRequest(c, "file_too_large", "thumbnail is limited to 5 MB")
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondBadRequest(c, "invalid_file", "could not read upload")
		return
	}
	defer f.Close()

	course, err := ch.courseService.UploadThumbnail(c.Request.Context(), id, fh.Filename, f)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	ch.log.Debug("Course thumbnail uploaded", "course_id", id, "bytes", fh.Size)
	response.RespondOK(c, gin.H{"course": course})
}

// DELETE /v1/courses/:id
func (ch *CourseHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := ch.courseService.Delete(c.Request.Context(), id); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondNoContent(c)
}
