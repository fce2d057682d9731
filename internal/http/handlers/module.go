package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursehub-backend/internal/http/response"
	"github.com/yungbote/coursehub-backend/internal/services"
)

type ModuleHandler struct {
	moduleService services.ModuleService
}

func NewModuleHandler(moduleService services.ModuleService) *ModuleHandler {
	return &ModuleHandler{moduleService: moduleService}
}

// POST /v1/courses/:id/modules
func (mh *ModuleHandler) Create(c *gin.Context) {
	courseID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var in services.ModuleInput
	if !bindJSON(c, &in) {
		return
	}
	m, err := mh.moduleService.Create(c.Request.Context(), courseID, in)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"module": m})
}

// GET /v1/courses/:id/modules
func (mh *ModuleHandler) ListByCourse(c *gin.Context) {
	courseID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	modules, err := mh.moduleService.ListByCourse(reqCtx(c), courseID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"modules": modules})
}

// PATCH /v1/modules/:id
func (mh *ModuleHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var in services.ModuleInput
	if !bindJSON(c, &in) {
		return
	}
	m, err := mh.moduleService.Update(c.Request.Context(), id, in)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"module": m})
}

// DELETE /v1/modules/:id
func (mh *ModuleHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := mh.moduleService.Delete(c.Request.Context(), id); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondNoContent(c)
}
