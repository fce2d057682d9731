package handlers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/coursehub-backend/internal/http/response"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
	"github.com/yungbote/coursehub-backend/internal/platform/pagination"
)

func reqCtx(c *gin.Context) dbctx.Context {
	return dbctx.Context{Ctx: c.Request.Context()}
}

// uuidParam parses a path parameter and writes a 400 when it is not a uuid.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		response.RespondBadRequest(c, "invalid_id", "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// uuidQuery reads an optional uuid query parameter.
func uuidQuery(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		response.RespondBadRequest(c, "invalid_"+name, "invalid "+name)
		return nil, false
	}
	return &id, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.RespondBadRequest(c, "invalid_request", "invalid request body")
		return false
	}
	return true
}

func pageQuery(c *gin.Context) pagination.Query {
	return pagination.Parse(c.Query("page"), c.Query("limit"), c.Query("sortBy"))
}

// timeQuery reads an optional RFC3339 timestamp.
func timeQuery(c *gin.Context, name string) (time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		response.RespondBadRequest(c, "invalid_"+name, name+" must be an RFC3339 timestamp")
		return time.Time{}, false
	}
	return t, true
}
