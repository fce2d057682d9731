package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursehub-backend/internal/platform/apierr"
)

// ErrorBody is the error shape of every endpoint. Code repeats the HTTP status; Reason is the
// machine readable apierr code.
type ErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

const internalMessage = "internal server error"

// RespondError writes err as an ErrorBody. Errors that are not *apierr.Error are reported as 500
// without leaking their text; the raw error is attached to the gin context for the request log.
func RespondError(c *gin.Context, err error) {
	body := ErrorBody{Code: http.StatusInternalServerError, Message: internalMessage, Reason: "internal"}
	var ae *apierr.Error
	if errors.As(err, &ae) && ae.Status != 0 {
		body.Code = ae.Status
		body.Reason = ae.Code
		if ae.Status < http.StatusInternalServerError {
			body.Message = ae.Error()
		}
	}
	if body.Code >= http.StatusInternalServerError && err != nil {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(body.Code, body)
}

// RespondBadRequest reports a malformed request body or parameter.
func RespondBadRequest(c *gin.Context, reason, msg string) {
	RespondError(c, apierr.BadRequest(reason, msg))
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
