package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursehub-backend/internal/platform/apierr"
)

func serve(t *testing.T, h gin.HandlerFunc) (*httptest.ResponseRecorder, ErrorBody) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", h)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	var body ErrorBody
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body %q: %v", rec.Body.String(), err)
		}
	}
	return rec, body
}

func TestRespondErrorMapsAPIErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
		reason string
	}{
		{"bad request", apierr.BadRequest("already_submitted", "attempt already submitted"), 400, "attempt already submitted", "already_submitted"},
		{"wrapped not found", fmt.Errorf("load: %w", apierr.NotFound("course not found")), 404, "course not found", "not_found"},
		{"forbidden", apierr.Forbidden("forbidden"), 403, "forbidden", "forbidden"},
		{"plain error", errors.New("pq: connection refused"), 500, internalMessage, "internal"},
		{"internal apierr hides cause", apierr.Internal(errors.New("disk on fire")), 500, internalMessage, "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := serve(t, func(c *gin.Context) { RespondError(c, tc.err) })
			if rec.Code != tc.status || body.Code != tc.status {
				t.Fatalf("status: want=%d got=%d body=%d", tc.status, rec.Code, body.Code)
			}
			if body.Message != tc.msg {
				t.Fatalf("message: want=%q got=%q", tc.msg, body.Message)
			}
			if body.Reason != tc.reason {
				t.Fatalf("reason: want=%q got=%q", tc.reason, body.Reason)
			}
		})
	}
}

func TestRespondNoContent(t *testing.T) {
	rec, _ := serve(t, RespondNoContent)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status: want=204 got=%d", rec.Code)
	}
}
