package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/coursehub-backend/internal/data/repos"
	types "github.com/yungbote/coursehub-backend/internal/domain"
	httpH "github.com/yungbote/coursehub-backend/internal/http/handlers"
	httpMW "github.com/yungbote/coursehub-backend/internal/http/middleware"
	"github.com/yungbote/coursehub-backend/internal/observability"
	"github.com/yungbote/coursehub-backend/internal/platform/apierr"
	"github.com/yungbote/coursehub-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
	"github.com/yungbote/coursehub-backend/internal/platform/logger"
	"github.com/yungbote/coursehub-backend/internal/platform/pagination"
	"github.com/yungbote/coursehub-backend/internal/services"
)

type tokenAuth struct {
	services.AuthService
	users map[string]*ctxutil.RequestData
}

func (a *tokenAuth) SetContextFromToken(ctx context.Context, token string) (context.Context, error) {
	rd, ok := a.users[token]
	if !ok {
		return ctx, apierr.Unauthorized("invalid or expired token")
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

type listUsers struct{ services.UserService }

func (listUsers) List(dbctx.Context, repos.UserListFilter, pagination.Query) (pagination.Page[*types.User], error) {
	return pagination.Page[*types.User]{Results: []*types.User{}}, nil
}

type listCourses struct {
	services.CourseService
	lastCaller *ctxutil.RequestData
}

func (l *listCourses) List(dbc dbctx.Context, _ repos.CourseListFilter, _ pagination.Query) (pagination.Page[*types.Course], error) {
	l.lastCaller = ctxutil.GetRequestData(dbc.Ctx)
	return pagination.Page[*types.Course]{Results: []*types.Course{}}, nil
}

func testRouter(metrics *observability.Metrics, courses *listCourses) *gin.Engine {
	gin.SetMode(gin.TestMode)
	auth := &tokenAuth{users: map[string]*ctxutil.RequestData{
		"student": {UserID: uuid.New(), Role: types.RoleStudent},
		"admin":   {UserID: uuid.New(), Role: types.RoleAdmin},
	}}
	return NewRouter(RouterConfig{
		Log:            logger.Nop(),
		Metrics:        metrics,
		AuthMiddleware: httpMW.NewAuthMiddleware(logger.Nop(), auth),
		UserHandler:    httpH.NewUserHandler(listUsers{}),
		CourseHandler:  httpH.NewCourseHandler(logger.Nop(), courses),
	})
}

func TestRouterAccessControl(t *testing.T) {
	r := testRouter(nil, &listCourses{})

	cases := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{name: "admin list without token", path: "/v1/users", want: http.StatusUnauthorized},
		{name: "admin list as student", path: "/v1/users", token: "student", want: http.StatusForbidden},
		{name: "admin list as admin", path: "/v1/users", token: "admin", want: http.StatusOK},
		{name: "bad token", path: "/v1/users", token: "forged", want: http.StatusUnauthorized},
		{name: "public catalog anonymous", path: "/v1/courses", want: http.StatusOK},
		{name: "public catalog bad token", path: "/v1/courses", token: "forged", want: http.StatusUnauthorized},
		{name: "unknown route", path: "/v1/nope", token: "admin", want: http.StatusNotFound},
		{name: "metrics disabled", path: "/metrics", want: http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("status: want=%d got=%d body=%s", tc.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestRouterCatalogSeesCaller(t *testing.T) {
	courses := &listCourses{}
	r := testRouter(nil, courses)

	req := httptest.NewRequest(http.MethodGet, "/v1/courses", nil)
	req.Header.Set("Authorization", "Bearer admin")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if courses.lastCaller == nil || courses.lastCaller.Role != types.RoleAdmin {
		t.Fatalf("course list should see the admin caller, got %+v", courses.lastCaller)
	}
}

func TestRouterServesMetrics(t *testing.T) {
	m := observability.NewMetrics()
	r := testRouter(m, &listCourses{})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/courses", nil))
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status: got %d", w.Code)
	}
	want := `ch_api_requests_total{method="GET",route="/v1/courses",status="200"} 2.000000`
	if !strings.Contains(w.Body.String(), want) {
		t.Fatalf("metrics output missing %q:\n%s", want, w.Body.String())
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	r := testRouter(nil, &listCourses{})
	req := httptest.NewRequest(http.MethodOptions, "/v1/courses", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("allow origin: got %q", got)
	}
}
