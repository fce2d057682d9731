package services

import (
	"net/http"
	"strings"
	"testing"
	"time"

	types "github.com/yungbote/coursehub-backend/internal/domain"
	"github.com/yungbote/coursehub-backend/internal/platform/dbctx"
)

func strPtr(s string) *string { return &s }

func TestClassroomCreateJoinAndCodeVisibility(t *testing.T) {
	h := newHarness(t)
	svc := h.classroomService()
	owner := h.user("owner@example.com", types.RoleInstructor)
	student := h.user("kid@example.com", types.RoleStudent)

	c, err := svc.Create(h.as(owner), ClassroomInput{Name: strPtr("  Algebra  ")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Name != "Algebra" || len(c.JoinCode) != joinCodeLength {
		t.Fatalf("classroom: name=%q code=%q", c.Name, c.JoinCode)
	}

	m, err := svc.Join(h.as(student), strings.ToLower(c.JoinCode))
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if m.Role != types.MemberRoleStudent {
		t.Fatalf("role: want=student got=%s", m.Role)
	}
	_, err = svc.Join(h.as(student), c.JoinCode)
	wantCode(t, err, "already_member")

	seen, err := svc.Get(dbctx.Context{Ctx: h.as(student)}, c.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if seen.JoinCode != "" || len(seen.Members) != 2 {
		t.Fatalf("student view: code=%q members=%d", seen.JoinCode, len(seen.Members))
	}
	if h.rt.count("member_joined") != 1 {
		t.Fatalf("member_joined events: want=1 got=%d", h.rt.count("member_joined"))
	}

	outsider := h.user("stranger@example.com", types.RoleStudent)
	_, err = svc.Get(dbctx.Context{Ctx: h.as(outsider)}, c.ID)
	wantStatus(t, err, http.StatusNotFound)
}

func TestClassroomLastAdminIsKept(t *testing.T) {
	h := newHarness(t)
	svc := h.classroomService()
	owner := h.user("owner@example.com", types.RoleInstructor)
	helper := h.user("helper@example.com", types.RoleStudent)

	c, err := svc.Create(h.as(owner), ClassroomInput{Name: strPtr("Physics")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	err = svc.RemoveMember(h.as(owner), c.ID, owner.ID)
	wantStatus(t, err, http.StatusBadRequest)
	wantCode(t, err, "last_admin")

	_, err = svc.UpdateMemberRole(h.as(owner), c.ID, owner.ID, types.MemberRoleStudent)
	wantCode(t, err, "last_admin")

	if _, err := svc.AddMember(h.as(owner), c.ID, helper.ID, types.MemberRoleAdmin); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	demoted, err := svc.UpdateMemberRole(h.as(helper), c.ID, owner.ID, types.MemberRoleAssistant)
	if err != nil {
		t.Fatalf("UpdateMemberRole: %v", err)
	}
	if demoted.Role != types.MemberRoleAssistant {
		t.Fatalf("role: want=assistant got=%s", demoted.Role)
	}

	err = svc.RemoveMember(h.as(helper), c.ID, helper.ID)
	wantCode(t, err, "last_admin")

	if err := svc.RemoveMember(h.as(owner), c.ID, owner.ID); err != nil {
		t.Fatalf("self removal: %v", err)
	}
}

func TestClassroomMemberPermissions(t *testing.T) {
	h := newHarness(t)
	svc := h.classroomService()
	owner := h.user("owner@example.com", types.RoleInstructor)
	student := h.user("kid@example.com", types.RoleStudent)
	other := h.user("other@example.com", types.RoleStudent)

	c, err := svc.Create(h.as(owner), ClassroomInput{Name: strPtr("Chemistry")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.AddMember(h.as(owner), c.ID, student.ID, ""); err != nil {
		t.Fatalf("AddMember: %v", err)
	}

	_, err = svc.AddMember(h.as(student), c.ID, other.ID, types.MemberRoleStudent)
	wantStatus(t, err, http.StatusForbidden)

	_, err = svc.AddMaterialLink(h.as(student), c.ID, MaterialLinkInput{Title: "notes", URL: "https://example.com/notes"})
	wantStatus(t, err, http.StatusForbidden)

	mat, err := svc.AddMaterialLink(h.as(owner), c.ID, MaterialLinkInput{Title: "notes", URL: "https://example.com/notes"})
	if err != nil {
		t.Fatalf("AddMaterialLink: %v", err)
	}
	list, err := svc.ListMaterials(dbctx.Context{Ctx: h.as(student)}, c.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListMaterials: n=%d err=%v", len(list), err)
	}

	_, err = svc.UploadMaterial(h.as(owner), c.ID, MaterialUpload{Filename: "a.pdf", Body: strings.NewReader("x")})
	wantStatus(t, err, http.StatusServiceUnavailable)

	err = svc.DeleteMaterial(h.as(student), c.ID, mat.ID)
	wantStatus(t, err, http.StatusForbidden)
	if err := svc.DeleteMaterial(h.as(owner), c.ID, mat.ID); err != nil {
		t.Fatalf("DeleteMaterial: %v", err)
	}

	if err := svc.RemoveMember(h.as(student), c.ID, student.ID); err != nil {
		t.Fatalf("student leaves: %v", err)
	}
	if h.rt.count("member_removed") != 1 {
		t.Fatalf("member_removed events: want=1 got=%d", h.rt.count("member_removed"))
	}
}

func TestMessagePostListDelete(t *testing.T) {
	h := newHarness(t)
	classrooms := h.classroomService()
	svc := NewMessageService(h.db, h.log, classrooms, h.members, h.messages, h.rt)
	owner := h.user("owner@example.com", types.RoleInstructor)
	student := h.user("kid@example.com", types.RoleStudent)
	outsider := h.user("stranger@example.com", types.RoleStudent)

	c, err := classrooms.Create(h.as(owner), ClassroomInput{Name: strPtr("Biology")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := classrooms.Join(h.as(student), c.JoinCode); err != nil {
		t.Fatalf("Join: %v", err)
	}

	_, err = svc.Post(h.as(outsider), c.ID, "hi")
	wantStatus(t, err, http.StatusNotFound)
	_, err = svc.Post(h.as(student), c.ID, "   ")
	wantStatus(t, err, http.StatusBadRequest)

	first, err := svc.Post(h.as(student), c.ID, "hello")
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := svc.Post(h.as(owner), c.ID, "welcome"); err != nil {
		t.Fatalf("Post: %v", err)
	}

	msgs, err := svc.List(dbctx.Context{Ctx: h.as(student)}, c.ID, time.Time{}, 0)
	if err != nil || len(msgs) != 2 {
		t.Fatalf("List: n=%d err=%v", len(msgs), err)
	}
	if msgs[0].Content != "welcome" {
		t.Fatalf("want newest first, got %q", msgs[0].Content)
	}
	if h.rt.count("message_created") != 2 {
		t.Fatalf("message_created events: want=2 got=%d", h.rt.count("message_created"))
	}

	err = svc.Delete(h.as(outsider), first.ID)
	wantStatus(t, err, http.StatusNotFound)
	if err := svc.Delete(h.as(owner), first.ID); err != nil {
		t.Fatalf("admin Delete: %v", err)
	}
	msgs, err = svc.List(dbctx.Context{Ctx: h.as(owner)}, c.ID, time.Time{}, 10)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("List after delete: n=%d err=%v", len(msgs), err)
	}
}
