package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/course"
	"github.com/trezcool/coursework/core/user"
)

func (e *apiEnv) createCourse(t *testing.T, token, title string) course.Course {
	t.Helper()
	rec := e.do(httpTest{
		method: http.MethodPost,
		path:   "/v1/courses",
		body:   marshal(t, course.NewCourse{Title: title}),
		token:  token,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var crs course.Course
	decodeData(t, rec, &crs)
	return crs
}

func TestCourseAPI(t *testing.T) {
	e := setup(t)
	teacher, teacherToken := e.createUser(t, "mr_smith", user.RoleTeacher)
	_, otherToken := e.createUser(t, "mrs_jones", user.RoleTeacher)
	student, studentToken := e.createUser(t, "ada", user.RoleStudent)

	crs := e.createCourse(t, teacherToken, "  Algebra  ")
	assert.Equal(t, "Algebra", crs.Title)
	assert.Equal(t, teacher.ID, crs.TeacherID)

	tests := []httpTest{
		{
			name:     "student cannot create",
			method:   http.MethodPost,
			path:     "/v1/courses",
			body:     []byte(`{"title":"Chemistry"}`),
			token:    studentToken,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "blank title",
			method:   http.MethodPost,
			path:     "/v1/courses",
			body:     []byte(`{"title":"   "}`),
			token:    teacherToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "malformed body",
			method:   http.MethodPost,
			path:     "/v1/courses",
			body:     []byte(`{"title":`),
			token:    teacherToken,
			wantCode: http.StatusBadRequest,
		},
		{name: "invalid id", method: http.MethodGet, path: "/v1/courses/42", token: studentToken, wantCode: http.StatusBadRequest},
		{name: "unknown course", method: http.MethodGet, path: "/v1/courses/" + core.NewID(), token: studentToken, wantCode: http.StatusNotFound},
		{
			name:     "other teacher cannot update",
			method:   http.MethodPut,
			path:     "/v1/courses/" + crs.ID,
			body:     []byte(`{"title":"Geometry"}`),
			token:    otherToken,
			wantCode: http.StatusForbidden,
		},
		{name: "teacher cannot enroll", method: http.MethodPost, path: "/v1/courses/" + crs.ID + "/enroll", token: teacherToken, wantCode: http.StatusForbidden},
		{name: "unenroll when not enrolled", method: http.MethodPost, path: "/v1/courses/" + crs.ID + "/unenroll", token: studentToken, wantCode: http.StatusConflict},
		{name: "enroll", method: http.MethodPost, path: "/v1/courses/" + crs.ID + "/enroll", token: studentToken, wantCode: http.StatusOK},
		{name: "enroll twice", method: http.MethodPost, path: "/v1/courses/" + crs.ID + "/enroll", token: studentToken, wantCode: http.StatusConflict},
		{
			name:     "enrolled courses",
			method:   http.MethodGet,
			path:     "/v1/courses/enrolled",
			token:    studentToken,
			wantCode: http.StatusOK,
		},
		{name: "student cannot see statistics", method: http.MethodGet, path: "/v1/courses/" + crs.ID + "/statistics", token: studentToken, wantCode: http.StatusForbidden},
		{name: "other teacher cannot delete", method: http.MethodDelete, path: "/v1/courses/" + crs.ID, token: otherToken, wantCode: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, e.do(tt))
		})
	}

	t.Run("roster", func(t *testing.T) {
		rec := e.do(httpTest{method: http.MethodGet, path: "/v1/courses/" + crs.ID, token: teacherToken})
		require.Equal(t, http.StatusOK, rec.Code)
		var got course.Course
		decodeData(t, rec, &got)
		assert.Equal(t, []string{student.ID}, got.StudentIDs)
	})

	t.Run("update keeps absent fields", func(t *testing.T) {
		rec := e.do(httpTest{
			method: http.MethodPut,
			path:   "/v1/courses/" + crs.ID,
			body:   []byte(`{"description":"Linear equations"}`),
			token:  teacherToken,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got course.Course
		decodeData(t, rec, &got)
		assert.Equal(t, "Algebra", got.Title)
		assert.Equal(t, "Linear equations", got.Description.String)
	})

	t.Run("list", func(t *testing.T) {
		e.createCourse(t, otherToken, "History")
		rec := e.do(httpTest{method: http.MethodGet, path: "/v1/courses", token: studentToken})
		require.Equal(t, http.StatusOK, rec.Code)
		var courses []course.Course
		decodeData(t, rec, &courses)
		assert.Len(t, courses, 2)
	})

	t.Run("delete", func(t *testing.T) {
		rec := e.do(httpTest{method: http.MethodDelete, path: "/v1/courses/" + crs.ID, token: teacherToken})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "course deleted", decode(t, rec).Message)
		assert.Contains(t, e.Events.Names(), "course.deleted")

		rec = e.do(httpTest{method: http.MethodGet, path: "/v1/courses/" + crs.ID, token: teacherToken})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
