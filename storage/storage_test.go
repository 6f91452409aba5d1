package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/course"
	"github.com/trezcool/coursework/core/grade"
	"github.com/trezcool/coursework/core/submission"
	"github.com/trezcool/coursework/core/user"
	"github.com/trezcool/coursework/storage/database"
	boltdb "github.com/trezcool/coursework/storage/database/bolt"
)

// Every engine must pass the same suite. PostgreSQL runs only when TEST_DATABASE_URL is set.
func TestRepositories(t *testing.T) {
	t.Run("bolt", func(t *testing.T) {
		testRepositories(t, func(t *testing.T) *Repositories {
			db, err := boltdb.Open(filepath.Join(t.TempDir(), "test.db"))
			require.NoError(t, err)
			repos := NewBolt(db)
			t.Cleanup(func() { _ = repos.Close() })
			return repos
		})
	})

	t.Run("postgres", func(t *testing.T) {
		dsn := os.Getenv("TEST_DATABASE_URL")
		if dsn == "" {
			t.Skip("TEST_DATABASE_URL not set")
		}
		testRepositories(t, func(t *testing.T) *Repositories {
			db, err := sql.Open("postgres", dsn)
			require.NoError(t, err)
			require.NoError(t, database.Migrate(db))
			_, err = db.Exec(`TRUNCATE grades, submissions, assignments, courses, users CASCADE`)
			require.NoError(t, err)
			repos := NewPostgres(db)
			t.Cleanup(func() { _ = repos.Close() })
			return repos
		})
	})
}

func testRepositories(t *testing.T, open func(t *testing.T) *Repositories) {
	t.Run("users", func(t *testing.T) { testUsers(t, open(t)) })
	t.Run("course roster", func(t *testing.T) { testCourseUpdate(t, open(t)) })
	t.Run("submissions and grades", func(t *testing.T) { testSubmissionsAndGrades(t, open(t)) })
	t.Run("course cascade", func(t *testing.T) { testCourseCascade(t, open(t)) })
	t.Run("user deletion", func(t *testing.T) { testUserDeletion(t, open(t)) })
}

var epoch = time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC)

func newUser(t *testing.T, repos *Repositories, name, role string) user.User {
	usr, err := repos.Users.CreateUser(context.Background(), user.User{
		ID:        core.NewID(),
		Name:      name,
		Username:  name,
		Email:     name + "@example.com",
		Role:      role,
		IsActive:  true,
		CreatedAt: epoch,
		UpdatedAt: epoch,
	})
	require.NoError(t, err)
	return usr
}

func newCourse(t *testing.T, repos *Repositories, teacher user.User, students ...string) course.Course {
	if students == nil {
		students = []string{}
	}
	crs, err := repos.Courses.CreateCourse(context.Background(), course.Course{
		ID:         core.NewID(),
		Title:      "Algebra",
		TeacherID:  teacher.ID,
		StudentIDs: students,
		CreatedAt:  epoch,
		UpdatedAt:  epoch,
	})
	require.NoError(t, err)
	return crs
}

func newAssignment(t *testing.T, repos *Repositories, crs course.Course) assignment.Assignment {
	asg, err := repos.Assignments.CreateAssignment(context.Background(), assignment.Assignment{
		ID:            core.NewID(),
		Title:         "Essay",
		Description:   "500 words",
		CourseID:      crs.ID,
		TeacherID:     crs.TeacherID,
		DueDate:       epoch.Add(48 * time.Hour),
		SubmissionIDs: []string{},
		CreatedAt:     epoch,
		UpdatedAt:     epoch,
	})
	require.NoError(t, err)
	return asg
}

func newSubmission(asg assignment.Assignment, studentID string) submission.Submission {
	return submission.Submission{
		ID:           core.NewID(),
		AssignmentID: asg.ID,
		CourseID:     asg.CourseID,
		StudentID:    studentID,
		Content:      "essay",
		Status:       submission.StatusSubmitted,
		CreatedAt:    epoch,
		UpdatedAt:    epoch,
	}
}

func testUsers(t *testing.T, repos *Repositories) {
	ctx := context.Background()
	ann := newUser(t, repos, "ann", user.RoleTeacher)
	newUser(t, repos, "bob", user.RoleStudent)

	assert.Equal(t, user.ErrUsernameExists, repos.Users.CheckUsernameUniqueness(ctx, "ann", "other@example.com"))
	assert.Equal(t, user.ErrEmailExists, repos.Users.CheckUsernameUniqueness(ctx, "zed", "bob@example.com"))
	assert.NoError(t, repos.Users.CheckUsernameUniqueness(ctx, "zed", "zed@example.com"))

	got, err := repos.Users.GetUserByID(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, ann.Email, got.Email)
	_, err = repos.Users.GetUserByID(ctx, core.NewID())
	assert.Equal(t, user.ErrNotFound, err)

	students, err := repos.Users.FilterUsers(ctx, user.QueryFilter{Roles: []string{user.RoleStudent}})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "bob", students[0].Username)

	found, err := repos.Users.FilterUsers(ctx, user.QueryFilter{Search: "ann@"})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	require.NoError(t, repos.Users.DeleteUsersByID(ctx, ann.ID))
	all, err := repos.Users.QueryAllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testCourseUpdate(t *testing.T, repos *Repositories) {
	ctx := context.Background()
	teacher := newUser(t, repos, "teacher", user.RoleTeacher)
	student := newUser(t, repos, "student", user.RoleStudent)
	crs := newCourse(t, repos, teacher)

	updated, err := repos.Courses.UpdateCourse(ctx, crs.ID, func(c *course.Course) error {
		enrolled, err := course.Enroll(*c, student)
		*c = enrolled
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []string{student.ID}, updated.StudentIDs)

	abort := errors.New("abort")
	_, err = repos.Courses.UpdateCourse(ctx, crs.ID, func(c *course.Course) error {
		c.Title = "changed"
		return abort
	})
	assert.Equal(t, abort, err)

	stored, err := repos.Courses.GetCourseByID(ctx, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, "Algebra", stored.Title, "an aborted update changes nothing")

	enrolled, err := repos.Courses.QueryCourses(ctx, course.QueryFilter{StudentID: student.ID})
	require.NoError(t, err)
	assert.Len(t, enrolled, 1)

	_, err = repos.Courses.UpdateCourse(ctx, core.NewID(), func(*course.Course) error { return nil })
	assert.Equal(t, course.ErrNotFound, err)
}

func testSubmissionsAndGrades(t *testing.T, repos *Repositories) {
	ctx := context.Background()
	teacher := newUser(t, repos, "teacher", user.RoleTeacher)
	ann := newUser(t, repos, "ann", user.RoleStudent)
	bob := newUser(t, repos, "bob", user.RoleStudent)
	crs := newCourse(t, repos, teacher, ann.ID, bob.ID)
	asg := newAssignment(t, repos, crs)

	annSub, err := repos.Submissions.CreateSubmission(ctx, newSubmission(asg, ann.ID))
	require.NoError(t, err)
	bobSub, err := repos.Submissions.CreateSubmission(ctx, newSubmission(asg, bob.ID))
	require.NoError(t, err)

	_, err = repos.Submissions.CreateSubmission(ctx, newSubmission(asg, ann.ID))
	assert.Equal(t, submission.ErrAlreadySubmitted, err)

	stored, err := repos.Assignments.GetAssignmentByID(ctx, asg.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{annSub.ID, bobSub.ID}, stored.SubmissionIDs)

	for i, sub := range []submission.Submission{annSub, bobSub} {
		_, err = repos.Grades.CreateGrade(ctx, grade.Grade{
			ID:           core.NewID(),
			StudentID:    sub.StudentID,
			CourseID:     crs.ID,
			SubmissionID: sub.ID,
			AssignmentID: asg.ID,
			Value:        float64(70 + i*10),
			CreatedAt:    epoch.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
	_, err = repos.Grades.CreateGrade(ctx, grade.Grade{
		ID:           core.NewID(),
		StudentID:    ann.ID,
		CourseID:     crs.ID,
		SubmissionID: annSub.ID,
		AssignmentID: asg.ID,
		Value:        99,
		CreatedAt:    epoch,
	})
	assert.Equal(t, grade.ErrAlreadyGraded, err)

	grades, err := repos.Grades.QueryGrades(ctx, grade.QueryFilter{CourseID: crs.ID})
	require.NoError(t, err)
	require.Len(t, grades, 2)
	assert.Equal(t, 80.0, grades[0].Value, "newest first")

	graded, err := repos.Submissions.UpdateSubmission(ctx, annSub.ID, func(sub *submission.Submission) error {
		sub.Status = submission.StatusGraded
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, submission.StatusGraded, graded.Status)

	require.NoError(t, repos.Submissions.DeleteSubmission(ctx, annSub.ID))
	assert.Equal(t, submission.ErrNotFound, repos.Submissions.DeleteSubmission(ctx, annSub.ID))

	stored, err = repos.Assignments.GetAssignmentByID(ctx, asg.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{bobSub.ID}, stored.SubmissionIDs)

	grades, err = repos.Grades.QueryGrades(ctx, grade.QueryFilter{StudentID: ann.ID})
	require.NoError(t, err)
	assert.Empty(t, grades)

	subs, err := repos.Submissions.QuerySubmissions(ctx, submission.QueryFilter{AssignmentID: asg.ID})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, bobSub.ID, subs[0].ID)
}

func testCourseCascade(t *testing.T, repos *Repositories) {
	ctx := context.Background()
	teacher := newUser(t, repos, "teacher", user.RoleTeacher)
	student := newUser(t, repos, "student", user.RoleStudent)
	crs := newCourse(t, repos, teacher, student.ID)
	kept := newCourse(t, repos, teacher, student.ID)
	asg := newAssignment(t, repos, crs)
	keptAsg := newAssignment(t, repos, kept)
	sub, err := repos.Submissions.CreateSubmission(ctx, newSubmission(asg, student.ID))
	require.NoError(t, err)
	_, err = repos.Grades.CreateGrade(ctx, grade.Grade{
		ID:           core.NewID(),
		StudentID:    student.ID,
		CourseID:     crs.ID,
		SubmissionID: sub.ID,
		AssignmentID: asg.ID,
		Value:        50,
		CreatedAt:    epoch,
	})
	require.NoError(t, err)

	require.NoError(t, repos.Courses.DeleteCourse(ctx, crs.ID))
	assert.Equal(t, course.ErrNotFound, repos.Courses.DeleteCourse(ctx, crs.ID))

	_, err = repos.Assignments.GetAssignmentByID(ctx, asg.ID)
	assert.Equal(t, assignment.ErrNotFound, err)
	_, err = repos.Submissions.GetSubmissionByID(ctx, sub.ID)
	assert.Equal(t, submission.ErrNotFound, err)
	grades, err := repos.Grades.QueryGrades(ctx, grade.QueryFilter{StudentID: student.ID})
	require.NoError(t, err)
	assert.Empty(t, grades)

	_, err = repos.Assignments.GetAssignmentByID(ctx, keptAsg.ID)
	assert.NoError(t, err, "other courses are untouched")
}

func testUserDeletion(t *testing.T, repos *Repositories) {
	ctx := context.Background()
	teacher := newUser(t, repos, "teacher", user.RoleTeacher)
	ann := newUser(t, repos, "ann", user.RoleStudent)
	bob := newUser(t, repos, "bob", user.RoleStudent)
	crs := newCourse(t, repos, teacher, ann.ID, bob.ID)
	asg := newAssignment(t, repos, crs)

	annSub, err := repos.Submissions.CreateSubmission(ctx, newSubmission(asg, ann.ID))
	require.NoError(t, err)
	bobSub, err := repos.Submissions.CreateSubmission(ctx, newSubmission(asg, bob.ID))
	require.NoError(t, err)
	_, err = repos.Grades.CreateGrade(ctx, grade.Grade{
		ID:           core.NewID(),
		StudentID:    ann.ID,
		CourseID:     crs.ID,
		SubmissionID: annSub.ID,
		AssignmentID: asg.ID,
		Value:        75,
		CreatedAt:    epoch,
	})
	require.NoError(t, err)

	t.Run("teacher owning courses", func(t *testing.T) {
		err := repos.Users.DeleteUsersByID(ctx, ann.ID, teacher.ID)
		assert.Equal(t, user.ErrOwnsCourses, err)
		assert.Equal(t, core.KindConflict, core.KindOf(err))

		_, err = repos.Users.GetUserByID(ctx, teacher.ID)
		assert.NoError(t, err)
		_, err = repos.Users.GetUserByID(ctx, ann.ID)
		assert.NoError(t, err, "a refused batch deletes nobody")
		stored, err := repos.Courses.GetCourseByID(ctx, crs.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{ann.ID, bob.ID}, stored.StudentIDs)
	})

	t.Run("student", func(t *testing.T) {
		require.NoError(t, repos.Users.DeleteUsersByID(ctx, ann.ID))

		_, err := repos.Users.GetUserByID(ctx, ann.ID)
		assert.Equal(t, user.ErrNotFound, err)

		stored, err := repos.Courses.GetCourseByID(ctx, crs.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{bob.ID}, stored.StudentIDs)

		_, err = repos.Submissions.GetSubmissionByID(ctx, annSub.ID)
		assert.Equal(t, submission.ErrNotFound, err)
		grades, err := repos.Grades.QueryGrades(ctx, grade.QueryFilter{StudentID: ann.ID})
		require.NoError(t, err)
		assert.Empty(t, grades)

		storedAsg, err := repos.Assignments.GetAssignmentByID(ctx, asg.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{bobSub.ID}, storedAsg.SubmissionIDs)
	})
}
