package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/coursework/core/course"
)

const courseColumns = `id, title, description, teacher_id, student_ids, created_at, updated_at`

type courseRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Description null.String    `db:"description"`
	TeacherID   string         `db:"teacher_id"`
	StudentIDs  pq.StringArray `db:"student_ids"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func newCourseRow(crs course.Course) courseRow {
	return courseRow{
		ID:          crs.ID,
		Title:       crs.Title,
		Description: crs.Description,
		TeacherID:   crs.TeacherID,
		StudentIDs:  pq.StringArray(crs.StudentIDs),
		CreatedAt:   crs.CreatedAt,
		UpdatedAt:   crs.UpdatedAt,
	}
}

func (r courseRow) toCourse() course.Course {
	ids := []string(r.StudentIDs)
	if ids == nil {
		ids = []string{}
	}
	return course.Course{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		TeacherID:   r.TeacherID,
		StudentIDs:  ids,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	q := `INSERT INTO courses (` + courseColumns + `)
		VALUES (:id, :title, :description, :teacher_id, :student_ids, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, newCourseRow(crs)); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	var row courseRow
	q := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound)
	}
	return row.toCourse(), nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter course.QueryFilter) ([]course.Course, error) {
	var conds conditions
	if filter.TeacherID != "" {
		conds.add(`teacher_id = $%d`, filter.TeacherID)
	}
	if filter.StudentID != "" {
		conds.add(`$%d = ANY(student_ids)`, filter.StudentID)
	}

	var rows []courseRow
	q := `SELECT ` + courseColumns + ` FROM courses` + conds.String() + ` ORDER BY created_at`
	if err := repo.db.SelectContext(ctx, &rows, q, conds.args...); err != nil {
		return nil, errors.Wrap(err, "selecting courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.toCourse())
	}
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, id string, fn func(*course.Course) error) (course.Course, error) {
	var crs course.Course
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var row courseRow
		q := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1 FOR UPDATE`
		if err := tx.GetContext(ctx, &row, q, id); err != nil {
			return trapNoRowsErr(err, course.ErrNotFound)
		}
		crs = row.toCourse()
		if err := fn(&crs); err != nil {
			return err
		}
		q = `UPDATE courses
			SET title = :title, description = :description, student_ids = :student_ids, updated_at = :updated_at
			WHERE id = :id`
		if _, err := tx.NamedExecContext(ctx, q, newCourseRow(crs)); err != nil {
			return errors.Wrap(err, "updating course")
		}
		return nil
	})
	if err != nil {
		return course.Course{}, err
	}
	return crs, nil
}

// DeleteCourse relies on ON DELETE CASCADE for assignments, submissions and grades.
func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.ErrNotFound
	}
	return nil
}
