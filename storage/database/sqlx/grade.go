package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core/grade"
	"github.com/trezcool/coursework/core/submission"
)

const gradeColumns = `id, student_id, course_id, submission_id, assignment_id, value, created_at`

type gradeRow struct {
	ID           string    `db:"id"`
	StudentID    string    `db:"student_id"`
	CourseID     string    `db:"course_id"`
	SubmissionID string    `db:"submission_id"`
	AssignmentID string    `db:"assignment_id"`
	Value        float64   `db:"value"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r gradeRow) toGrade() grade.Grade {
	return grade.Grade{
		ID:           r.ID,
		StudentID:    r.StudentID,
		CourseID:     r.CourseID,
		SubmissionID: r.SubmissionID,
		AssignmentID: r.AssignmentID,
		Value:        r.Value,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

type gradeRepository struct {
	db *sqlx.DB
}

var _ grade.Repository = (*gradeRepository)(nil)

func NewGradeRepository(db *sqlx.DB) grade.Repository {
	return &gradeRepository{db: db}
}

func (repo *gradeRepository) CreateGrade(ctx context.Context, g grade.Grade) (grade.Grade, error) {
	q := `INSERT INTO grades (` + gradeColumns + `)
		VALUES (:id, :student_id, :course_id, :submission_id, :assignment_id, :value, :created_at)`
	row := gradeRow{
		ID:           g.ID,
		StudentID:    g.StudentID,
		CourseID:     g.CourseID,
		SubmissionID: g.SubmissionID,
		AssignmentID: g.AssignmentID,
		Value:        g.Value,
		CreatedAt:    g.CreatedAt,
	}
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		switch pqCode(err) {
		case uniqueViolation:
			return grade.Grade{}, grade.ErrAlreadyGraded
		case foreignKeyViolation:
			return grade.Grade{}, submission.ErrNotFound
		}
		return grade.Grade{}, errors.Wrap(err, "inserting grade")
	}
	return g, nil
}

func (repo *gradeRepository) QueryGrades(ctx context.Context, filter grade.QueryFilter) ([]grade.Grade, error) {
	var conds conditions
	if filter.CourseID != "" {
		conds.add(`course_id = $%d`, filter.CourseID)
	}
	if filter.StudentID != "" {
		conds.add(`student_id = $%d`, filter.StudentID)
	}
	if filter.SubmissionID != "" {
		conds.add(`submission_id = $%d`, filter.SubmissionID)
	}

	var rows []gradeRow
	q := `SELECT ` + gradeColumns + ` FROM grades` + conds.String() + ` ORDER BY created_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, q, conds.args...); err != nil {
		return nil, errors.Wrap(err, "selecting grades")
	}
	grades := make([]grade.Grade, 0, len(rows))
	for _, r := range rows {
		grades = append(grades, r.toGrade())
	}
	return grades, nil
}

