package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/course"
)

const assignmentColumns = `id, title, description, course_id, teacher_id, due_date, submission_ids, created_at, updated_at`

type assignmentRow struct {
	ID            string         `db:"id"`
	Title         string         `db:"title"`
	Description   string         `db:"description"`
	CourseID      string         `db:"course_id"`
	TeacherID     string         `db:"teacher_id"`
	DueDate       time.Time      `db:"due_date"`
	SubmissionIDs pq.StringArray `db:"submission_ids"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func newAssignmentRow(asg assignment.Assignment) assignmentRow {
	return assignmentRow{
		ID:            asg.ID,
		Title:         asg.Title,
		Description:   asg.Description,
		CourseID:      asg.CourseID,
		TeacherID:     asg.TeacherID,
		DueDate:       asg.DueDate,
		SubmissionIDs: pq.StringArray(asg.SubmissionIDs),
		CreatedAt:     asg.CreatedAt,
		UpdatedAt:     asg.UpdatedAt,
	}
}

func (r assignmentRow) toAssignment() assignment.Assignment {
	ids := []string(r.SubmissionIDs)
	if ids == nil {
		ids = []string{}
	}
	return assignment.Assignment{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		CourseID:      r.CourseID,
		TeacherID:     r.TeacherID,
		DueDate:       r.DueDate.UTC(),
		SubmissionIDs: ids,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

const updateAssignmentQuery = `UPDATE assignments
	SET title = :title, description = :description, due_date = :due_date,
		submission_ids = :submission_ids, updated_at = :updated_at
	WHERE id = :id`

func getAssignmentForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (assignment.Assignment, error) {
	var row assignmentRow
	q := `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &row, q, id); err != nil {
		return assignment.Assignment{}, trapNoRowsErr(err, assignment.ErrNotFound)
	}
	return row.toAssignment(), nil
}

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil)

func NewAssignmentRepository(db *sqlx.DB) assignment.Repository {
	return &assignmentRepository{db: db}
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	q := `INSERT INTO assignments (` + assignmentColumns + `)
		VALUES (:id, :title, :description, :course_id, :teacher_id, :due_date, :submission_ids, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, newAssignmentRow(asg)); err != nil {
		if pqCode(err) == foreignKeyViolation {
			return assignment.Assignment{}, course.ErrNotFound
		}
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return asg, nil
}

func (repo *assignmentRepository) GetAssignmentByID(ctx context.Context, id string) (assignment.Assignment, error) {
	var row assignmentRow
	q := `SELECT ` + assignmentColumns + ` FROM assignments WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return assignment.Assignment{}, trapNoRowsErr(err, assignment.ErrNotFound)
	}
	return row.toAssignment(), nil
}

func (repo *assignmentRepository) QueryAssignments(ctx context.Context, filter assignment.QueryFilter) ([]assignment.Assignment, error) {
	var conds conditions
	if filter.CourseID != "" {
		conds.add(`course_id = $%d`, filter.CourseID)
	}
	if filter.TeacherID != "" {
		conds.add(`teacher_id = $%d`, filter.TeacherID)
	}
	if !filter.DueFrom.IsZero() {
		conds.add(`due_date >= $%d`, filter.DueFrom)
	}
	if !filter.DueTo.IsZero() {
		conds.add(`due_date <= $%d`, filter.DueTo)
	}

	var rows []assignmentRow
	q := `SELECT ` + assignmentColumns + ` FROM assignments` + conds.String() + ` ORDER BY due_date`
	if err := repo.db.SelectContext(ctx, &rows, q, conds.args...); err != nil {
		return nil, errors.Wrap(err, "selecting assignments")
	}
	asgs := make([]assignment.Assignment, 0, len(rows))
	for _, r := range rows {
		asgs = append(asgs, r.toAssignment())
	}
	return asgs, nil
}

func (repo *assignmentRepository) UpdateAssignment(
	ctx context.Context,
	id string,
	fn func(*assignment.Assignment) error,
) (assignment.Assignment, error) {
	var asg assignment.Assignment
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var err error
		if asg, err = getAssignmentForUpdate(ctx, tx, id); err != nil {
			return err
		}
		if err = fn(&asg); err != nil {
			return err
		}
		if _, err = tx.NamedExecContext(ctx, updateAssignmentQuery, newAssignmentRow(asg)); err != nil {
			return errors.Wrap(err, "updating assignment")
		}
		return nil
	})
	if err != nil {
		return assignment.Assignment{}, err
	}
	return asg, nil
}

// DeleteAssignment relies on ON DELETE CASCADE for submissions and grades.
func (repo *assignmentRepository) DeleteAssignment(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return assignment.ErrNotFound
	}
	return nil
}
