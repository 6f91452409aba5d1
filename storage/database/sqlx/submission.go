package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/submission"
)

const submissionColumns = `id, assignment_id, course_id, student_id, content, status, grade, created_at, updated_at`

type submissionRow struct {
	ID           string       `db:"id"`
	AssignmentID string       `db:"assignment_id"`
	CourseID     string       `db:"course_id"`
	StudentID    string       `db:"student_id"`
	Content      string       `db:"content"`
	Status       string       `db:"status"`
	Grade        null.Float64 `db:"grade"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

func newSubmissionRow(sub submission.Submission) submissionRow {
	return submissionRow{
		ID:           sub.ID,
		AssignmentID: sub.AssignmentID,
		CourseID:     sub.CourseID,
		StudentID:    sub.StudentID,
		Content:      sub.Content,
		Status:       string(sub.Status),
		Grade:        sub.Grade,
		CreatedAt:    sub.CreatedAt,
		UpdatedAt:    sub.UpdatedAt,
	}
}

func (r submissionRow) toSubmission() submission.Submission {
	return submission.Submission{
		ID:           r.ID,
		AssignmentID: r.AssignmentID,
		CourseID:     r.CourseID,
		StudentID:    r.StudentID,
		Content:      r.Content,
		Status:       submission.Status(r.Status),
		Grade:        r.Grade,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

type submissionRepository struct {
	db *sqlx.DB
}

var _ submission.Repository = (*submissionRepository)(nil)

func NewSubmissionRepository(db *sqlx.DB) submission.Repository {
	return &submissionRepository{db: db}
}

func (repo *submissionRepository) CreateSubmission(ctx context.Context, sub submission.Submission) (submission.Submission, error) {
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		asg, err := getAssignmentForUpdate(ctx, tx, sub.AssignmentID)
		if err != nil {
			return err
		}
		q := `INSERT INTO submissions (` + submissionColumns + `)
			VALUES (:id, :assignment_id, :course_id, :student_id, :content, :status, :grade, :created_at, :updated_at)`
		if _, err = tx.NamedExecContext(ctx, q, newSubmissionRow(sub)); err != nil {
			if pqCode(err) == uniqueViolation {
				return submission.ErrAlreadySubmitted
			}
			return errors.Wrap(err, "inserting submission")
		}
		asg = assignment.AddSubmission(asg, sub.ID)
		if _, err = tx.NamedExecContext(ctx, updateAssignmentQuery, newAssignmentRow(asg)); err != nil {
			return errors.Wrap(err, "referencing submission")
		}
		return nil
	})
	if err != nil {
		return submission.Submission{}, err
	}
	return sub, nil
}

func (repo *submissionRepository) GetSubmissionByID(ctx context.Context, id string) (submission.Submission, error) {
	var row submissionRow
	q := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return submission.Submission{}, trapNoRowsErr(err, submission.ErrNotFound)
	}
	return row.toSubmission(), nil
}

func (repo *submissionRepository) QuerySubmissions(ctx context.Context, filter submission.QueryFilter) ([]submission.Submission, error) {
	var conds conditions
	if filter.CourseID != "" {
		conds.add(`course_id = $%d`, filter.CourseID)
	}
	if filter.AssignmentID != "" {
		conds.add(`assignment_id = $%d`, filter.AssignmentID)
	}
	if filter.StudentID != "" {
		conds.add(`student_id = $%d`, filter.StudentID)
	}
	if filter.Status != "" {
		conds.add(`status = $%d`, filter.Status)
	}

	var rows []submissionRow
	q := `SELECT ` + submissionColumns + ` FROM submissions` + conds.String() + ` ORDER BY created_at`
	if err := repo.db.SelectContext(ctx, &rows, q, conds.args...); err != nil {
		return nil, errors.Wrap(err, "selecting submissions")
	}
	subs := make([]submission.Submission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.toSubmission())
	}
	return subs, nil
}

func (repo *submissionRepository) UpdateSubmission(
	ctx context.Context,
	id string,
	fn func(*submission.Submission) error,
) (submission.Submission, error) {
	var sub submission.Submission
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var row submissionRow
		q := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1 FOR UPDATE`
		if err := tx.GetContext(ctx, &row, q, id); err != nil {
			return trapNoRowsErr(err, submission.ErrNotFound)
		}
		sub = row.toSubmission()
		if err := fn(&sub); err != nil {
			return err
		}
		q = `UPDATE submissions
			SET content = :content, status = :status, grade = :grade, updated_at = :updated_at
			WHERE id = :id`
		if _, err := tx.NamedExecContext(ctx, q, newSubmissionRow(sub)); err != nil {
			return errors.Wrap(err, "updating submission")
		}
		return nil
	})
	if err != nil {
		return submission.Submission{}, err
	}
	return sub, nil
}

// DeleteSubmission drops the submission reference from its assignment; grades go with ON DELETE CASCADE.
func (repo *submissionRepository) DeleteSubmission(ctx context.Context, id string) error {
	return withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var row submissionRow
		q := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1 FOR UPDATE`
		if err := tx.GetContext(ctx, &row, q, id); err != nil {
			return trapNoRowsErr(err, submission.ErrNotFound)
		}
		asg, err := getAssignmentForUpdate(ctx, tx, row.AssignmentID)
		switch {
		case err == nil:
			asg = assignment.RemoveSubmission(asg, row.ID)
			if _, err = tx.NamedExecContext(ctx, updateAssignmentQuery, newAssignmentRow(asg)); err != nil {
				return errors.Wrap(err, "dereferencing submission")
			}
		case err != assignment.ErrNotFound:
			return err
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM submissions WHERE id = $1`, id); err != nil {
			return errors.Wrap(err, "deleting submission")
		}
		return nil
	})
}
