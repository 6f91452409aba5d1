package boltdb

import (
	"context"
	"encoding/json"
	"sort"

	"go.etcd.io/bbolt"

	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/grade"
	"github.com/trezcool/coursework/core/submission"
)

type submissionRepository struct {
	db *DB
}

var _ submission.Repository = (*submissionRepository)(nil)

func NewSubmissionRepository(db *DB) submission.Repository {
	return &submissionRepository{db: db}
}

func querySubmissionsTx(tx *bbolt.Tx, filter submission.QueryFilter) ([]submission.Submission, error) {
	subs := make([]submission.Submission, 0)
	err := each(tx.Bucket(bucketSubmissions), func(data []byte) error {
		var sub submission.Submission
		if err := json.Unmarshal(data, &sub); err != nil {
			return err
		}
		if filter.Match(sub) {
			subs = append(subs, sub)
		}
		return nil
	})
	sort.Slice(subs, func(i, j int) bool { return subs[i].CreatedAt.Before(subs[j].CreatedAt) })
	return subs, err
}

// deleteSubmissionTx removes `sub`, its grades, its index entry and its reference in the assignment.
func deleteSubmissionTx(tx *bbolt.Tx, sub submission.Submission) error {
	grades, err := queryGradesTx(tx, grade.QueryFilter{SubmissionID: sub.ID})
	if err != nil {
		return err
	}
	for _, g := range grades {
		if err = tx.Bucket(bucketGrades).Delete([]byte(g.ID)); err != nil {
			return err
		}
	}
	if err = tx.Bucket(bucketGradeKeys).Delete([]byte(sub.ID)); err != nil {
		return err
	}

	ab := tx.Bucket(bucketAssignments)
	var asg assignment.Assignment
	found, err := get(ab, sub.AssignmentID, &asg)
	if err != nil {
		return err
	}
	if found {
		if err = put(ab, asg.ID, assignment.RemoveSubmission(asg, sub.ID)); err != nil {
			return err
		}
	}

	if err = tx.Bucket(bucketSubmissionKeys).Delete([]byte(compositeKey(sub.AssignmentID, sub.StudentID))); err != nil {
		return err
	}
	return tx.Bucket(bucketSubmissions).Delete([]byte(sub.ID))
}

func (repo *submissionRepository) CreateSubmission(_ context.Context, sub submission.Submission) (submission.Submission, error) {
	err := repo.db.bolt.Update(func(tx *bbolt.Tx) error {
		ab := tx.Bucket(bucketAssignments)
		var asg assignment.Assignment
		found, err := get(ab, sub.AssignmentID, &asg)
		if err != nil {
			return err
		}
		if !found {
			return assignment.ErrNotFound
		}

		// unique (assignmentID, studentID)
		kb := tx.Bucket(bucketSubmissionKeys)
		key := []byte(compositeKey(sub.AssignmentID, sub.StudentID))
		if kb.Get(key) != nil {
			return submission.ErrAlreadySubmitted
		}
		if err = kb.Put(key, []byte(sub.ID)); err != nil {
			return err
		}

		if err = put(tx.Bucket(bucketSubmissions), sub.ID, sub); err != nil {
			return err
		}
		return put(ab, asg.ID, assignment.AddSubmission(asg, sub.ID))
	})
	if err != nil {
		return submission.Submission{}, err
	}
	return sub, nil
}

func (repo *submissionRepository) GetSubmissionByID(_ context.Context, id string) (submission.Submission, error) {
	var sub submission.Submission
	err := repo.db.bolt.View(func(tx *bbolt.Tx) error {
		found, err := get(tx.Bucket(bucketSubmissions), id, &sub)
		if err == nil && !found {
			return submission.ErrNotFound
		}
		return err
	})
	return sub, err
}

func (repo *submissionRepository) QuerySubmissions(_ context.Context, filter submission.QueryFilter) ([]submission.Submission, error) {
	var subs []submission.Submission
	err := repo.db.bolt.View(func(tx *bbolt.Tx) error {
		var err error
		subs, err = querySubmissionsTx(tx, filter)
		return err
	})
	return subs, err
}

func (repo *submissionRepository) UpdateSubmission(
	_ context.Context,
	id string,
	fn func(*submission.Submission) error,
) (submission.Submission, error) {
	var sub submission.Submission
	err := repo.db.bolt.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketSubmissions)
		found, err := get(b, id, &sub)
		if err != nil {
			return err
		}
		if !found {
			return submission.ErrNotFound
		}
		if err = fn(&sub); err != nil {
			return err
		}
		return put(b, id, sub)
	})
	if err != nil {
		return submission.Submission{}, err
	}
	return sub, nil
}

func (repo *submissionRepository) DeleteSubmission(_ context.Context, id string) error {
	return repo.db.bolt.Update(func(tx *bbolt.Tx) error {
		var sub submission.Submission
		found, err := get(tx.Bucket(bucketSubmissions), id, &sub)
		if err != nil {
			return err
		}
		if !found {
			return submission.ErrNotFound
		}
		return deleteSubmissionTx(tx, sub)
	})
}
