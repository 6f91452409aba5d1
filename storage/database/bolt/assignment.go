package boltdb

import (
	"context"
	"encoding/json"
	"sort"

	"go.etcd.io/bbolt"

	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/course"
	"github.com/trezcool/coursework/core/submission"
)

type assignmentRepository struct {
	db *DB
}

var _ assignment.Repository = (*assignmentRepository)(nil)

func NewAssignmentRepository(db *DB) assignment.Repository {
	return &assignmentRepository{db: db}
}

func queryAssignmentsTx(tx *bbolt.Tx, filter assignment.QueryFilter) ([]assignment.Assignment, error) {
	asgs := make([]assignment.Assignment, 0)
	err := each(tx.Bucket(bucketAssignments), func(data []byte) error {
		var asg assignment.Assignment
		if err := json.Unmarshal(data, &asg); err != nil {
			return err
		}
		if filter.Match(asg) {
			asgs = append(asgs, asg)
		}
		return nil
	})
	sort.Slice(asgs, func(i, j int) bool { return asgs[i].DueDate.Before(asgs[j].DueDate) })
	return asgs, err
}

// deleteAssignmentTx removes `asg` with its submissions and their grades.
func deleteAssignmentTx(tx *bbolt.Tx, asg assignment.Assignment) error {
	subs, err := querySubmissionsTx(tx, submission.QueryFilter{AssignmentID: asg.ID})
	if err != nil {
		return err
	}
	for _, sub := range subs {
		if err = deleteSubmissionTx(tx, sub); err != nil {
			return err
		}
	}
	return tx.Bucket(bucketAssignments).Delete([]byte(asg.ID))
}

func (repo *assignmentRepository) CreateAssignment(_ context.Context, asg assignment.Assignment) (assignment.Assignment, error) {
	err := repo.db.bolt.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketCourses).Get([]byte(asg.CourseID)) == nil {
			return course.ErrNotFound
		}
		return put(tx.Bucket(bucketAssignments), asg.ID, asg)
	})
	if err != nil {
		return assignment.Assignment{}, err
	}
	return asg, nil
}

func (repo *assignmentRepository) GetAssignmentByID(_ context.Context, id string) (assignment.Assignment, error) {
	var asg assignment.Assignment
	err := repo.db.bolt.View(func(tx *bbolt.Tx) error {
		found, err := get(tx.Bucket(bucketAssignments), id, &asg)
		if err == nil && !found {
			return assignment.ErrNotFound
		}
		return err
	})
	return asg, err
}

func (repo *assignmentRepository) QueryAssignments(_ context.Context, filter assignment.QueryFilter) ([]assignment.Assignment, error) {
	var asgs []assignment.Assignment
	err := repo.db.bolt.View(func(tx *bbolt.Tx) error {
		var err error
		asgs, err = queryAssignmentsTx(tx, filter)
		return err
	})
	return asgs, err
}

func (repo *assignmentRepository) UpdateAssignment(
	_ context.Context,
	id string,
	fn func(*assignment.Assignment) error,
) (assignment.Assignment, error) {
	var asg assignment.Assignment
	err := repo.db.bolt.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketAssignments)
		found, err := get(b, id, &asg)
		if err != nil {
			return err
		}
		if !found {
			return assignment.ErrNotFound
		}
		if err = fn(&asg); err != nil {
			return err
		}
		return put(b, id, asg)
	})
	if err != nil {
		return assignment.Assignment{}, err
	}
	return asg, nil
}

func (repo *assignmentRepository) DeleteAssignment(_ context.Context, id string) error {
	return repo.db.bolt.Update(func(tx *bbolt.Tx) error {
		var asg assignment.Assignment
		found, err := get(tx.Bucket(bucketAssignments), id, &asg)
		if err != nil {
			return err
		}
		if !found {
			return assignment.ErrNotFound
		}
		return deleteAssignmentTx(tx, asg)
	})
}
