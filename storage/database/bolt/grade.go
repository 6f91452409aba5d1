package boltdb

import (
	"context"
	"encoding/json"
	"sort"

	"go.etcd.io/bbolt"

	"github.com/trezcool/coursework/core/grade"
	"github.com/trezcool/coursework/core/submission"
)

type gradeRepository struct {
	db *DB
}

var _ grade.Repository = (*gradeRepository)(nil)

func NewGradeRepository(db *DB) grade.Repository {
	return &gradeRepository{db: db}
}

// queryGradesTx returns the matching grades, newest first.
func queryGradesTx(tx *bbolt.Tx, filter grade.QueryFilter) ([]grade.Grade, error) {
	grades := make([]grade.Grade, 0)
	err := each(tx.Bucket(bucketGrades), func(data []byte) error {
		var g grade.Grade
		if err := json.Unmarshal(data, &g); err != nil {
			return err
		}
		if filter.Match(g) {
			grades = append(grades, g)
		}
		return nil
	})
	sort.Slice(grades, func(i, j int) bool { return grades[i].CreatedAt.After(grades[j].CreatedAt) })
	return grades, err
}

func (repo *gradeRepository) CreateGrade(_ context.Context, g grade.Grade) (grade.Grade, error) {
	err := repo.db.bolt.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketSubmissions).Get([]byte(g.SubmissionID)) == nil {
			return submission.ErrNotFound
		}
		kb := tx.Bucket(bucketGradeKeys)
		if kb.Get([]byte(g.SubmissionID)) != nil {
			return grade.ErrAlreadyGraded
		}
		if err := kb.Put([]byte(g.SubmissionID), []byte(g.ID)); err != nil {
			return err
		}
		return put(tx.Bucket(bucketGrades), g.ID, g)
	})
	if err != nil {
		return grade.Grade{}, err
	}
	return g, nil
}

func (repo *gradeRepository) QueryGrades(_ context.Context, filter grade.QueryFilter) ([]grade.Grade, error) {
	var grades []grade.Grade
	err := repo.db.bolt.View(func(tx *bbolt.Tx) error {
		var err error
		grades, err = queryGradesTx(tx, filter)
		return err
	})
	return grades, err
}
