package boltdb

import (
	"context"
	"encoding/json"
	"sort"

	"go.etcd.io/bbolt"

	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	err := repo.db.bolt.Update(func(tx *bbolt.Tx) error {
		return put(tx.Bucket(bucketCourses), crs.ID, crs)
	})
	return crs, err
}

func (repo *courseRepository) GetCourseByID(_ context.Context, id string) (course.Course, error) {
	var crs course.Course
	err := repo.db.bolt.View(func(tx *bbolt.Tx) error {
		found, err := get(tx.Bucket(bucketCourses), id, &crs)
		if err == nil && !found {
			return course.ErrNotFound
		}
		return err
	})
	return crs, err
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter course.QueryFilter) ([]course.Course, error) {
	courses := make([]course.Course, 0)
	err := repo.db.bolt.View(func(tx *bbolt.Tx) error {
		return each(tx.Bucket(bucketCourses), func(data []byte) error {
			var crs course.Course
			if err := json.Unmarshal(data, &crs); err != nil {
				return err
			}
			if filter.Match(crs) {
				courses = append(courses, crs)
			}
			return nil
		})
	})
	sort.Slice(courses, func(i, j int) bool { return courses[i].CreatedAt.Before(courses[j].CreatedAt) })
	return courses, err
}

func (repo *courseRepository) UpdateCourse(_ context.Context, id string, fn func(*course.Course) error) (course.Course, error) {
	var crs course.Course
	err := repo.db.bolt.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketCourses)
		found, err := get(b, id, &crs)
		if err != nil {
			return err
		}
		if !found {
			return course.ErrNotFound
		}
		if err = fn(&crs); err != nil {
			return err
		}
		return put(b, id, crs)
	})
	if err != nil {
		return course.Course{}, err
	}
	return crs, nil
}

func (repo *courseRepository) DeleteCourse(_ context.Context, id string) error {
	return repo.db.bolt.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketCourses)
		if b.Get([]byte(id)) == nil {
			return course.ErrNotFound
		}
		asgs, err := queryAssignmentsTx(tx, assignment.QueryFilter{CourseID: id})
		if err != nil {
			return err
		}
		for _, asg := range asgs {
			if err = deleteAssignmentTx(tx, asg); err != nil {
				return err
			}
		}
		return b.Delete([]byte(id))
	})
}
