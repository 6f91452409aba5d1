package boltdb

import (
	"context"
	"encoding/json"
	"sort"

	"go.etcd.io/bbolt"

	"github.com/trezcool/coursework/core/course"
	"github.com/trezcool/coursework/core/submission"
	"github.com/trezcool/coursework/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) query(filter func(user.User) bool) ([]user.User, error) {
	users := make([]user.User, 0)
	err := repo.db.bolt.View(func(tx *bbolt.Tx) error {
		return each(tx.Bucket(bucketUsers), func(data []byte) error {
			var u user.User
			if err := json.Unmarshal(data, &u); err != nil {
				return err
			}
			if filter == nil || filter(u) {
				users = append(users, u)
			}
			return nil
		})
	})
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, err
}

func (repo *userRepository) CheckUsernameUniqueness(_ context.Context, username, email string) error {
	users, err := repo.query(nil)
	if err != nil {
		return err
	}
	for _, usr := range users {
		if username != "" && usr.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	err := repo.db.bolt.Update(func(tx *bbolt.Tx) error {
		return put(tx.Bucket(bucketUsers), usr.ID, usr)
	})
	return usr, err
}

func (repo *userRepository) QueryAllUsers(_ context.Context) ([]user.User, error) {
	return repo.query(nil)
}

func (repo *userRepository) GetUserByID(_ context.Context, id string) (user.User, error) {
	var usr user.User
	err := repo.db.bolt.View(func(tx *bbolt.Tx) error {
		found, err := get(tx.Bucket(bucketUsers), id, &usr)
		if err == nil && !found {
			return user.ErrNotFound
		}
		return err
	})
	return usr, err
}

func (repo *userRepository) FilterUsers(_ context.Context, filter user.QueryFilter) ([]user.User, error) {
	return repo.query(filter.Match)
}

func (repo *userRepository) DeleteUsersByID(_ context.Context, ids ...string) error {
	return repo.db.bolt.Update(func(tx *bbolt.Tx) error {
		for _, id := range ids {
			if err := deleteUserTx(tx, id); err != nil {
				return err
			}
		}
		return nil
	})
}

func deleteUserTx(tx *bbolt.Tx, id string) error {
	cb := tx.Bucket(bucketCourses)
	var rosters []course.Course
	err := each(cb, func(data []byte) error {
		var crs course.Course
		if err := json.Unmarshal(data, &crs); err != nil {
			return err
		}
		if crs.TeacherID == id {
			return user.ErrOwnsCourses
		}
		if crs.IsEnrolled(id) {
			rosters = append(rosters, crs)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, crs := range rosters {
		if crs, err = course.Unenroll(crs, user.User{ID: id}); err != nil {
			return err
		}
		if err = put(cb, crs.ID, crs); err != nil {
			return err
		}
	}

	subs, err := querySubmissionsTx(tx, submission.QueryFilter{StudentID: id})
	if err != nil {
		return err
	}
	for _, sub := range subs {
		if err = deleteSubmissionTx(tx, sub); err != nil {
			return err
		}
	}
	return tx.Bucket(bucketUsers).Delete([]byte(id))
}
