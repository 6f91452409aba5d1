// Package boltdb is the embedded Entity Store: one bbolt file, one bucket per entity, JSON values keyed by id.
package boltdb

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
)

var (
	bucketUsers       = []byte("users")
	bucketCourses     = []byte("courses")
	bucketAssignments = []byte("assignments")
	bucketSubmissions = []byte("submissions")
	bucketGrades      = []byte("grades")

	// indexes
	bucketSubmissionKeys = []byte("submission_keys") // "assignmentID:studentID" -> submissionID
	bucketGradeKeys      = []byte("grade_keys")      // submissionID -> gradeID

	allBuckets = [][]byte{
		bucketUsers, bucketCourses, bucketAssignments, bucketSubmissions, bucketGrades,
		bucketSubmissionKeys, bucketGradeKeys,
	}
)

type DB struct {
	bolt *bbolt.DB
}

// Open opens (or creates) the database file at `path` and makes sure every bucket exists.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "creating database directory")
	}
	bdb, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	err = bdb.Update(func(tx *bbolt.Tx) error {
		for _, b := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = bdb.Close()
		return nil, errors.Wrap(err, "creating buckets")
	}
	return &DB{bolt: bdb}, nil
}

func (db *DB) Close() error {
	return db.bolt.Close()
}

func (db *DB) Path() string {
	return db.bolt.Path()
}

func get(b *bbolt.Bucket, key string, out interface{}) (bool, error) {
	data := b.Get([]byte(key))
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, errors.Wrapf(err, "decoding %s", key)
	}
	return true, nil
}

func put(b *bbolt.Bucket, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", key)
	}
	return b.Put([]byte(key), data)
}

// each decodes every value of `b` with `decode`.
func each(b *bbolt.Bucket, decode func(data []byte) error) error {
	return b.ForEach(func(_, v []byte) error {
		return decode(v)
	})
}

func compositeKey(parts ...string) string {
	return strings.Join(parts, ":")
}
