// Package storage wires the configured Entity Store.
package storage

import (
	"database/sql"

	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/course"
	"github.com/trezcool/coursework/core/grade"
	"github.com/trezcool/coursework/core/submission"
	"github.com/trezcool/coursework/core/user"
	"github.com/trezcool/coursework/storage/database"
	boltdb "github.com/trezcool/coursework/storage/database/bolt"
	sqlxrepos "github.com/trezcool/coursework/storage/database/sqlx"
)

type Repositories struct {
	Users       user.Repository
	Courses     course.Repository
	Assignments assignment.Repository
	Submissions submission.Repository
	Grades      grade.Repository

	// SQL is the PostgreSQL handle; nil for the bolt engine.
	SQL   *sql.DB
	close func() error
}

func (r *Repositories) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}

// NewBolt builds the repositories on an opened bolt database.
func NewBolt(db *boltdb.DB) *Repositories {
	return &Repositories{
		Users:       boltdb.NewUserRepository(db),
		Courses:     boltdb.NewCourseRepository(db),
		Assignments: boltdb.NewAssignmentRepository(db),
		Submissions: boltdb.NewSubmissionRepository(db),
		Grades:      boltdb.NewGradeRepository(db),
		close:       db.Close,
	}
}

// NewPostgres builds the repositories on an opened PostgreSQL database.
func NewPostgres(db *sql.DB) *Repositories {
	xdb := sqlxrepos.NewDB(db)
	return &Repositories{
		Users:       sqlxrepos.NewUserRepository(xdb),
		Courses:     sqlxrepos.NewCourseRepository(xdb),
		Assignments: sqlxrepos.NewAssignmentRepository(xdb),
		Submissions: sqlxrepos.NewSubmissionRepository(xdb),
		Grades:      sqlxrepos.NewGradeRepository(xdb),
		SQL:         db,
		close:       db.Close,
	}
}

// Open opens the engine selected by `conf.Database.Engine`.
// PostgreSQL databases are created and migrated when `migrate` is set.
func Open(conf *core.Config, logger core.Logger, migrate bool) (*Repositories, error) {
	switch conf.Database.Engine {
	case "bolt":
		db, err := boltdb.Open(conf.Database.Path)
		if err != nil {
			return nil, err
		}
		logger.Info("bolt database opened", map[string]interface{}{"path": db.Path()})
		return NewBolt(db), nil

	case "postgres":
		if migrate {
			if err := database.CreateIfNotExist(conf); err != nil {
				return nil, err
			}
		}
		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err = database.Migrate(db); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		logger.Info("postgres database opened", map[string]interface{}{"host": conf.Database.Address(), "name": conf.Database.Name})
		return NewPostgres(db), nil
	}
	return nil, errors.Errorf("unknown database engine %q", conf.Database.Engine)
}
