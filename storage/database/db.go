package database

import (
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/trezcool/coursework/core"
	appfs "github.com/trezcool/coursework/fs"
)

const migrationsDir = "migrations"

func open(dbName string, admin bool, conf *core.Config) (*sql.DB, error) {
	user := url.UserPassword(conf.Database.User, conf.Database.Password)
	if admin && conf.Database.AdminUser != "" {
		user = url.UserPassword(conf.Database.AdminUser, conf.Database.AdminPassword)
	}

	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   "postgres",
		User:     user,
		Host:     conf.Database.Address(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return sql.Open("postgres", u.String())
}

// Open connects to the application database and waits for it to be ready.
func Open(conf *core.Config) (*sql.DB, error) {
	db, err := open(conf.Database.Name, false, conf)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err = ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

const pingAttempts = 30

// ping retries until the server answers, backing off linearly.
func ping(db *sql.DB) (err error) {
	for i := 1; i <= pingAttempts; i++ {
		if err = db.Ping(); err == nil {
			return nil
		}
		time.Sleep(time.Duration(i) * 100 * time.Millisecond)
	}
	return errors.Wrapf(err, "database not ready after %d attempts", pingAttempts)
}

// exists reports whether query, given arg, returns at least one row.
func exists(db *sql.DB, query string, arg interface{}) (bool, error) {
	var found bool
	err := db.QueryRow("SELECT EXISTS ("+query+")", arg).Scan(&found)
	return found, err
}

func createAppUser(db *sql.DB, conf *core.Config) error {
	if conf.Database.User == "" {
		return nil
	}
	found, err := exists(db, "SELECT 1 FROM pg_roles WHERE rolname = $1", conf.Database.User)
	if err != nil {
		return errors.Wrap(err, "checking app user")
	}
	if found {
		return nil
	}
	// CREATE USER takes no bind parameters
	q := fmt.Sprintf(
		"CREATE USER %s CREATEDB ENCRYPTED PASSWORD %s",
		pq.QuoteIdentifier(conf.Database.User), pq.QuoteLiteral(conf.Database.Password),
	)
	_, err = db.Exec(q)
	return errors.Wrap(err, "creating app user")
}

func createDB(db *sql.DB, conf *core.Config) error {
	found, err := exists(db, "SELECT 1 FROM pg_database WHERE datname = $1", conf.Database.Name)
	if err != nil {
		return errors.Wrap(err, "checking database")
	}
	if found {
		return nil
	}
	_, err = db.Exec("CREATE DATABASE " + pq.QuoteIdentifier(conf.Database.Name))
	return errors.Wrap(err, "creating database")
}

// CreateIfNotExist creates the application role (as admin) and database (as the application role).
func CreateIfNotExist(conf *core.Config) error {
	adminDB, err := open("postgres", true, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = adminDB.Close() }()

	if err = ping(adminDB); err != nil {
		return errors.Wrap(err, "pinging database")
	}
	if err = createAppUser(adminDB, conf); err != nil {
		return errors.Wrap(err, "creating app user")
	}

	db, err := open("postgres", false, conf)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()

	if err = createDB(db, conf); err != nil {
		return errors.Wrap(err, "creating database")
	}
	return nil
}

// RunMigrations runs a goose command ("up", "down", "status", "version", ...) against the embedded migrations.
func RunMigrations(db *sql.DB, command string, args ...string) error {
	goose.SetBaseFS(appfs.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "setting goose dialect")
	}
	if err := goose.Run(command, db, migrationsDir, args...); err != nil {
		return errors.Wrapf(err, "running migrations %s", command)
	}
	return nil
}

func Migrate(db *sql.DB) error {
	return RunMigrations(db, "up")
}
