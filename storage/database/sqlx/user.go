package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core/user"
)

const userColumns = `id, name, username, email, role, is_active, created_at, updated_at`

type userRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Username  string    `db:"username"`
	Email     string    `db:"email"`
	Role      string    `db:"role"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:        r.ID,
		Name:      r.Name,
		Username:  r.Username,
		Email:     r.Email,
		Role:      r.Role,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) selectUsers(ctx context.Context, conds conditions) ([]user.User, error) {
	var rows []userRow
	q := `SELECT ` + userColumns + ` FROM users` + conds.String() + ` ORDER BY created_at`
	if err := repo.db.SelectContext(ctx, &rows, q, conds.args...); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toUser())
	}
	return users, nil
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string) error {
	var rows []userRow
	q := `SELECT ` + userColumns + ` FROM users WHERE ($1 <> '' AND username = $1) OR ($2 <> '' AND email = $2) LIMIT 1`
	if err := repo.db.SelectContext(ctx, &rows, q, username, email); err != nil {
		return errors.Wrap(err, "checking username uniqueness")
	}
	if len(rows) == 0 {
		return nil
	}
	if username != "" && rows[0].Username == username {
		return user.ErrUsernameExists
	}
	return user.ErrEmailExists
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `INSERT INTO users (` + userColumns + `)
		VALUES (:id, :name, :username, :email, :role, :is_active, :created_at, :updated_at)`
	row := userRow{
		ID:        usr.ID,
		Name:      usr.Name,
		Username:  usr.Username,
		Email:     usr.Email,
		Role:      usr.Role,
		IsActive:  usr.IsActive,
		CreatedAt: usr.CreatedAt,
		UpdatedAt: usr.UpdatedAt,
	}
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		if pqCode(err) == uniqueViolation {
			return user.User{}, user.ErrUsernameExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	return repo.selectUsers(ctx, conditions{})
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	var row userRow
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound)
	}
	return row.toUser(), nil
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	var conds conditions
	if len(filter.Roles) > 0 {
		conds.add(`role = ANY($%d)`, pq.Array(filter.Roles))
	}
	if filter.Search != "" {
		conds.add(`(LOWER(name) LIKE $%d OR LOWER(username) LIKE $%d OR LOWER(email) LIKE $%d)`, "%"+filter.Search+"%")
	}
	return repo.selectUsers(ctx, conds)
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	return withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		for _, id := range ids {
			if err := deleteUserTx(ctx, tx, id); err != nil {
				return err
			}
		}
		return nil
	})
}

func deleteUserTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	var teaches bool
	q := `SELECT EXISTS (SELECT 1 FROM courses WHERE teacher_id = $1)`
	if err := tx.GetContext(ctx, &teaches, q, id); err != nil {
		return errors.Wrap(err, "checking taught courses")
	}
	if teaches {
		return user.ErrOwnsCourses
	}

	q = `UPDATE courses SET student_ids = array_remove(student_ids, $1::uuid) WHERE $1::uuid = ANY(student_ids)`
	if _, err := tx.ExecContext(ctx, q, id); err != nil {
		return errors.Wrap(err, "leaving rosters")
	}

	// grades go with their submission (ON DELETE CASCADE)
	q = `UPDATE assignments a SET submission_ids = array_remove(a.submission_ids, s.id)
		FROM submissions s WHERE s.assignment_id = a.id AND s.student_id = $1`
	if _, err := tx.ExecContext(ctx, q, id); err != nil {
		return errors.Wrap(err, "unlinking submissions")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM submissions WHERE student_id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting submissions")
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return nil
}
