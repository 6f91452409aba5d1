package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/coursework/core"
)

// Roles
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

var (
	AllRoles = []string{RoleAdmin, RoleTeacher, RoleStudent}

	Roles = []Role{
		{Name: "Student", Value: RoleStudent},
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Admin", Value: RoleAdmin},
	}
)

func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (u User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u User) IsStudent() bool { return u.Role == RoleStudent }

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name     string `json:"name" validate:"required,notblank"`
	Username string `json:"username" validate:"omitempty,min=3,alphanum_"`
	Email    string `json:"email" validate:"omitempty,email"`
	Role     string `json:"role" validate:"required,role"`
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = core.CleanString(nu.Role, true /* lower */)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, nu.Username, nu.Email)
}

type QueryFilter struct {
	Search string   `query:"search"`
	Roles  []string `query:"role"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search, true /* lower */)
	for i, r := range qf.Roles {
		qf.Roles[i] = core.CleanString(r, true /* lower */)
	}
}

// Match reports whether `u` passes the filter (AND on the available fields).
// Search does a case-insensitive match on one of Name, Username or Email.
func (qf QueryFilter) Match(u User) bool {
	if len(qf.Roles) > 0 {
		var ok bool
		for _, r := range qf.Roles {
			if u.Role == r {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if qf.Search != "" {
		return containsFold(u.Name, qf.Search) || containsFold(u.Username, qf.Search) || containsFold(u.Email, qf.Search)
	}
	return true
}
