package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/coursework/apps/api/echo"
	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/user"
	"github.com/trezcool/coursework/testutil"
)

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	var out bytes.Buffer
	repos := testutil.OpenBoltDB(t)
	return newCommandLine(testutil.NewConfig(), repos, &out), &out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, errorsCause(err))
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Contains(t, err.Error(), tt.wantErrStr)
		}
	default:
		assert.NoError(t, err)
	}
}

func errorsCause(err error) error {
	if verr, ok := err.(*core.ValidationError); ok && verr.Err != nil {
		return verr.Err
	}
	return err
}

func Test_commandLine_addUser(t *testing.T) {
	cli, out := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no name", args: []string{"adduser", "-role", "teacher"}, wantErr: errHelp},
		{name: "invalid role", args: []string{"adduser", "-name", "Ada", "-role", "janitor"}, wantErrStr: "'role'"},
		{name: "ok", args: []string{"adduser", "-name", "Ada Lovelace", "-username", "Ada", "-email", "ada@example.com", "-role", "teacher"}},
		{name: "duplicate username", args: []string{"adduser", "-name", "Ada bis", "-username", "ada"}, wantErr: user.ErrUsernameExists},
		{name: "duplicate email", args: []string{"adduser", "-name", "Ada ter", "-email", "ADA@example.com"}, wantErr: user.ErrEmailExists},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}

	usr, err := cli.findUser(context.Background(), "ada")
	require.NoError(t, err)
	assert.Equal(t, user.RoleTeacher, usr.Role)
	assert.True(t, usr.IsActive)
	assert.Contains(t, out.String(), usr.ID)
}

func Test_commandLine_token(t *testing.T) {
	cli, out := setup(t)
	usr := testutil.CreateUser(t, cli.repos.Users, "grace", user.RoleStudent)

	tests := []cliTest{
		{name: "no args", args: []string{"token"}, wantErr: errHelp},
		{name: "user not found", args: []string{"token", "-username", "lol"}, wantErr: user.ErrNotFound},
		{name: "with username", args: []string{"token", "-username", "Grace"}},
		{name: "with email", args: []string{"token", "-username", usr.Email}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.NotEmpty(t, lines)
	claims := new(echoapi.Claims)
	_, err := jwt.ParseWithClaims(lines[len(lines)-1], claims, func(*jwt.Token) (interface{}, error) {
		return []byte(cli.conf.SecretKey), nil
	})
	require.NoError(t, err)
	assert.Equal(t, usr.ID, claims.Subject)
	assert.Equal(t, user.RoleStudent, claims.Role)

	t.Run("adduser with token", func(t *testing.T) {
		out.Reset()
		require.NoError(t, cli.run([]string{"admin", "adduser", "-name", "Alan", "-username", "alan", "-token"}))
		assert.Len(t, strings.Split(strings.TrimSpace(out.String()), "\n"), 2)
	})
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	t.Run("bolt engine", func(t *testing.T) {
		assert.Equal(t, errNoSQLDatabase, cli.run([]string{"admin", "migrate", "up"}))
	})

	// sql.Open does not connect; the goose runner is mocked below
	db, err := sql.Open("postgres", "postgres://localhost/coursework?sslmode=disable")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	cli.repos.SQL = db

	var ran []string
	migrateFunc = func(_ *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		ran = append(ran, command)
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "1"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "add_course_tags", "sql"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(args))
		})
	}
	assert.Equal(t, []string{"up", "up-to", "down", "status", "create"}, ran)
}
