package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/user"
	"github.com/trezcool/coursework/storage"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf   *core.Config
	repos  *storage.Repositories
	usrSvc *user.Service
	out    io.Writer
}

func newCommandLine(conf *core.Config, repos *storage.Repositories, out io.Writer) *commandLine {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	return &commandLine{
		conf:   conf,
		repos:  repos,
		usrSvc: user.NewService(repos.Users, validate),
		out:    out,
	}
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  adduser -name NAME -role ROLE [-username USERNAME] [-email EMAIL] [-token] - create a user")
	fmt.Fprintln(cli.out, "  token -username USERNAME|EMAIL - print an API token for a user")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command (postgres only)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserCmd.SetOutput(cli.out)
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserUname := addUserCmd.String("username", "", "The user's username.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserRole := addUserCmd.String("role", user.RoleStudent, "One of admin, teacher or student.")
	addUserToken := addUserCmd.Bool("token", false, "Print an API token for the new user.")

	tokenCmd := flag.NewFlagSet("token", flag.ContinueOnError)
	tokenCmd.SetOutput(cli.out)
	tokenUname := tokenCmd.String("username", "", "The user's username or email.")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserName == "" {
			addUserCmd.Usage()
			return errHelp
		}
		nu := user.NewUser{
			Name:     *addUserName,
			Username: *addUserUname,
			Email:    *addUserEmail,
			Role:     *addUserRole,
		}
		return cli.addUser(nu, *addUserToken)

	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *tokenUname == "" {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.issueToken(*tokenUname)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	default:
		cli.printUsage()
		return errHelp
	}
}
