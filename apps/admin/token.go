package main

import (
	"context"
	"fmt"

	echoapi "github.com/trezcool/coursework/apps/api/echo"
	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/user"
)

// findUser looks a user up by exact username or email.
func (cli *commandLine) findUser(ctx context.Context, uname string) (user.User, error) {
	uname = core.CleanString(uname, true /* lower */)
	users, err := cli.usrSvc.Filter(ctx, user.QueryFilter{Search: uname})
	if err != nil {
		return user.User{}, err
	}
	for _, usr := range users {
		if usr.Username == uname || usr.Email == uname {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (cli *commandLine) issueToken(uname string) error {
	usr, err := cli.findUser(context.Background(), uname)
	if err != nil {
		return err
	}
	return cli.printToken(usr)
}

func (cli *commandLine) printToken(usr user.User) error {
	token, err := echoapi.GenerateToken(echoapi.GetUserClaims(usr, cli.conf), cli.conf)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, token)
	return nil
}
