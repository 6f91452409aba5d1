package main

import (
	"context"
	"fmt"

	"github.com/trezcool/coursework/core/user"
)

// addUser creates a user.User, optionally printing an API token for it.
func (cli *commandLine) addUser(nu user.NewUser, withToken bool) error {
	usr, err := cli.usrSvc.Create(context.Background(), nu)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "created %s %q (%s)\n", usr.Role, usr.Name, usr.ID)
	if withToken {
		return cli.printToken(usr)
	}
	return nil
}
