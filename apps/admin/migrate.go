package main

import (
	"errors"

	"github.com/trezcool/coursework/storage/database"
)

var (
	migrateFunc = database.RunMigrations // mockable

	errNoSQLDatabase = errors.New("migrations need the postgres database engine")
)

func (cli *commandLine) migrate(args []string) error {
	if cli.repos.SQL == nil {
		return errNoSQLDatabase
	}
	return migrateFunc(cli.repos.SQL, args[0], args[1:]...)
}
