package main

import (
	"log"
	"os"

	"github.com/trezcool/coursework/core"
	logsvc "github.com/trezcool/coursework/services/logger"
	"github.com/trezcool/coursework/storage"
)

func main() {
	conf, err := core.NewConfig()
	if err != nil {
		log.Fatal(err)
	}
	logger := logsvc.NewRollbarLogger(os.Stdout, "ADMIN", conf)
	logger.Enable(!conf.Debug)

	// `migrate` drives goose itself
	autoMigrate := !(len(os.Args) > 1 && os.Args[1] == "migrate")
	repos, err := storage.Open(conf, logger, autoMigrate)
	if err != nil {
		logger.Fatal("opening database", err)
	}

	cli := newCommandLine(conf, repos, os.Stdout)
	err = cli.run(os.Args)
	if cerr := repos.Close(); cerr != nil {
		logger.Error("closing database", cerr)
	}
	if err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		os.Exit(1)
	}
}
