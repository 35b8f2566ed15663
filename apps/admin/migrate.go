package main

import (
	"github.com/trezcool/studytrack/storage/docstore/pgstore"
)

var gooseRunFunc = pgstore.Migrate // mockable

func (cli *commandLine) migrate(args []string) error {
	if len(args) == 0 {
		cli.printUsage()
		return errHelp
	}
	db, err := cli.openDB()
	if err != nil {
		return err
	}
	defer db.Close()
	return gooseRunFunc(db, args[0], args[1:]...)
}
