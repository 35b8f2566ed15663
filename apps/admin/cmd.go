package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/trezcool/studytrack/core"
)

var errHelp = errors.New("help provided")

// storeOpener opens the document store and returns the function closing it.
type storeOpener func(ctx context.Context) (core.DocumentStore, func() error, error)

type commandLine struct {
	conf      *core.Config
	logger    core.Logger
	mailSvc   core.EmailService
	out       io.Writer
	now       func() time.Time
	openDB    func() (*sql.DB, error)
	openStore storeOpener
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]           - run a goose command on the documents database")
	fmt.Fprintln(cli.out, "  token -uid UID                   - print an API token for a user")
	fmt.Fprintln(cli.out, "  statuses -uid UID                - list the labs whose status is not recognized")
	fmt.Fprintln(cli.out, "  digest -uid UID -email ADDRESS   - email the progress digest of a user")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	tokenCmd := flag.NewFlagSet("token", flag.ContinueOnError)
	tokenUID := tokenCmd.String("uid", "", "The user id.")

	statusesCmd := flag.NewFlagSet("statuses", flag.ContinueOnError)
	statusesUID := statusesCmd.String("uid", "", "The user id.")

	digestCmd := flag.NewFlagSet("digest", flag.ContinueOnError)
	digestUID := digestCmd.String("uid", "", "The user id.")
	digestEmail := digestCmd.String("email", "", "The recipient of the digest.")

	for _, fs := range []*flag.FlagSet{tokenCmd, statusesCmd, digestCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		return cli.migrate(args[2:])

	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *tokenUID == "" {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.token(*tokenUID)

	case "statuses":
		if err := statusesCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *statusesUID == "" {
			statusesCmd.Usage()
			return errHelp
		}
		return cli.statuses(*statusesUID)

	case "digest":
		if err := digestCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *digestUID == "" || *digestEmail == "" {
			digestCmd.Usage()
			return errHelp
		}
		return cli.digest(*digestUID, *digestEmail)

	default:
		cli.printUsage()
		return errHelp
	}
}
