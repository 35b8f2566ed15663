package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/trezcool/studytrack/core"
	"github.com/trezcool/studytrack/core/status"
	emailsvc "github.com/trezcool/studytrack/services/email"
	logsvc "github.com/trezcool/studytrack/services/logger"
	"github.com/trezcool/studytrack/storage/docstore"
	"github.com/trezcool/studytrack/storage/docstore/pgstore"
)

func main() {
	conf, err := core.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}

	zl := logsvc.NewZeroLog(os.Stderr, conf.Debug).With().Str("component", "admin").Logger()
	logger := logsvc.NewZeroLogger(zl)

	codec, err := status.Build(conf.Status.VariantsFile)
	if err != nil {
		logger.Fatal("loading status variants", err)
	}
	status.SetDefault(codec)

	// start CLI
	cli := commandLine{
		conf:    conf,
		logger:  logger,
		mailSvc: emailsvc.NewService(conf, logger),
		out:     os.Stdout,
		now:     time.Now,
		openDB: func() (*sql.DB, error) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := pgstore.CreateIfNotExist(ctx, conf.Database); err != nil {
				return nil, err
			}
			db, err := pgstore.Open(conf.Database)
			if err != nil {
				return nil, err
			}
			return db.DB, nil
		},
		openStore: func(ctx context.Context) (core.DocumentStore, func() error, error) {
			store, err := docstore.Open(ctx, conf, logger)
			if err != nil {
				return nil, nil, err
			}
			return store, store.Close, nil
		},
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		os.Exit(1)
	}
}
