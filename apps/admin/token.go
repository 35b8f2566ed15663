package main

import (
	"fmt"

	echoapi "github.com/trezcool/studytrack/apps/api/echo"
)

func (cli *commandLine) token(uid string) error {
	token, err := echoapi.GenerateToken(echoapi.NewClaims(uid, cli.conf), cli.conf)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, token)
	return nil
}
