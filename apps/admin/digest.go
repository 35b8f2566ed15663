package main

import (
	"context"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/studytrack/core"
	"github.com/trezcool/studytrack/core/mirror"
	emailsvc "github.com/trezcool/studytrack/services/email"
)

// waiter is implemented by email services sending in the background.
type waiter interface {
	Wait()
}

// digest mirrors uid until every level has loaded, then emails the progress digest.
func (cli *commandLine) digest(uid, address string) error {
	to, err := mail.ParseAddress(address)
	if err != nil {
		return core.NewValidationError(errors.Wrap(err, "invalid email"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	store, closeStore, err := cli.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	m := mirror.NewManager(store, cli.logger)
	detach := m.Attach(uid)
	defer detach()

	snap, err := m.Wait(ctx)
	if err != nil {
		return errors.Wrap(err, "loading mirror")
	}

	msg, err := emailsvc.NewDigest(*to, snap, cli.now())
	if err != nil {
		return err
	}
	cli.mailSvc.SendMessages(msg)
	if w, ok := cli.mailSvc.(waiter); ok {
		w.Wait()
	}
	cli.logger.Info("digest sent", core.UserID(uid), map[string]interface{}{"to": to.Address})
	return nil
}
