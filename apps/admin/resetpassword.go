package main

import (
	"time"

	"github.com/lejardineden/backend/core"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	email = core.CleanEmail(email)

	usr, err := cli.usrRepo.GetUserByEmail(email)
	if err != nil {
		return err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = cli.usrRepo.UpdateUser(usr, nil)
	return err
}
