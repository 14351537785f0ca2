package main

import (
	"context"
	"fmt"

	"github.com/kramik/kramik/core/session"
)

func (cli *commandLine) login(email, pwd string, userType session.Role) error {
	identity, err := cli.manager.Login(context.Background(), session.Credentials{
		Email:    email,
		Password: pwd,
		UserType: userType,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s <%s> (%s)\n", identity.Name, identity.Email, identity.Role)
	return nil
}
