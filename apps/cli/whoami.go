package main

import (
	"fmt"

	"github.com/kramik/kramik/core/session"
)

func (cli *commandLine) whoami() error {
	identity, ok := cli.manager.Identity()
	if !ok {
		return session.ErrNoActiveSession
	}
	fmt.Printf("%s <%s> (%s)\n", identity.Name, identity.Email, identity.Role)
	if identity.WalletAddress != "" {
		fmt.Printf("wallet: %s\n", identity.WalletAddress)
	}
	return nil
}
