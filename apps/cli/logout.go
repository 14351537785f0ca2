package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) logout() error {
	cli.manager.Logout(context.Background())
	fmt.Println("Signed out.")
	return nil
}
