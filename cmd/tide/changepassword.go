package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/tidewallet/tide-daemon/internal/interfaces/ws"
)

var changepassword = cli.Command{
	Name:  "changepassword",
	Usage: "re-encrypt every stored secret under a new password",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "current_password",
			Usage: "the password currently protecting the wallet",
		},
		&cli.StringFlag{
			Name:  "new_password",
			Usage: "the new password",
		},
	},
	Action: changePasswordAction,
}

func changePasswordAction(ctx *cli.Context) error {
	if _, err := request(ctx, ws.TypeChangePassword, map[string]string{
		"currentPassword": ctx.String("current_password"),
		"newPassword":     ctx.String("new_password"),
	}); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Password has been changed")
	return nil
}
