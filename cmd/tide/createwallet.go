package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/tidewallet/tide-daemon/internal/interfaces/ws"
)

var createwallet = cli.Command{
	Name:  "create",
	Usage: "initialize the wallet and derive the first account",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "password",
			Usage: "the password protecting the wallet secrets",
		},
		&cli.StringFlag{
			Name:  "name",
			Usage: "the name of the first account",
			Value: "Account 1",
		},
	},
	Action: createWalletAction,
}

func createWalletAction(ctx *cli.Context) error {
	data, err := request(ctx, ws.TypeCreateWallet, map[string]string{
		"password":    ctx.String("password"),
		"accountName": ctx.String("name"),
	})
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Write down the seed phrase below, it is shown only once.")
	printRespJSON(data)
	return nil
}
