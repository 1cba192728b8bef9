package main

import (
	"github.com/urfave/cli/v2"

	"github.com/tidewallet/tide-daemon/internal/interfaces/ws"
)

var listaccounts = cli.Command{
	Name:   "accounts",
	Usage:  "list every account with its per-chain addresses",
	Action: listAccountsAction,
}

func listAccountsAction(ctx *cli.Context) error {
	data, err := request(ctx, ws.TypeGetAccounts, nil)
	if err != nil {
		return err
	}
	printRespJSON(data)
	return nil
}
