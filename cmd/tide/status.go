package main

import (
	"github.com/urfave/cli/v2"

	"github.com/tidewallet/tide-daemon/internal/interfaces/ws"
)

var status = cli.Command{
	Name:   "status",
	Usage:  "show the wallet status summary",
	Action: statusAction,
}

func statusAction(ctx *cli.Context) error {
	data, err := request(ctx, ws.TypeGetStatus, nil)
	if err != nil {
		return err
	}
	printRespJSON(data)
	return nil
}
