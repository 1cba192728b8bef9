package main

import (
	"github.com/urfave/cli/v2"

	"github.com/tidewallet/tide-daemon/internal/interfaces/ws"
)

var genseed = cli.Command{
	Name:   "genseed",
	Usage:  "generate a fresh seed phrase without storing it",
	Action: genSeedAction,
}

func genSeedAction(ctx *cli.Context) error {
	data, err := request(ctx, ws.TypeGenerateSeedPhrase, nil)
	if err != nil {
		return err
	}
	printRespJSON(data)
	return nil
}
