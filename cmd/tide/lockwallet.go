package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/tidewallet/tide-daemon/internal/interfaces/ws"
)

var lockwallet = cli.Command{
	Name:   "lock",
	Usage:  "lock the daemon wallet, wiping the in-memory session",
	Action: lockWalletAction,
}

func lockWalletAction(ctx *cli.Context) error {
	if _, err := request(ctx, ws.TypeLockWallet, nil); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Wallet is locked")
	return nil
}
