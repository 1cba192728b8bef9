package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidewallet/tide-daemon/config"
	"github.com/tidewallet/tide-daemon/internal/core/application"
	"github.com/tidewallet/tide-daemon/internal/core/ports"
	"github.com/tidewallet/tide-daemon/internal/infrastructure/chain"
	"github.com/tidewallet/tide-daemon/internal/infrastructure/secretholder"
	dbbadger "github.com/tidewallet/tide-daemon/internal/infrastructure/storage/db/badger"
	"github.com/tidewallet/tide-daemon/internal/infrastructure/storage/db/inmemory"
	"github.com/tidewallet/tide-daemon/internal/interfaces/ws"
	"github.com/tidewallet/tide-daemon/pkg/hdwallet"
)

func main() {
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	repoManager, err := openStorage()
	if err != nil {
		log.WithError(err).Panic("error while opening storage")
	}
	defer repoManager.Close()

	holder := secretholder.New()
	defer holder.Shutdown()

	registry := chain.NewRegistry(config.GetChainEndpoints())
	defer registry.Close()

	engine := hdwallet.NewEngine()
	unlocker := application.NewUnlockerService(repoManager, holder)
	wallet := application.NewWalletService(repoManager, unlocker, engine)

	server := ws.NewServer(config.GetString(config.WSListenAddrKey))
	broker := application.NewBrokerService(
		repoManager, unlocker, server, registry, engine,
	)
	defer broker.Shutdown()
	provider := application.NewProviderService(
		repoManager, broker, registry,
		config.GetString(config.WalletNameKey),
		config.GetString(config.WalletIconKey),
		config.GetString(config.WalletRDNSKey),
	)
	server.UseServices(unlocker, wallet, broker, provider)

	// the wallet always comes up locked, whatever happened before shutdown
	if err := repoManager.SettingsRepository().SetLocked(
		context.Background(), true,
	); err != nil {
		log.WithError(err).Panic("error while locking wallet at startup")
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	log.Debug("daemon started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	select {
	case <-sigChan:
	case err := <-errChan:
		if err != nil {
			log.WithError(err).Error("server stopped unexpectedly")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		log.WithError(err).Warn("error while stopping server")
	}

	log.Debug("exiting")
}

func openStorage() (ports.RepoManager, error) {
	if config.GetString(config.DbTypeKey) == config.DbTypeInMemory {
		return inmemory.NewRepoManager(), nil
	}
	return dbbadger.NewRepoManager(config.GetDbDir(), nil)
}
