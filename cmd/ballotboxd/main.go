package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"
	"go.vocdoni.io/dvote/log"

	"github.com/civicgraph/ballotbox/config"
	"github.com/civicgraph/ballotbox/service"
	"github.com/civicgraph/ballotbox/storage"
	"github.com/civicgraph/ballotbox/util"
	"github.com/civicgraph/ballotbox/votecrypt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("cannot load configuration: %v", err)
	}
	log.Init(cfg.LogLevel, "stdout", nil)

	key, err := cfg.Key()
	if err != nil {
		log.Fatalf("invalid ballot key: %v", err)
	}
	if key == nil {
		key = util.RandomBytes(votecrypt.KeySize)
		log.Warnw("no ballot key configured, generated an ephemeral one",
			"hint", "set BALLOTBOX_BALLOT_KEY to keep ballots decodable across restarts")
	}

	database, err := metadb.New(db.TypePebble, cfg.DataDir)
	if err != nil {
		log.Fatalf("cannot open database: %v", err)
	}

	svc := service.New(storage.New(database), key, cfg.Host, cfg.Port)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := svc.Start(ctx); err != nil {
		log.Fatalf("cannot start ballot service: %v", err)
	}
	log.Infow("ballot service running", "host", cfg.Host, "port", cfg.Port, "datadir", cfg.DataDir)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")
	svc.Stop()
}
