// Command emberwild runs the authoritative game server.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/emberwild/emberwild/engine/async"
	"github.com/emberwild/emberwild/engine/binutil"
	"github.com/emberwild/emberwild/engine/config"
	"github.com/emberwild/emberwild/engine/gwlog"
	"github.com/emberwild/emberwild/engine/post"
	"github.com/emberwild/emberwild/engine/storage"
	"github.com/emberwild/emberwild/game/gate"
	"github.com/emberwild/emberwild/game/sim"
)

func main() {
	rand.Seed(time.Now().UnixNano())
	parseArgs()

	if args.runInDaemonMode {
		daemoncontext := binutil.Daemonize(args.pidFile)
		defer daemoncontext.Release()
	}

	cfg, err := config.Load(args.configFile)
	if err != nil {
		gwlog.Errorf("read config: %s", err)
		os.Exit(1)
	}
	logLevel := args.logLevel
	if logLevel == "" {
		logLevel = cfg.Server.LogLevel
	}
	binutil.SetupGWLog("emberwild", logLevel, cfg.Server.LogFile, cfg.Server.LogStderr)
	gwlog.Infof("Read config: \n%s\n", config.DumpPretty(cfg))

	store, err := storage.Open(&cfg.Storage)
	if err != nil {
		gwlog.Errorf("open storage: %s", err)
		os.Exit(1)
	}

	queue := post.NewQueue()
	workers := async.NewWorkers()
	engine, err := sim.New(sim.Options{
		Seed:                 cfg.Game.WorldSeed,
		Store:                store,
		Post:                 queue,
		Async:                workers,
		Iterations:           cfg.Auth.PBKDF2Iterations,
		AdminProfiles:        cfg.Admin.Profiles,
		AdminAccounts:        cfg.Admin.Accounts,
		TradingSweepInterval: cfg.Game.TradingSweepInterval,
	})
	if err != nil {
		gwlog.Errorf("world generation failed: %+v", err)
		os.Exit(2)
	}
	if _, err := engine.LoadProfiles(store); err != nil {
		gwlog.Errorf("%s", err)
		os.Exit(1)
	}
	store.Start()

	runner := sim.NewRunner(engine, sim.RunnerConfig{
		TickInterval:     cfg.Game.TickInterval(),
		SaveInterval:     cfg.Game.SaveInterval,
		ZoneRegenMinutes: cfg.Game.ZoneRegenMinutes,
	})
	handler := binutil.NewHTTPHandler(binutil.HTTPOptions{
		PublicDir:     cfg.Server.PublicDir,
		StorageStatus: func() interface{} { return store.Status() },
		WebSocket:     gate.Handler(runner),
	})
	addr := fmt.Sprintf("%s:%d", cfg.Server.Ip, cfg.Server.Port)
	server, err := binutil.StartHTTPServer(addr, cfg.Server.MaxConnections, handler)
	if err != nil {
		gwlog.Errorf("listen on %s: %s", addr, err)
		os.Exit(1)
	}

	setupSignals(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			gwlog.Warnf("http shutdown: %s", err)
		}
		runner.Stop()
		store.Flush()
		store.Shutdown()
		workers.Shutdown()
	})
	runner.Run()
	select {}
}
