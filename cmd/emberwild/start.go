package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/emberwild/emberwild/engine/config"
	"github.com/emberwild/emberwild/engine/gwlog"
)

var (
	args struct {
		configFile      string
		logLevel        string
		pidFile         string
		runInDaemonMode bool
	}
	signalChan = make(chan os.Signal, 1)
)

func parseArgs() {
	flag.StringVar(&args.configFile, "configfile", config.DEFAULT_CONFIG_FILE, "set config file path")
	flag.StringVar(&args.logLevel, "log", "", "set log level, will override log level in config")
	flag.StringVar(&args.pidFile, "pidfile", "emberwild.pid", "pid file used in daemon mode")
	flag.BoolVar(&args.runInDaemonMode, "d", false, "run in daemon mode")
	flag.Parse()
}

// setupSignals calls terminate once on SIGINT or SIGTERM, then exits
func setupSignals(terminate func()) {
	gwlog.Infof("Setup signals ...")
	signal.Ignore(syscall.SIGPIPE, syscall.SIGHUP)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		for {
			sig := <-signalChan
			if sig == syscall.SIGINT || sig == syscall.SIGTERM {
				gwlog.Infof("Terminating emberwild ...")
				terminate()
				gwlog.Infof("emberwild terminated gracefully.")
				os.Exit(0)
			} else {
				gwlog.Errorf("unexpected signal: %s", sig)
			}
		}
	}()
}
