//go:build !windows
// +build !windows

package binutil

import (
	"os"

	"github.com/emberwild/emberwild/engine/gwlog"
	"github.com/sevlyar/go-daemon"
)

// Daemonize re-executes the server in the background; the parent exits
func Daemonize(pidFile string) *daemon.Context {
	context := &daemon.Context{
		PidFileName: pidFile,
		PidFilePerm: 0644,
		Umask:       027,
	}
	child, err := context.Reborn()
	if err != nil {
		gwlog.Fatalf("daemonize failed: %v", err)
	}

	if child != nil {
		gwlog.Infof("emberwild started in daemon mode, pid %d", child.Pid)
		os.Exit(0)
	}
	return context
}
