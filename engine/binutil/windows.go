//go:build windows
// +build windows

package binutil

import "github.com/emberwild/emberwild/engine/gwlog"

type nopRelease int

func (nopRelease) Release() error {
	return nil
}

// Daemonize is unsupported on windows; the server keeps running in the foreground
func Daemonize(pidFile string) nopRelease {
	gwlog.Warnf("can not run in daemon mode in windows, -d ignored")
	return nopRelease(0)
}
