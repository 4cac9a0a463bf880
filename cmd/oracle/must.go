// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/beevik/ntp"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/fluxprotocol/oracle/dispatch"
	"github.com/fluxprotocol/oracle/flux"
	"github.com/fluxprotocol/oracle/log"
	"github.com/fluxprotocol/oracle/lvldb"
	"github.com/fluxprotocol/oracle/notify"
)

// maxClockOffset is how far the local clock may drift before a warning. Challenge
// windows are measured in seconds of host time.
const maxClockOffset = 5 * time.Second

func initLogger(ctx *cli.Context) *slog.LevelVar {
	var level slog.LevelVar
	level.Set(log.LevelFromVerbosity(ctx.Int(verbosityFlag.Name)))

	useColor := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	log.Init(os.Stdout, &level, useColor && !ctx.Bool(jsonLogsFlag.Name), ctx.Bool(jsonLogsFlag.Name))
	return &level
}

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		switch runtime.GOOS {
		case "darwin":
			return filepath.Join(home, "Library", "Application Support", "org.flux.oracle")
		case "windows":
			return filepath.Join(home, "AppData", "Roaming", "org.flux.oracle")
		default:
			return filepath.Join(home, ".org.flux.oracle")
		}
	}
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

func makeDataDir(ctx *cli.Context) (string, error) {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		return "", fmt.Errorf("unable to infer default data dir, use -%s to specify", dataDirFlag.Name)
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return "", errors.Wrapf(err, "create data dir [%v]", dataDir)
	}
	return dataDir, nil
}

func openMainDB(dataDir string) (*lvldb.LevelDB, error) {
	dir := filepath.Join(dataDir, "main.db")
	db, err := lvldb.New(dir, lvldb.Options{
		CacheSize:              64,
		OpenFilesCacheCapacity: 64,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open oracle database [%v]", dir)
	}
	return db, nil
}

func newNotifiers(ctx *cli.Context, recipients ...dispatch.Notifier) dispatch.Notifier {
	var list notify.Multi
	for _, r := range recipients {
		list = append(list, r)
	}
	for _, url := range ctx.StringSlice(webhookFlag.Name) {
		list = append(list, notify.NewWebhook(url, notify.WebhookOptions{}))
	}
	return list
}

func listenAPI(addr string) (net.Listener, string, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", errors.Wrapf(err, "listen API addr [%v]", addr)
	}
	return listener, "http://" + listener.Addr().String() + "/", nil
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

func checkClockOffset(server string) {
	if server == "" {
		return
	}
	resp, err := ntp.Query(server)
	if err != nil {
		logger.Debug("failed to access NTP", "err", err)
		return
	}
	offset := resp.ClockOffset
	if offset < 0 {
		offset = -offset
	}
	if offset > maxClockOffset {
		logger.Warn("clock offset detected, challenge windows follow the local clock", "offset", resp.ClockOffset)
	}
}

func printStartupMessage(name string, oracle flux.AccountID, dataDir, apiURL string, configID uint64) {
	fmt.Printf(`Starting %v
    Oracle       [ %v ]
    Config       [ #%v ]
    Data dir     [ %v ]
    API portal   [ %v ]
`,
		name+" "+fullVersion(),
		oracle,
		configID,
		dataDir,
		apiURL)
}
