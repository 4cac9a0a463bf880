// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/fluxprotocol/oracle/admin"
	"github.com/fluxprotocol/oracle/api"
	"github.com/fluxprotocol/oracle/api/subscriptions"
	"github.com/fluxprotocol/oracle/builtin/oracle"
	"github.com/fluxprotocol/oracle/builtin/oracle/request"
	"github.com/fluxprotocol/oracle/builtin/params"
	"github.com/fluxprotocol/oracle/builtin/whitelist"
	"github.com/fluxprotocol/oracle/dispatch"
	"github.com/fluxprotocol/oracle/flux"
	"github.com/fluxprotocol/oracle/health"
	"github.com/fluxprotocol/oracle/ledger"
	"github.com/fluxprotocol/oracle/log"
	"github.com/fluxprotocol/oracle/lvldb"
	"github.com/fluxprotocol/oracle/metrics"
	"github.com/fluxprotocol/oracle/runtime"
)

const (
	oracleAccount flux.AccountID = "oracle.near"
	soloToken     flux.AccountID = "token.near"
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "main")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "load .env:", err)
	}

	serveFlags := []cli.Flag{
		dataDirFlag,
		configFlag,
		apiAddrFlag,
		apiCorsFlag,
		apiRelayTokenFlag,
		apiRateLimitFlag,
		apiRateBurstFlag,
		apiCacheFlag,
		apiSlowQueriesThresholdFlag,
		apiLog5xxErrorsFlag,
		enableAPILogsFlag,
		webhookFlag,
		workersFlag,
		verbosityFlag,
		jsonLogsFlag,
		enableMetricsFlag,
		enableAdminFlag,
		adminAddrFlag,
		ntpServerFlag,
	}
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Oracle",
		Usage:     "Settlement engine of Flux data requests",
		Copyright: "2021 Flux Protocol <https://fluxprotocol.org/>",
		Flags:     serveFlags,
		Action:    defaultAction,
		Commands: []cli.Command{
			{
				Name:   "solo",
				Usage:  "Oracle with a dev token ledger for test & dev",
				Flags:  append(serveFlags, persistFlag),
				Action: soloAction,
			},
			{
				Name:      "dump",
				Usage:     "Print a stored request, or the current config without an id",
				ArgsUsage: "[request id]",
				Flags:     []cli.Flag{dataDirFlag, verbosityFlag, jsonLogsFlag},
				Action:    dumpAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// components run by both the default and the solo action.
type components struct {
	ledger     *ledger.Ledger
	dispatcher *dispatch.Dispatcher
	runtime    *runtime.Runtime
	subs       *subscriptions.Subscriptions
	health     *health.Health
	apiLogs    *atomic.Bool
}

func setup(ctx *cli.Context, db *lvldb.LevelDB, genesis func() (*params.Config, []*whitelist.Requester, error)) (*components, uint64, error) {
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	c := &components{
		ledger:  ledger.New(db),
		subs:    subscriptions.New(api.ParseOrigins(ctx.String(apiCorsFlag.Name))),
		apiLogs: &atomic.Bool{},
	}
	c.apiLogs.Store(ctx.Bool(enableAPILogsFlag.Name))
	dispatcher, err := dispatch.New(oracleAccount, c.ledger, newNotifiers(ctx, c.subs), dispatch.Options{
		Workers:   ctx.Int(workersFlag.Name),
		QueueSize: 1024,
		Store:     db,
	})
	if err != nil {
		return nil, 0, errors.Wrap(err, "load failed deliveries")
	}
	c.dispatcher = dispatcher
	c.runtime = runtime.New(db, oracleAccount, c.dispatcher, runtime.SystemClock)
	c.health = health.New(c.dispatcher)

	initialized, err := c.runtime.Initialized()
	if err != nil {
		return nil, 0, err
	}
	if !initialized {
		cfg, initial, err := genesis()
		if err != nil {
			return nil, 0, err
		}
		if err := c.runtime.Initialize(cfg, initial); err != nil {
			return nil, 0, errors.Wrap(err, "initialize oracle")
		}
		logger.Info("oracle initialized", "gov", cfg.Gov, "whitelist", len(initial))
	} else if ctx.IsSet(configFlag.Name) {
		logger.Warn("oracle already initialized, config file ignored", "path", ctx.String(configFlag.Name))
	}
	c.health.Initialized(true)

	var configID uint64
	err = c.runtime.View(func(o *oracle.Oracle) (err error) {
		_, configID, err = o.Config()
		return
	})
	return c, configID, err
}

func (c *components) close() {
	logger.Info("closing subscriptions...")
	c.subs.Close()
	logger.Info("waiting for pending deliveries...")
	c.dispatcher.Close()
}

func (c *components) handler(ctx *cli.Context, solo bool) (http.Handler, error) {
	return api.New(c.runtime, c.ledger, c.subs, api.Options{
		AllowedOrigins:       ctx.String(apiCorsFlag.Name),
		EnableReqLogger:      c.apiLogs,
		SlowQueriesThreshold: time.Duration(ctx.Uint64(apiSlowQueriesThresholdFlag.Name)) * time.Millisecond,
		Log5xxErrors:         ctx.Bool(apiLog5xxErrorsFlag.Name),
		EnableMetrics:        ctx.Bool(enableMetricsFlag.Name),
		RateLimit:            ctx.Float64(apiRateLimitFlag.Name),
		RateBurst:            ctx.Int(apiRateBurstFlag.Name),
		CacheSize:            ctx.Int(apiCacheFlag.Name),
		SoloMode:             solo,
		RelayToken:           ctx.String(apiRelayTokenFlag.Name),
		Health:               c.health,
	})
}

func (c *components) startAdminServer(ctx *cli.Context, logLevel *slog.LevelVar) (func(), error) {
	if !ctx.Bool(enableAdminFlag.Name) {
		return func() {}, nil
	}
	url, stop, err := admin.StartServer(ctx.String(adminAddrFlag.Name), admin.Options{
		LogLevel: logLevel,
		APILogs:  c.apiLogs,
		Health:   c.health,
		Failed:   c.dispatcher,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("admin server started", "url", url)
	return func() { logger.Info("stopping admin server..."); stop() }, nil
}

func configFile(ctx *cli.Context) func() (*params.Config, []*whitelist.Requester, error) {
	return func() (*params.Config, []*whitelist.Requester, error) {
		path := ctx.String(configFlag.Name)
		if path == "" {
			return nil, nil, fmt.Errorf("oracle not initialized, use -%s to give a genesis config", configFlag.Name)
		}
		return loadGenesisConfig(path)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	logLevel := initLogger(ctx)
	checkClockOffset(ctx.String(ntpServerFlag.Name))

	dataDir, err := makeDataDir(ctx)
	if err != nil {
		return err
	}
	db, err := openMainDB(dataDir)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing main database..."); db.Close() }()

	return run(ctx, logLevel, db, dataDir, configFile(ctx), false)
}

func soloAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	logLevel := initLogger(ctx)

	var (
		db      *lvldb.LevelDB
		dataDir string
		err     error
	)
	if ctx.Bool(persistFlag.Name) {
		if dataDir, err = makeDataDir(ctx); err != nil {
			return err
		}
		db, err = openMainDB(dataDir)
	} else {
		dataDir = "Memory"
		db, err = lvldb.NewMem()
	}
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing main database..."); db.Close() }()

	genesis := configFile(ctx)
	if !ctx.IsSet(configFlag.Name) {
		genesis = func() (*params.Config, []*whitelist.Requester, error) {
			cfg, initial := soloGenesis()
			return cfg, initial, nil
		}
	}
	return run(ctx, logLevel, db, dataDir, genesis, true)
}

func run(ctx *cli.Context, logLevel *slog.LevelVar, db *lvldb.LevelDB, dataDir string, genesis func() (*params.Config, []*whitelist.Requester, error), solo bool) error {
	c, configID, err := setup(ctx, db, genesis)
	if err != nil {
		return err
	}
	defer c.close()

	stopAdmin, err := c.startAdminServer(ctx, logLevel)
	if err != nil {
		return err
	}
	defer stopAdmin()

	handler, err := c.handler(ctx, solo)
	if err != nil {
		return err
	}
	listener, apiURL, err := listenAPI(ctx.String(apiAddrFlag.Name))
	if err != nil {
		return err
	}
	name := "Oracle"
	if solo {
		name = "Oracle solo"
	}
	printStartupMessage(name, oracleAccount, dataDir, apiURL, configID)

	return serve(handleExitSignal(), listener, handler, c.dispatcher, ctx.String(ntpServerFlag.Name))
}

// serve runs the API server and the house keeping loop until exit is done or one of them fails.
func serve(exit context.Context, listener net.Listener, handler http.Handler, d *dispatch.Dispatcher, ntpServer string) error {
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}

	g, ctx := errgroup.WithContext(exit)
	g.Go(func() error {
		if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "serve API")
		}
		return nil
	})
	g.Go(func() error {
		houseKeeping(ctx, d, ntpServer)
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("stopping API server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func houseKeeping(ctx context.Context, d *dispatch.Dispatcher, ntpServer string) {
	logger.Debug("enter house keeping")
	defer logger.Debug("leave house keeping")

	failedTicker := time.NewTicker(time.Minute)
	clockSyncTicker := time.NewTicker(10 * time.Minute)
	defer func() {
		failedTicker.Stop()
		clockSyncTicker.Stop()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-failedTicker.C:
			if failed := d.Failed(); len(failed) > 0 {
				logger.Warn("undelivered effects pending redelivery", "count", len(failed), "oldest", failed[0].ID)
			}
		case <-clockSyncTicker.C:
			checkClockOffset(ntpServer)
		}
	}
}

func dumpAction(ctx *cli.Context) error {
	initLogger(ctx)

	dataDir := ctx.String(dataDirFlag.Name)
	db, err := openMainDB(dataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	rt := runtime.New(db, oracleAccount, nil, nil)
	dumper := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true, SortKeys: true}

	return rt.View(func(o *oracle.Oracle) error {
		if ctx.NArg() == 0 {
			cfg, id, err := o.Config()
			if err != nil {
				return err
			}
			fmt.Printf("config #%d\n", id)
			dumper.Fdump(os.Stdout, cfg)
			return nil
		}
		id, err := strconv.ParseUint(ctx.Args().First(), 10, 64)
		if err != nil {
			return errors.WithMessage(err, "request id")
		}
		var s *request.Summary
		if s, err = o.RequestByID(id); err != nil {
			return err
		}
		if s == nil {
			return fmt.Errorf("no request with id %d", id)
		}
		dumper.Fdump(os.Stdout, s)
		return nil
	})
}
