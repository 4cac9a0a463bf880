// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	dataDirFlag = cli.StringFlag{
		Name:   "data-dir",
		Value:  defaultDataDir(),
		EnvVar: "ORACLE_DATA_DIR",
		Usage:  "directory for the oracle database",
	}
	configFlag = cli.StringFlag{
		Name:   "config",
		EnvVar: "ORACLE_CONFIG",
		Usage:  "path to the YAML genesis config, used on first start only",
	}
	apiAddrFlag = cli.StringFlag{
		Name:   "api-addr",
		Value:  "localhost:8670",
		EnvVar: "ORACLE_API_ADDR",
		Usage:  "API service listening address",
	}
	apiCorsFlag = cli.StringFlag{
		Name:   "api-cors",
		Value:  "",
		EnvVar: "ORACLE_API_CORS",
		Usage:  "comma separated list of domains from which to accept cross origin requests to API",
	}
	apiRelayTokenFlag = cli.StringFlag{
		Name:   "api-relay-token",
		EnvVar: "ORACLE_API_RELAY_TOKEN",
		Usage:  "bearer token of the relay allowed to post /calls; without it /calls is served in solo mode only",
	}
	apiRateLimitFlag = cli.Float64Flag{
		Name:   "api-rate-limit",
		Value:  0,
		EnvVar: "ORACLE_API_RATE_LIMIT",
		Usage:  "requests per second allowed per client, 0 disables the limit",
	}
	apiRateBurstFlag = cli.IntFlag{
		Name:  "api-rate-burst",
		Value: 20,
		Usage: "request burst allowed per client when rate limiting",
	}
	apiCacheFlag = cli.IntFlag{
		Name:  "api-cache",
		Value: 1024,
		Usage: "number of finalized request summaries kept in memory",
	}
	apiSlowQueriesThresholdFlag = cli.Uint64Flag{
		Name:  "api-slow-queries-threshold",
		Value: 0,
		Usage: "log API requests slower than this many milliseconds, 0 disables it",
	}
	apiLog5xxErrorsFlag = cli.BoolFlag{
		Name:  "api-log-5xx-errors",
		Usage: "log API requests that fail with 5xx",
	}
	enableAPILogsFlag = cli.BoolFlag{
		Name:  "enable-api-logs",
		Usage: "enables API requests logging",
	}
	webhookFlag = cli.StringSliceFlag{
		Name:   "webhook",
		EnvVar: "ORACLE_WEBHOOK",
		Usage:  "URL the finalized outcomes are posted to, may be repeated",
	}
	workersFlag = cli.IntFlag{
		Name:  "workers",
		Value: 4,
		Usage: "number of goroutines delivering transfers and notifications",
	}
	verbosityFlag = cli.IntFlag{
		Name:   "verbosity",
		Value:  3,
		EnvVar: "ORACLE_VERBOSITY",
		Usage:  "log verbosity (0-5)",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:  "json-logs",
		Usage: "output logs in JSON format",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:   "enable-metrics",
		EnvVar: "ORACLE_ENABLE_METRICS",
		Usage:  "enables metrics collection, served at /metrics",
	}
	persistFlag = cli.BoolFlag{
		Name:  "persist",
		Usage: "if set, solo mode keeps its state on disk instead of in memory",
	}
	enableAdminFlag = cli.BoolFlag{
		Name:  "enable-admin",
		Usage: "enables admin server",
	}
	adminAddrFlag = cli.StringFlag{
		Name:  "admin-addr",
		Value: "localhost:2113",
		Usage: "admin service listening address",
	}
	ntpServerFlag = cli.StringFlag{
		Name:  "ntp-server",
		Value: "pool.ntp.org",
		Usage: "NTP server used to check the local clock on start, empty skips the check",
	}
)
