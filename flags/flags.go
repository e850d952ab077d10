package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

const EnvVarPrefix = "KT_HARNESS"

var (
	BoardConfig = &cli.StringFlag{
		Name:    "board-config",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "BOARD_CONFIG"),
		Usage:   "Path to board config file (eg. 'board.yaml')",
	}
	Board = &cli.StringFlag{
		Name:    "board",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "BOARD"),
		Usage:   "Board label attached to metrics and logs (eg. 'nrf52840dk'); overrides the board config",
	}
	LogDir = &cli.StringFlag{
		Name:    "logdir",
		Value:   "logs",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "LOGDIR"),
		Usage:   "Directory to store per-run console captures",
	}
	Console = &cli.StringFlag{
		Name:    "console",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CONSOLE"),
		Usage:   "Console device or file to write the test protocol to; defaults to stdout",
	}
	WatchdogTicks = &cli.Uint64Flag{
		Name:    "watchdog-ticks",
		Value:   1000,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "WATCHDOG_TICKS"),
		Usage:   "Event-loop tick budget for a pending asynchronous test before the watchdog fails it. Set to 0 to disable.",
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "RUN_INTERVAL"),
		Usage:   "Interval between suite runs (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
	Watch = &cli.BoolFlag{
		Name:    "watch",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "WATCH"),
		Usage:   "Re-run the suite when the board config file changes (development mode)",
	}
)

var requiredFlags = []cli.Flag{}

var optionalFlags = []cli.Flag{
	BoardConfig,
	Board,
	LogDir,
	Console,
	WatchdogTicks,
	RunInterval,
	Watch,
}

var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, opmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
