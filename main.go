package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

var version = "dev"

func main() {
	app := cli.App{
		Name:      "tmrkitd",
		HelpName:  "tmrkitd",
		Usage:     "timer scheduling daemon",
		Version:   version,
		UsageText: "tmrkitd [--config FILE] [command] [arguments...]",
		Flags:     serveFlags,
		Action:    serve,
		Commands: []cli.Command{
			{
				Name:   "serve",
				Usage:  "run the daemon (default)",
				Flags:  serveFlags,
				Action: serve,
			},
			{
				Name:  "ctl",
				Usage: "talk to a running daemon",
				Flags: ctlFlags,
				Subcommands: []cli.Command{
					{
						Name:   "ping",
						Usage:  "print the number of pending timers",
						Action: ctlPing,
					},
					{
						Name:      "start",
						Usage:     "start a timer and wait until it expires",
						ArgsUsage: "NAME DURATION",
						Action:    ctlStart,
					},
					{
						Name:   "stop-first",
						Usage:  "stop the timer closest to expiry, in any session",
						Action: ctlStopFirst,
					},
				},
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Printf("tmrkitd: %s\n", err.Error())
		os.Exit(1)
	}
}
