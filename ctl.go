package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli"

	"github.com/fixkme/tmrkit/server"
)

var (
	ctlAddr    string
	ctlTimeout time.Duration

	ctlFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "addr, a",
			Value:       "127.0.0.1:7070",
			Usage:       "daemon address",
			Destination: &ctlAddr,
		},
		cli.DurationFlag{
			Name:        "timeout, t",
			Value:       3 * time.Second,
			Usage:       "request timeout",
			Destination: &ctlTimeout,
		},
	}
)

func dial() (*server.Client, error) {
	return server.Dial(strings.TrimPrefix(ctlAddr, "tcp://"), ctlTimeout)
}

func ctlPing(ctx *cli.Context) error {
	c, err := dial()
	if err != nil {
		return err
	}
	defer c.Close()
	n, err := c.Ping()
	if err != nil {
		return err
	}
	fmt.Printf("pending %d\n", n)
	return nil
}

func ctlStart(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	name := ctx.Args().Get(0)
	d, err := time.ParseDuration(ctx.Args().Get(1))
	if err != nil {
		return err
	}
	c, err := dial()
	if err != nil {
		return err
	}
	defer c.Close()
	begin := time.Now()
	if err = c.Start(name, d); err != nil {
		return err
	}
	// 会话断开时服务端会取消定时器，所以这里等到期
	for expired := range c.Expired() {
		if expired == name {
			fmt.Printf("%s expired after %v\n", name, time.Since(begin).Round(time.Millisecond))
			return nil
		}
	}
	return fmt.Errorf("connection closed before %s expired", name)
}

func ctlStopFirst(ctx *cli.Context) error {
	c, err := dial()
	if err != nil {
		return err
	}
	defer c.Close()
	name, err := c.StopFirst()
	if err != nil {
		return err
	}
	fmt.Printf("stopped %s\n", name)
	return nil
}
