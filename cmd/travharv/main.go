// Package main provides the travharv CLI entrypoint: a single-action
// command that builds a Service from its flags and runs it once.
//
// Usage:
//
//	travharv -c <config-path> [-d <dump-dest>] [-i <resource>]... \
//	    [-s <read-uri> -s <write-uri>] [-l <logconf-path>]
//
// --target-store takes its two endpoints as two -s flags or as one
// comma-separated value (-s <read-uri>,<write-uri>). A bare argument
// after a single -s is not read as the write endpoint.
//
// Exit codes: 0 on success, non-zero on any fatal error.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/travharv/internal/service"
	"github.com/pithecene-io/travharv/log"
)

const exitFatal = 1

func main() {
	app := &cli.App{
		Name:           "travharv",
		Usage:          "configuration-driven Linked Data traversal harvester",
		ExitErrHandler: exitErrHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "path to a job config file, or a folder of them",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "dump",
				Aliases: []string{"d"},
				Usage:   "dump every triple in the store to PATH (or - for stdout) after the run",
			},
			&cli.StringSliceFlag{
				Name:    "init",
				Aliases: []string{"i"},
				Usage:   "file, folder, or URL to load into the context graph before any config runs (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:    "target-store",
				Aliases: []string{"s"},
				Usage:   "READ_URI and WRITE_URI of a remote SPARQL 1.1 endpoint, as two -s flags or READ_URI,WRITE_URI; omit for the in-memory store",
			},
			&cli.StringFlag{
				Name:    "logconf",
				Aliases: []string{"l"},
				Usage:   "path to a zap logging configuration file (unset uses the default JSON-to-stderr logger)",
			},
		},
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		os.Exit(exitFatal)
	}
}

func runAction(c *cli.Context) error {
	logger, err := buildLogger(c.String("logconf"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to load logging config: %v", err), exitFatal)
	}

	targetStore := c.StringSlice("target-store")
	if len(targetStore) != 0 && len(targetStore) != 2 {
		return cli.Exit("--target-store requires exactly two values: READ_URI WRITE_URI", exitFatal)
	}

	opts := service.Options{
		ConfigPath:  c.String("config"),
		Dump:        c.String("dump"),
		InitContext: c.StringSlice("init"),
	}
	if len(targetStore) == 2 {
		opts.ReadURI = targetStore[0]
		opts.WriteURI = targetStore[1]
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	svc := service.New(opts, logger)
	if err := svc.Run(ctx, opts); err != nil {
		return cli.Exit(fmt.Sprintf("run failed: %v", err), exitFatal)
	}
	return nil
}

// buildLogger returns the default logger when path is empty; a
// logconf file is otherwise expected to hold a JSON zap.Config, the
// same shape zap.Config documents for its own marshalling.
func buildLogger(path string) (*log.Logger, error) {
	if path == "" {
		return log.New(), nil
	}
	return log.FromConfigFile(path)
}

// exitErrHandler preserves exit codes from cli.Exit, matching the
// propagation pattern used for every other travharv entrypoint.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(exitFatal)
}
