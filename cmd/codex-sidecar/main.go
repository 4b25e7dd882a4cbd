// Command codex-sidecar is the process-management backend for codex.nvim.
// The editor shim launches it once per editor instance and speaks
// newline-delimited JSON over stdin/stdout; the sidecar owns the assistant
// subprocess, the readiness protocol, and the selection pipeline.
package main

import (
	"flag"
	"fmt"
	"os"

	"log/slog"

	"github.com/ZiYang-oyxy/codex.nvim/pkg/config"
	"github.com/ZiYang-oyxy/codex.nvim/pkg/logger"
	"github.com/ZiYang-oyxy/codex.nvim/pkg/rpc"
	"github.com/ZiYang-oyxy/codex.nvim/pkg/session"
	"github.com/ZiYang-oyxy/codex.nvim/pkg/spawn"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "config file path (default: user config dir)")
	debug := flag.Bool("debug", false, "enable debug logging")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	if err := run(*configPath, *debug); err != nil {
		slog.Error("sidecar error", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, debug bool) error {
	if configPath == "" {
		var err error
		configPath, err = config.DefaultPath()
		if err != nil {
			return err
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if debug {
		cfg.Log.Level = "debug"
	}

	// stdout carries the RPC stream, so the logger must not write there.
	log, closer, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer closer.Close()
	slog.SetDefault(log)

	slog.Info("codex-sidecar starting", "version", version, "config", configPath)

	srv := rpc.NewServer(os.Stdin, os.Stdout)
	ui := newRPCUI(srv)

	sess := session.New(cfg, session.Deps{
		UI:        ui,
		Notifier:  ui,
		Installer: ui,
		Spawner:   spawn.NewExecSpawner(),
		Logger:    log,
	})

	registerHandlers(srv, sess, ui, cfg)

	err = srv.Run()

	// stdin closed: the editor is gone, take the assistant down with us.
	sess.Shutdown()
	slog.Info("codex-sidecar exiting")
	return err
}
