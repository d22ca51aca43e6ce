package cmd

import (
	"log/slog"
	"os"
	"path"

	"github.com/lmittmann/tint"
	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/cobra"

	"github.com/lsrsim/sospf/internal/config"
	"github.com/lsrsim/sospf/internal/repl"
	"github.com/lsrsim/sospf/internal/router"
	"github.com/lsrsim/sospf/internal/topo"
)

var (
	configPath string
	nodeIdFlag string
	hostFlag   string
	logPath    string
	verbose    bool
	heartbeat  bool
)

// runCmd starts a single node and its REPL, grounded on
// encodeous-nylon/cmd/run.go's config-load-then-Start shape.
var runCmd = &cobra.Command{
	Use:     "run",
	Short:   "Run a simulated routing node",
	GroupID: "node",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if nodeIdFlag != "" {
			cfg.Id = nodeIdFlag
		}
		if hostFlag != "" {
			cfg.Host = hostFlag
		}
		if logPath != "" {
			cfg.LogPath = logPath
		}
		if heartbeat {
			cfg.Heartbeat = true
		}
		if cfg.Host == "" {
			cfg.Host = "127.0.0.1"
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, err := buildLogger(cfg.LogPath, verbose)
		if err != nil {
			return err
		}

		node, err := router.New(topo.NodeId(cfg.Id), cfg.Host, logger)
		if err != nil {
			return err
		}
		defer node.Close()

		go func() {
			if err := node.Serve(); err != nil {
				logger.Error("server loop exited", "err", err)
			}
		}()

		if cfg.Heartbeat {
			stop := make(chan struct{})
			defer close(stop)
			go node.RunHeartbeat(stop)
		}

		return repl.Run(node)
	},
}

func buildLogger(logFile string, verbose bool) (*slog.Logger, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handlers := []slog.Handler{
		tint.NewHandler(os.Stderr, &tint.Options{Level: level}),
	}
	if logFile != "" {
		if err := os.MkdirAll(path.Dir(logFile), 0o755); err != nil && path.Dir(logFile) != "." {
			return nil, err
		}
		f, err := os.OpenFile(logFile, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(slogmulti.Fanout(handlers...)), nil
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&configPath, "config", "c", "", "optional YAML node config file")
	runCmd.Flags().StringVar(&nodeIdFlag, "id", "", "simulated node id, required if not set in config")
	runCmd.Flags().StringVar(&hostFlag, "host", "", "process host address, defaults to 127.0.0.1")
	runCmd.Flags().StringVar(&logPath, "log", "", "optional log file path")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug-level logging")
	runCmd.Flags().BoolVar(&heartbeat, "heartbeat", false, "enable the optional heartbeat liveness loop")
}
