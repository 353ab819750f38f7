package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ugaemi/bombarena-server/internal/config"
	"github.com/ugaemi/bombarena-server/internal/lobby"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "arena",
		Short:         "Host or join a bomber arena match",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newHostCmd(), newJoinCmd(), newVersionCmd())
	return root
}

func newHostCmd() *cobra.Command {
	var (
		name       string
		minPlayers int
	)
	cmd := &cobra.Command{
		Use:   "host",
		Short: "Host a match and start it once enough players joined",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := lobby.ValidateHost(lobby.HostRequest{Name: name}); err != nil {
				return err
			}
			cfg := config.Load()
			if minPlayers < 1 || minPlayers > cfg.MaxPeers+1 {
				return fmt.Errorf("min-players must be between 1 and %d", cfg.MaxPeers+1)
			}
			setupLogger(cfg)

			return play(cmd.Context(), cmd.OutOrStdout(), cfg, playOptions{
				host:       true,
				minPlayers: minPlayers,
				start:      func(s starter) error { return s.Host(name) },
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "player name")
	cmd.Flags().IntVar(&minPlayers, "min-players", 2, "players needed before the round starts")
	return cmd
}

func newJoinCmd() *cobra.Command {
	var address, name string
	cmd := &cobra.Command{
		Use:   "join",
		Short: "Join a hosted match",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := lobby.ValidateJoin(lobby.JoinRequest{Address: address, Name: name}); err != nil {
				return err
			}
			cfg := config.Load()
			setupLogger(cfg)

			return play(cmd.Context(), cmd.OutOrStdout(), cfg, playOptions{
				start: func(s starter) error { return s.Join(address, name) },
			})
		},
	}
	cmd.Flags().StringVar(&address, "address", "127.0.0.1", "host address")
	cmd.Flags().StringVar(&name, "name", "", "player name")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "arena", version)
		},
	}
}

func setupLogger(cfg *config.Config) {
	var h slog.Handler
	opts := &slog.HandlerOptions{}

	switch cfg.LogLevel {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	switch cfg.LogFormat {
	case "json":
		h = slog.NewJSONHandler(os.Stderr, opts)
	default:
		h = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(h))
}
