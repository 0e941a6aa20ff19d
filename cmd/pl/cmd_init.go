package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jcadam/parley/pkg/config"
)

var (
	initForce    bool
	initEndpoint string
)

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config.yaml")
	initCmd.Flags().StringVar(&initEndpoint, "endpoint", "", "chat backend URL (default "+config.DefaultEndpoint+")")
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default Parley configuration",
	Long:  "Creates ~/.parley/ (or $PARLEY_DIR) with a config.yaml and a sessions directory.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, err := config.DataDir()
		if err != nil {
			return err
		}
		return initDataDir(cmd.OutOrStdout(), dataDir, initEndpoint, initForce)
	},
}

func initDataDir(w io.Writer, dataDir, endpoint string, force bool) error {
	configPath := filepath.Join(dataDir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil && !force {
		fmt.Fprintln(w, "Configuration already exists at", configPath)
		fmt.Fprintln(w, "Edit it directly, or re-run with --force to start over.")
		return nil
	}

	cfg := config.Default()
	if endpoint != "" {
		cfg.Backend.Endpoint = endpoint
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := config.Save(dataDir, cfg); err != nil {
		return fmt.Errorf("saving configuration: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(dataDir, "sessions"), 0o755); err != nil {
		return fmt.Errorf("creating sessions directory: %w", err)
	}

	fmt.Fprintf(w, "\n  Configuration saved to %s\n", configPath)
	fmt.Fprintf(w, "  Backend: %s\n", cfg.Backend.Endpoint)
	fmt.Fprintln(w, "\n  Next steps:")
	fmt.Fprintln(w, "  - Start the backend, then run: pl")
	fmt.Fprintln(w, "  - One-off question: pl ask \"who is my manager?\"")
	fmt.Fprintln(w, "  - Past chats: pl history")
	return nil
}
