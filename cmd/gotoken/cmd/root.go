// Package cmd implements the gotoken CLI commands.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.1.0"

const defaultEnvFile = ".env"

type rootOptions struct {
	configPath string
	envFile    string
	output     string
	verbose    bool

	logger *slog.Logger
}

// NewRootCmd builds a fresh command tree. Each call has its own flag state.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "gotoken",
		Short: "Issue and verify time-bounded session tokens",
		Long: `gotoken issues and verifies signed session tokens carrying a JSON payload
and a not-before / expires-at window.

Key material comes from the environment:
  GOTOKEN_SECRET                 shared secret for hs256
  GOTOKEN_ED25519_PRIVATE_KEY    path to a PEM ed25519 private key
  GOTOKEN_ED25519_PUBLIC_KEY     path to a PEM ed25519 public key

A .env file in the working directory is loaded first when present.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			if err := loadEnvFile(opts.envFile, cmd.Flags().Changed("env-file")); err != nil {
				return err
			}
			switch opts.output {
			case outputText, outputJSON, outputYAML:
			default:
				return fmt.Errorf("unsupported output format %q", opts.output)
			}
			opts.logger = newLogger(cmd.ErrOrStderr(), opts.verbose)
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.output, "output", "o", outputText, "Output format: text, json, yaml")
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML config file")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", defaultEnvFile, "dotenv file with key material")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log rejection diagnostics")

	root.AddCommand(newIssueCmd(opts))
	root.AddCommand(newVerifyCmd(opts))
	root.AddCommand(newBenchCmd(opts))
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadEnvFile loads path without overriding variables already set. A missing
// default file is not an error.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return nil
	}
	return fmt.Errorf("load env file %s: %w", path, err)
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    color.NoColor,
	}))
}
