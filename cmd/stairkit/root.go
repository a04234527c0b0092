package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	// Registers the .stair script format with params.Load.
	_ "github.com/chazu/stairkit/pkg/engine"
)

// Environment variables read from the process or the .env file.
const (
	EnvAuthor        = "STAIRKIT_AUTHOR"
	EnvOrganization  = "STAIRKIT_ORGANIZATION"
	EnvAuthorization = "STAIRKIT_AUTHORIZATION"
)

var (
	envFile string
	quiet   bool
	logger  = log.New(os.Stderr, "stairkit: ", log.LstdFlags)
)

var rootCmd = &cobra.Command{
	Use:   "stairkit",
	Short: "Parametric precast concrete stair builder",
	Long: `stairkit - precast stair units from parameters

Reads a parameter bundle (.json, .yaml or a .stair script) and derives the
stair geometry, reinforcement and inserts. Outputs:
  - an IFC4X3 exchange file
  - a STEP AP203 B-Rep model
  - the bar bending schedule as a workbook, a PDF and JSON

Header defaults for the IFC file come from STAIRKIT_AUTHOR,
STAIRKIT_ORGANIZATION and STAIRKIT_AUTHORIZATION, which may be set in a
.env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if quiet {
			logger.SetOutput(io.Discard)
		}
		return loadEnv(envFile)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "environment file with header defaults")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress stage logging")
}

// loadEnv reads path into the environment without overriding variables that
// are already set. A missing file is not an error.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// envList splits a comma-separated variable into trimmed, non-empty items.
func envList(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
