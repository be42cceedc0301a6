// Package app provides the command tree for the hello-app binary.
package app

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/iwishiwala/devops-task/internal/config"
	"github.com/iwishiwala/devops-task/internal/versions"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

// NewRootCmd creates the root command. Running it without a subcommand
// starts the server, the same as "serve".
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "hello-app",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "Minimal HTTP status server",
		Long: `hello-app serves static files and JSON health and status endpoints
(/health, /ready, /live, /api, /api/status).`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	addServeFlags(rootCmd)

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the status server",
		Long: `Start the status server.

Settings come from, in increasing precedence: built-in defaults, the YAML
file given with --config, a .env file in the working directory, environment
variables and command-line flags.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	addServeFlags(serveCmd)
	return serveCmd
}

func addServeFlags(cmd *cobra.Command) {
	config.RegisterFlags(cmd.Flags())
	cmd.Flags().String(flagConfig, "", "Path to a YAML configuration file")
	cmd.Flags().String(flagEnvFile, config.DefaultEnvFile, "Path to a dotenv file, ignored if missing")
}

func newVersionCmd() *cobra.Command {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return err
			}
			return printVersion(cmd.OutOrStdout(), versions.GetVersionInfo(), format)
		},
	}
	versionCmd.Flags().String("format", formatTable, "Output format (json, table)")
	return versionCmd
}

func printVersion(w io.Writer, info versions.VersionInfo, format string) error {
	switch format {
	case formatJSON:
		output, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format version info as JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(output))
		return err
	case formatTable:
		table := tablewriter.NewWriter(w)
		table.Header("Field", "Value")
		rows := [][]string{
			{"Version", info.Version},
			{"Commit", info.Commit},
			{"Built", info.BuildDate},
			{"Go", info.GoVersion},
			{"Platform", info.Platform},
			{"API", versions.APIVersion},
		}
		if err := table.Bulk(rows); err != nil {
			return fmt.Errorf("failed to build version table: %w", err)
		}
		return table.Render()
	default:
		return fmt.Errorf("unsupported format %q (want %s or %s)", format, formatJSON, formatTable)
	}
}
