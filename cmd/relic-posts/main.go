package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sha1n/relic-posts/internal/app"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// Version is injected at build time
	Version = "dev"
	// Build is injected at build time
	Build = "unknown"
	// ProgramName is injected at build time
	ProgramName = "relic-posts"
)

func main() {
	runMain(os.Args, os.Exit)
}

func runMain(args []string, exit func(int)) {
	if err := Execute(Version, Build, ProgramName, args[1:]); err != nil {
		exit(1)
	}
}

// Execute is the entry point for the CLI, extracted for testing
func Execute(version, build, programName string, args []string) error {
	rootCmd := &cobra.Command{
		Use:     programName,
		Short:   "Related posts and search for a markdown blog",
		Long:    "Builds related-post and full-text search artifacts for a markdown blog and serves them over MCP",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Flags(), version)
		},
	}

	rootCmd.SetVersionTemplate(`{{.Version}}
`)

	app.RegisterFlags(rootCmd.PersistentFlags())
	rootCmd.AddCommand(
		newServeCmd(version),
		newBuildCmd(),
		newSearchCmd(),
		newRelatedCmd(),
	)
	rootCmd.SetArgs(args)

	return rootCmd.Execute()
}

func newServeCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server (stdio or SSE)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Flags(), version)
		},
	}
}

func newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build the related and search artifacts of every language",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()
			return app.RunBuild(ctx, app.DefaultRunParams(), cmd.Flags(), cmd.OutOrStdout())
		},
	}
}

func newSearchCmd() *cobra.Command {
	var opts app.QueryOptions
	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Search built posts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()
			return app.RunSearch(ctx, app.DefaultRunParams(), cmd.Flags(), strings.Join(args, " "), opts, cmd.OutOrStdout())
		},
	}
	registerQueryFlags(cmd.Flags(), &opts)
	return cmd
}

func newRelatedCmd() *cobra.Command {
	var opts app.QueryOptions
	cmd := &cobra.Command{
		Use:   "related <slug>",
		Short: "List the posts most related to a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()
			return app.RunRelated(ctx, app.DefaultRunParams(), cmd.Flags(), strings.Trim(args[0], "/"), opts, cmd.OutOrStdout())
		},
	}
	registerQueryFlags(cmd.Flags(), &opts)
	return cmd
}

func registerQueryFlags(flags *pflag.FlagSet, opts *app.QueryOptions) {
	flags.StringVarP(&opts.Lang, "lang", "l", "", "Language code (default language when empty)")
	flags.IntVarP(&opts.Limit, "limit", "n", 0, "Maximum number of results (configured default when 0)")
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func serve(flags *pflag.FlagSet, version string) error {
	ctx, stop := signalContext()
	defer stop()
	return app.RunWithDeps(ctx, app.DefaultRunParams(), flags, version)
}
