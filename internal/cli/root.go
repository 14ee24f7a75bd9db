package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"go-wanandroid/internal/app"
	"go-wanandroid/internal/config"
	"go-wanandroid/internal/logger"
	"go-wanandroid/pkg/apierror"
)

var (
	version = "dev"
	commit  = "unknown"
)

// Opener builds the client stack a command runs against.
type Opener func(ctx context.Context) (*app.Stack, error)

type options struct {
	open    Opener
	json    bool
	verbose bool
}

// NewRootCommand returns wanctl with every subcommand attached. Each command
// opens its own stack through open and closes it when done.
func NewRootCommand(open Opener) *cobra.Command {
	opts := &options{open: open}

	root := &cobra.Command{
		Use:   "wanctl",
		Short: "WanAndroid client for the terminal",
		Long: `wanctl reads the WanAndroid feeds, searches articles and manages the
collect list of the logged-in account. Session state is shared with the
gateway server through the configured state backend.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "print raw JSON instead of tables")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newHomeCmd(opts),
		newBannersCmd(opts),
		newTreeCmd(opts, "tree", "Show the knowledge tree", treeCategory),
		newTreeArticlesCmd(opts, "category", "List the articles of a knowledge category", treeCategory),
		newTreeCmd(opts, "projects", "Show the project categories", treeProject),
		newTreeArticlesCmd(opts, "project", "List the projects of a project category", treeProject),
		newSearchCmd(opts),
		newHotkeysCmd(opts),
		newLoginCmd(opts),
		newRegisterCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newCollectCmd(opts),
		newTokenCmd(opts),
	)

	return root
}

// Execute runs wanctl against the environment configuration. This is called
// by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand(openFromEnv)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if apierror.HasCode(err, apierror.CodeBadRequest) {
			fmt.Fprintf(os.Stderr, "Run '%s --help' for usage.\n", root.CommandPath())
		}
		stop()
		os.Exit(1)
	}
}

func openFromEnv(ctx context.Context) (*app.Stack, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Setup(os.Stderr, cfg.LogLevel)
	return app.NewStack(ctx, cfg)
}

// withStack opens the stack for the duration of fn.
func (o *options) withStack(cmd *cobra.Command, fn func(ctx context.Context, stack *app.Stack) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	stack, err := o.open(ctx)
	if err != nil {
		return err
	}
	defer stack.Close()

	if o.verbose {
		logger.Setup(cmd.ErrOrStderr(), "debug")
	}

	return fn(ctx, stack)
}

// emit prints v as indented JSON when --json is set, otherwise calls table.
func (o *options) emit(w io.Writer, v any, table func(w io.Writer) error) error {
	if !o.json {
		return table(w)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
