package cli

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	apperrors "github.com/utafrali/grocify/pkg/errors"
	"github.com/utafrali/grocify/pkg/logger"

	"github.com/utafrali/grocify/internal/config"
	"github.com/utafrali/grocify/internal/service"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Session string
	APIURL  string
	Format  string // "text" | "json"
	Verbose bool

	deps  *Deps
	carts *service.CartService
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of the grocify terminal client.
// newDeps is called once per invocation, after configuration is loaded.
func NewRootCommand(newDeps DepsFactory) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "grocify",
		Short:         "Grocify - grocery cart and order client",
		Long:          "Build a cart, check it out against the Grocify API and inspect orders, statistics and reports.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}

			cfg, err := config.LoadClient()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("session") {
				cfg.Session = opts.Session
			}
			if cmd.Flags().Changed("api") {
				cfg.APIURL = opts.APIURL
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			opts.Session = cfg.Session

			level := cfg.LogLevel
			if opts.Verbose {
				level = "debug"
			}
			l := logger.NewWithWriter("grocify-cli", level, cmd.ErrOrStderr())

			ctx := logger.WithCorrelationID(cmd.Context(), uuid.New().String())
			ctx = logger.WithSessionID(ctx, cfg.Session)
			cmd.SetContext(ctx)

			deps, err := newDeps(ctx, cfg, l)
			if err != nil {
				return err
			}
			opts.deps = deps
			opts.carts = service.NewCartService(deps.Carts, deps.API, l)
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if opts.deps == nil || opts.deps.Close == nil {
				return nil
			}
			return opts.deps.Close()
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.Session, "session", "", "cart session name (default $GROCIFY_SESSION)")
	cmd.PersistentFlags().StringVar(&opts.APIURL, "api", "", "order API base URL (default $GROCIFY_API_URL)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	cmd.AddCommand(NewCartCommand(opts))
	cmd.AddCommand(NewCheckoutCommand(opts))
	cmd.AddCommand(NewOrdersCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))

	return cmd
}

// ErrorMessage turns err into the line printed to the user.
func ErrorMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

func (o *RootOptions) printer(cmd *cobra.Command) *printer {
	return &printer{w: cmd.OutOrStdout(), format: o.Format}
}
