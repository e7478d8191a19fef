// Package cli implements accordctl, a thin command-line front end over the
// Accord HTTP API.
package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/accord-backend/internal/integrations/client"
	"github.com/yungbote/accord-backend/internal/platform/envutil"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Server    string
	Workspace string
	User      string
	Token     string
	Format    string // "json" | "text"
	Timeout   time.Duration
	Retries   int
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "accordctl",
		Short: "Record and browse team decisions",
		Long: `accordctl talks to an Accord server to capture decisions, browse the log,
and supersede decisions that no longer hold.

Flags fall back to ACCORD_SERVER, ACCORD_WORKSPACE, ACCORD_USER, ACCORD_TOKEN,
ACCORD_TIMEOUT and ACCORD_RETRIES.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Server, "server", envutil.String("ACCORD_SERVER", "http://localhost:8080"), "Accord server base URL")
	cmd.PersistentFlags().StringVar(&opts.Workspace, "workspace", envutil.String("ACCORD_WORKSPACE", ""), "workspace id")
	cmd.PersistentFlags().StringVar(&opts.User, "user", envutil.String("ACCORD_USER", ""), "user id")
	cmd.PersistentFlags().StringVar(&opts.Token, "token", envutil.String("ACCORD_TOKEN", ""), "bearer token (skips login)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", envutil.Duration("ACCORD_TIMEOUT", client.DefaultTimeout), "request timeout")
	cmd.PersistentFlags().IntVar(&opts.Retries, "retries", envutil.Int("ACCORD_RETRIES", client.DefaultRetryCount), "retries for reads on transient failures (0 disables)")

	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewCreateCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewGetCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewSupersedeCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// newClient prefers an explicit token; otherwise it logs in with the
// workspace and user flags on first use.
func newClient(opts *RootOptions) (*client.Client, error) {
	retries := opts.Retries
	if retries <= 0 {
		retries = -1
	}
	c := client.New(client.Config{BaseURL: opts.Server, Timeout: opts.Timeout, RetryCount: retries}, nil)
	if tok := strings.TrimSpace(opts.Token); tok != "" {
		return c.WithCredentials(client.StaticCredentials(tok)), nil
	}
	if strings.TrimSpace(opts.Workspace) == "" || strings.TrimSpace(opts.User) == "" {
		return nil, fmt.Errorf("either --token or both --workspace and --user are required")
	}
	return c.WithCredentials(client.NewCachedCredentialProvider(c.LoginFunc(), opts.Workspace, opts.User)), nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
