package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/accord-backend/internal/domain/decision"
	"github.com/yungbote/accord-backend/internal/pkg/pointers"
)

type newDecisionFlags struct {
	rationale      string
	platform       string
	link           string
	idempotencyKey string
}

func (f *newDecisionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.rationale, "rationale", "", "why the decision was made")
	cmd.Flags().StringVar(&f.platform, "platform", "cli", "source platform")
	cmd.Flags().StringVar(&f.link, "link", "", "link to the originating conversation")
	cmd.Flags().StringVar(&f.idempotencyKey, "idempotency-key", "", "safe-retry key")
}

func (f *newDecisionFlags) build(text string) decision.NewDecision {
	return decision.NewDecision{
		DecisionText:   text,
		Rationale:      pointers.NonEmpty(f.rationale),
		SourcePlatform: pointers.NonEmpty(f.platform),
		SourceLink:     pointers.NonEmpty(f.link),
		IdempotencyKey: f.idempotencyKey,
	}
}

func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &newDecisionFlags{}
	cmd := &cobra.Command{
		Use:   "create <decision text>",
		Short: "Record a new decision",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(rootOpts)
			if err != nil {
				return err
			}
			d, err := c.CreateDecision(commandContext(cmd), flags.build(strings.Join(args, " ")))
			if err != nil {
				return err
			}
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Print(d, func(w io.Writer) { writeDecisionDetail(w, d) })
		},
	}
	flags.register(cmd)
	return cmd
}

func NewSupersedeCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &newDecisionFlags{}
	cmd := &cobra.Command{
		Use:   "supersede <id> <new decision text>",
		Short: "Replace a decision with a new one",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(rootOpts)
			if err != nil {
				return err
			}
			d, err := c.SupersedeDecision(commandContext(cmd), args[0], flags.build(strings.Join(args[1:], " ")))
			if err != nil {
				return err
			}
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Print(d, func(w io.Writer) { writeDecisionDetail(w, d) })
		},
	}
	flags.register(cmd)
	return cmd
}

func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(rootOpts)
			if err != nil {
				return err
			}
			d, err := c.GetDecision(commandContext(cmd), args[0])
			if err != nil {
				return err
			}
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Print(d, func(w io.Writer) { writeDecisionDetail(w, d) })
		},
	}
}

func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Show a decision with what it replaced and what replaced it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(rootOpts)
			if err != nil {
				return err
			}
			h, err := c.GetHistory(commandContext(cmd), args[0])
			if err != nil {
				return err
			}
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Print(h, func(w io.Writer) {
				if h.Supersedes != nil {
					fmt.Fprint(w, "supersedes    ")
					writeDecisionLine(w, h.Supersedes)
				}
				fmt.Fprint(w, "current       ")
				writeDecisionLine(w, h.Current)
				for i := range h.SupersededBy {
					fmt.Fprint(w, "superseded by ")
					writeDecisionLine(w, &h.SupersededBy[i])
				}
			})
		},
	}
}

func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		search     string
		user       string
		superseded string
		after      string
		before     string
		limit      int
		offset     int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List decisions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := decision.ListFilter{Search: search, UserID: user, Limit: limit, Offset: offset}
			if superseded != "" {
				v, err := strconv.ParseBool(superseded)
				if err != nil {
					return fmt.Errorf("--superseded must be true or false")
				}
				filter.IsSuperseded = &v
			}
			var err error
			if filter.CreatedAfter, err = parseTimeFlag("after", after); err != nil {
				return err
			}
			if filter.CreatedBefore, err = parseTimeFlag("before", before); err != nil {
				return err
			}

			c, err := newClient(rootOpts)
			if err != nil {
				return err
			}
			res, err := c.ListDecisions(commandContext(cmd), filter)
			if err != nil {
				return err
			}
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Print(res, func(w io.Writer) {
				for i := range res.Decisions {
					writeDecisionLine(w, &res.Decisions[i])
				}
				fmt.Fprintf(w, "%d of %d decisions\n", len(res.Decisions), res.Total)
			})
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive text search")
	cmd.Flags().StringVar(&user, "author", "", "only decisions by this user id")
	cmd.Flags().StringVar(&superseded, "superseded", "", "true or false")
	cmd.Flags().StringVar(&after, "after", "", "created at or after (RFC 3339)")
	cmd.Flags().StringVar(&before, "before", "", "created before (RFC 3339)")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")
	return cmd
}

func parseTimeFlag(name, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &t, nil
}
