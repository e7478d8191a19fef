package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/yungbote/accord-backend/internal/integrations/client"
)

func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Obtain a bearer token for --workspace and --user",
		Long: `Obtain a bearer token for --workspace and --user.

Export the printed token as ACCORD_TOKEN to skip logging in on every command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(client.Config{BaseURL: rootOpts.Server, Timeout: rootOpts.Timeout}, nil)
			res, err := c.Login(commandContext(cmd), rootOpts.Workspace, rootOpts.User)
			if err != nil {
				return err
			}
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Print(res, func(w io.Writer) {
				fmt.Fprintln(w, res.Token)
			})
		},
	}
}
