package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func NewProfilesCmd(env Environment) *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List configured monitoring backends",
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, err := env.Profiles(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list profiles: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tURL\tTIMEOUT")
			for _, p := range profiles {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, p.URL, p.Timeout)
			}
			return w.Flush()
		},
	}
}
