package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/N474NR4/UCHI-Subaru/internal/model"
	"github.com/N474NR4/UCHI-Subaru/internal/seed"
)

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list [query]",
		Short: "List stored models, optionally filtered by name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var query string
			if len(args) == 1 {
				query = args[0]
			}

			s, err := openStore(cmd.Context(), rootOpts.Config)
			if err != nil {
				return err
			}
			defer s.Close()

			items, err := s.Search(cmd.Context(), query)
			if err != nil {
				return err
			}
			return writeItems(cmd.OutOrStdout(), items)
		},
	}
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Insert the models listed in a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := seed.LoadFile(args[0])
			if err != nil {
				return err
			}

			s, err := openStore(cmd.Context(), rootOpts.Config)
			if err != nil {
				return err
			}
			defer s.Close()

			ids, err := seed.Apply(cmd.Context(), s, items)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Inserted %d models.\n", len(ids))
			return nil
		},
	}
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(cmd.Context(), rootOpts.Config)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.ClearAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database cleared.")
			return nil
		},
	}
}

func writeItems(w io.Writer, items []model.Item) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tYEAR\tPRICE\tDESCRIPTION\tIMAGE")
	for _, item := range items {
		image := "N/A"
		if item.HasImage() {
			image = *item.ImageRef
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\n",
			item.ID, item.Name, item.Year, model.FormatPrice(item.Price), model.TextValue(item.Description), image)
	}
	return tw.Flush()
}
