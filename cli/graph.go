// ABOUTME: Graph and phone commands
// ABOUTME: Renders duplicate groups with graphviz and shows how phone numbers normalize
package cli

import (
	"github.com/spf13/cobra"

	"github.com/harperreed/vcfmerge/dedupe"
	"github.com/harperreed/vcfmerge/phone"
	"github.com/harperreed/vcfmerge/viz"
)

func newGraphCmd(a *app) *cobra.Command {
	var by, format, out string

	cmd := &cobra.Command{
		Use:   "graph <file>",
		Short: "Draw duplicate groups as a graph",
		Long: `Render the contacts that belong to a duplicate group as a graphviz graph.
Contacts claimed by more than one group are highlighted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := viz.ParseFormat(format)
			if err != nil {
				return err
			}

			mode := a.cfg.Mode()
			if by != "" {
				if mode, err = dedupe.ParseMode(by); err != nil {
					return err
				}
			}

			contacts, _, err := a.readContacts(args[0], "")
			if err != nil {
				return err
			}

			groups, err := dedupe.NewMatcher(a.cfg.DefaultCountryCode).Find(mode, contacts)
			if err != nil {
				return err
			}

			generator := viz.NewGraphGenerator("Duplicates in " + baseName(args[0]))
			rendered, err := generator.GenerateDuplicateGraph(cmd.Context(), contacts, groups, f)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, rendered)
		},
	}

	cmd.Flags().StringVar(&by, "by", "", "Match contacts by name, phone or email")
	cmd.Flags().StringVar(&format, "format", string(viz.FormatDOT), "Output format: dot or svg")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: stdout)")
	return cmd
}

func newPhoneCmd(a *app) *cobra.Command {
	var countryCode string

	cmd := &cobra.Command{
		Use:   "phone <number>...",
		Short: "Show normalized and display forms of phone numbers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if countryCode == "" {
				countryCode = a.cfg.DefaultCountryCode
			}
			for _, raw := range args {
				normalized := phone.NormalizeWithCountry(raw, countryCode)
				_, usable := phone.Key(raw, countryCode)
				cmd.Printf("%-20s %-16s %-20s match=%t\n", raw, normalized, phone.FormatWithCountry(raw, countryCode), usable)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&countryCode, "country", "", "Country code for numbers without one")
	return cmd
}
