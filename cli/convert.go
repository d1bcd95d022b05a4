// ABOUTME: Convert and groups commands
// ABOUTME: Re-serializes a vCard file to another version and lists duplicate groups as a table
package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harperreed/vcfmerge/dedupe"
	"github.com/harperreed/vcfmerge/models"
)

func newConvertCmd(a *app) *cobra.Command {
	var out, toVersion string

	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Rewrite a vCard file in another version",
		Long: `Parse every record in a vCard file and write it again in the chosen version.
Fields the target version cannot hold are dropped. Output goes to stdout unless --out is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if toVersion == "" {
				toVersion = a.cfg.ExportVersion
			}

			contacts, codec, err := a.readContacts(args[0], "")
			if err != nil {
				return err
			}

			text, err := codec.Export(contacts, toVersion)
			if err != nil {
				return err
			}
			if err := writeOutput(cmd, out, text); err != nil {
				return err
			}
			if out != "" {
				cmd.Printf("Wrote %d contacts (vCard %s) to %s\n", len(contacts), toVersion, out)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&toVersion, "version", "", "vCard version to write: "+strings.Join(models.SupportedVersions, ", "))
	return cmd
}

func newGroupsCmd(a *app) *cobra.Command {
	var by, countryCode string

	cmd := &cobra.Command{
		Use:   "groups <file>",
		Short: "List duplicate groups without merging",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := a.cfg.Mode()
			if by != "" {
				m, err := dedupe.ParseMode(by)
				if err != nil {
					return err
				}
				mode = m
			}
			if countryCode == "" {
				countryCode = a.cfg.DefaultCountryCode
			}

			contacts, _, err := a.readContacts(args[0], countryCode)
			if err != nil {
				return err
			}

			groups, err := dedupe.NewMatcher(countryCode).Find(mode, contacts)
			if err != nil {
				return err
			}
			if len(groups) == 0 {
				cmd.Printf("No duplicates found among %d contacts (matched by %s).\n", len(contacts), mode)
				return nil
			}

			printGroups(cmd, contacts, groups)
			cmd.Printf("\n%d groups among %d contacts (matched by %s)\n", len(groups), len(contacts), mode)
			return nil
		},
	}

	cmd.Flags().StringVar(&by, "by", "", "Match contacts by name, phone or email")
	cmd.Flags().StringVar(&countryCode, "country", "", "Country code for numbers without one")
	return cmd
}

func printGroups(cmd *cobra.Command, contacts []models.Contact, groups []models.DuplicateGroup) {
	byID := make(map[string]*models.Contact, len(contacts))
	for i := range contacts {
		byID[contacts[i].ID] = &contacts[i]
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "GROUP\tNAME\tPHONES\tEMAILS")
	_, _ = fmt.Fprintln(w, "-----\t----\t------\t------")

	for gi, group := range groups {
		for _, id := range group {
			c := byID[id]
			if c == nil {
				continue
			}
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", gi+1, c.FullName, orDash(c.Phones), orDash(c.Emails))
		}
	}
	_ = w.Flush()
}

func orDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
