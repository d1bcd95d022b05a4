// ABOUTME: MCP server subcommand
// ABOUTME: Serves the duplicate, conversion, phone and merge tools over stdio
package cli

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/harperreed/vcfmerge/handlers"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server on stdio",
		Long: `Serve vcfmerge as MCP tools over stdin and stdout. Each tool takes vCard text
and returns its result; nothing is read from or written to disk. Defaults for
match mode, country code and export version come from the config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.logger.Info("starting MCP server")
			return newMCPServer(a).Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}

// newMCPServer registers every tool against handlers built from the config.
func newMCPServer(a *app) *mcp.Server {
	contactHandlers := handlers.NewContactHandlers(a.cfg.DefaultCountryCode, a.cfg.Mode(), a.cfg.ExportVersion, a.logger)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "vcfmerge",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_duplicates",
		Description: "List groups of contacts in vCard text that share a name, phone or email",
	}, contactHandlers.FindDuplicates)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "convert_vcards",
		Description: "Rewrite vCard text in another vCard version",
	}, contactHandlers.ConvertVCards)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "normalize_phones",
		Description: "Normalize phone numbers, format them for display, and report whether they can be matched",
	}, contactHandlers.NormalizePhones)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "merge_duplicates",
		Description: "Merge every duplicate group in vCard text as proposed and return the merged vCard text",
	}, contactHandlers.MergeDuplicates)

	return server
}
