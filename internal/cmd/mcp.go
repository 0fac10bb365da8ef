package cmd

import (
	"time"

	"github.com/Pavlovskyi-Andrii/sub5-project/internal/mcpserver"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the training database to an AI assistant over MCP stdio",
	Long: `Serve the local training database over the Model Context Protocol on
stdin/stdout. Point an assistant's MCP configuration at "sub5 mcp".

Tools: get_dashboard_summary, get_weekly_volume, find_activities,
get_sync_history. Logs go to stderr.
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sqlDB, queries, err := openQueries(ctx)
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		return mcpserver.New(queries, mcpserver.Options{Location: time.Local}).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
