package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Pavlovskyi-Andrii/sub5-project/internal/client"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/render"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/report"
	"github.com/spf13/cobra"
)

const chartWidth = 80

var (
	jsonOutput bool

	activityStart string
	activityEnd   string
	activityType  string
	activityLimit int

	exportFormat string
	exportOutput string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the last 7 days and the last sync",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		defer c.Close()

		s, err := c.Summary(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), s)
		}
		fmt.Fprintln(cmd.OutOrStdout(), render.Cards(render.SummaryCards(s, messages())))
		return nil
	},
}

var activitiesCmd = &cobra.Command{
	Use:   "activities",
	Short: "List activities, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		defer c.Close()

		limit := activityLimit
		if limit <= 0 {
			limit = cfg.Dashboard.ActivitiesLimit
		}
		records, err := c.Activities(cmd.Context(), client.ActivityQuery{
			Limit:     limit,
			StartDate: activityStart,
			EndDate:   activityEnd,
			Type:      activityType,
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), records)
		}
		fmt.Fprintln(cmd.OutOrStdout(), render.RenderTable(render.ActivityRows(records, messages())))
		return nil
	},
}

var weeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Print weekly statistics with distance and time charts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		defer c.Close()

		stats, err := c.WeeklyStats(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), stats)
		}

		msgs := messages()
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, render.RenderTable(render.WeeklyStatRows(stats, msgs)))
		if len(stats) > 0 {
			fmt.Fprintln(out, render.BarChart(render.WeeklyDistance(stats, msgs), chartWidth, msgs.NoWeeklyStats))
			fmt.Fprintln(out, render.BarChart(render.WeeklyTime(stats, msgs), chartWidth, msgs.NoWeeklyStats))
		}
		return nil
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print recent sync runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		defer c.Close()

		logs, err := c.SyncLogs(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), logs)
		}
		msgs := messages()
		fmt.Fprintln(cmd.OutOrStdout(), render.SyncLog(render.SyncLogEntries(logs, msgs), msgs.NoSyncLogs))
		return nil
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Ask the backend to start a sync",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		defer c.Close()

		resp, err := c.TriggerSync(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), resp)
		}
		fmt.Fprintln(cmd.OutOrStdout(), syncText(resp, messages()))
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download all activities as JSON or CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		defer c.Close()

		out := cmd.OutOrStdout()
		if exportOutput != "" && exportOutput != "-" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("creating %s: %w", exportOutput, err)
			}
			defer f.Close()
			out = f
		}
		return c.Export(cmd.Context(), exportFormat, out)
	},
}

func init() {
	for _, c := range []*cobra.Command{summaryCmd, activitiesCmd, weeklyCmd, logsCmd, syncCmd} {
		c.Flags().BoolVar(&jsonOutput, "json", false, "print the raw JSON response")
		rootCmd.AddCommand(c)
	}

	activitiesCmd.Flags().StringVar(&activityStart, "start", "", "first date to include (YYYY-MM-DD)")
	activitiesCmd.Flags().StringVar(&activityEnd, "end", "", "last date to include (YYYY-MM-DD)")
	activitiesCmd.Flags().StringVarP(&activityType, "type", "t", "", "activity type substring, e.g. cycling")
	activitiesCmd.Flags().IntVarP(&activityLimit, "limit", "n", 0, "maximum number of activities (default dashboard.activities_limit)")

	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "export format: json or csv")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}

func syncText(resp report.SyncResponse, msgs render.Messages) string {
	switch resp.Status {
	case report.SyncStarted:
		return msgs.SyncStarted
	case report.SyncRunning:
		return msgs.SyncAlreadyRunning
	}
	if resp.Message != "" {
		return resp.Message
	}
	return resp.Status
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
