package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcdev12/codeduel/clients/matchapi"
	"github.com/mcdev12/codeduel/internal/config"
)

func newLeaderboardCmd(configPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the top ranked players",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLeaderboard(*configPath, limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "number of rows to fetch")
	return cmd
}

func runLeaderboard(configPath string, limit int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	api := matchapi.NewClient(cfg.API.BaseURL, config.Duration(cfg.API.Timeout, 30*time.Second))
	entries, err := api.Leaderboard(limit)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("No players yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tPLAYER\tELO")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%d\n", e.Rank, e.Username, e.Elo)
	}
	return w.Flush()
}
