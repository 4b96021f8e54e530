package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/vidora/vidora/icon"
	"github.com/vidora/vidora/key"
	"github.com/vidora/vidora/progress"
	"github.com/vidora/vidora/style"
	"github.com/vidora/vidora/util"
)

func init() {
	rootCmd.AddCommand(progressCmd)
}

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Inspect, sync and clear locally saved playback positions",
}

func init() {
	progressCmd.AddCommand(progressListCmd)
	progressListCmd.Flags().BoolP("json", "j", false, "Print the records as JSON")
	progressListCmd.Flags().BoolP("pending", "p", false, "Only records not yet synced to the durable store")
}

var progressListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved positions, most recent first",
	Run: func(cmd *cobra.Command, args []string) {
		a := mustApp()
		defer util.Ignore(a.Close)

		records := a.store.All()
		if lo.Must(cmd.Flags().GetBool("pending")) {
			records = lo.Filter(records, func(r progress.Record, _ int) bool {
				return !r.Synced
			})
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(records))
			return
		}

		if len(records) == 0 {
			cmd.Println(style.Faint("No saved progress"))
			return
		}

		for _, r := range records {
			cmd.Println(formatRecord(r))
		}
	},
}

func formatRecord(r progress.Record) string {
	status := style.Faint(icon.Get(icon.Progress))
	if r.Synced {
		status = style.Fg(style.Green)(icon.Get(icon.Success))
	}

	line := fmt.Sprintf("%s %s %s", status, r.String(), style.Faint(r.Key))
	if r.Duration > 0 {
		line += style.Faint(fmt.Sprintf(" %.0f%%", r.Fraction()*100))
	}
	return line
}

func init() {
	progressCmd.AddCommand(progressClearCmd)
	addYesFlag(progressClearCmd)
	progressClearCmd.Flags().StringP("key", "k", "", "Only clear the record with this key")
	progressClearCmd.Flags().Bool("offline", false, "Also clear the durable progress kept in the offline library")
}

var progressClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget saved positions",
	Run: func(cmd *cobra.Command, args []string) {
		a := mustApp()
		defer util.Ignore(a.Close)

		if k := lo.Must(cmd.Flags().GetString("key")); k != "" {
			if a.store.Get(k).IsAbsent() {
				handleErr(fmt.Errorf("no progress saved for %s", k))
			}
			handleErr(a.store.Clear(k))
			success("cleared %s", style.Fg(style.Purple)(k))
			return
		}

		if !confirm(cmd, "Clear all saved progress?") {
			return
		}

		n := len(a.store.All())
		handleErr(a.store.ClearAll())

		if lo.Must(cmd.Flags().GetBool("offline")) && a.library != nil {
			handleErr(a.library.ClearProgress(context.Background()))
		}

		success("cleared %s", util.Quantify(n, "record", "records"))
	},
}

func init() {
	progressCmd.AddCommand(progressSyncCmd)
}

var progressSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push positions the durable store has not acknowledged",
	Run: func(cmd *cobra.Command, args []string) {
		a := mustApp()
		defer util.Ignore(a.Close)

		remote := a.remote()
		if remote == nil {
			handleErr(fmt.Errorf("no durable store, set %s or enable the offline library", style.Fg(style.Purple)(key.BackendURL)))
		}

		n, err := progress.Reconcile(cmd.Context(), a.store, remote)
		if n > 0 || err == nil {
			success("synced %s", util.Quantify(n, "record", "records"))
		}
		handleErr(err)
	},
}
