package cmd

import (
	"encoding/json"
	"sort"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/vidora/vidora/style"
	"github.com/vidora/vidora/util"
	"github.com/vidora/vidora/where"
)

func init() {
	rootCmd.AddCommand(cacheCmd)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and clear the resolved stream cache",
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheStatsCmd.Flags().BoolP("json", "j", false, "Print the stats as JSON")
	cacheStatsCmd.Flags().BoolP("entries", "e", false, "List cached streams")
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show how many streams are cached and when they expire",
	Run: func(cmd *cobra.Command, args []string) {
		a := mustApp()
		defer util.Ignore(a.Close)

		stats := a.cache.Stats()
		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(stats))
			return
		}

		entries := a.cache.Entries()

		label := style.Fg(style.Blue)
		cmd.Printf("%s %d/%d\n", label("Cached:"), len(entries), stats.Capacity)
		cmd.Printf("%s %d\n", label("Persisted:"), stats.Persisted)
		cmd.Printf("%s %d\n", label("Expired:"), stats.Expired)
		cmd.Printf("%s %s\n", label("TTL:"), stats.TTL)
		cmd.Printf("%s %s\n", label("File:"), where.Streams())

		if !lo.Must(cmd.Flags().GetBool("entries")) {
			return
		}

		keys := lo.Keys(entries)
		sort.Strings(keys)

		cmd.Println()
		for _, k := range keys {
			e := entries[k]
			cmd.Printf("%s %s\n", style.Fg(style.Purple)(k), style.Faint("expires "+e.ExpiresAt.Format("2006-01-02 15:04")))
		}
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	addYesFlag(cacheClearCmd)
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget every resolved stream",
	Run: func(cmd *cobra.Command, args []string) {
		if !confirm(cmd, "Clear the stream cache?") {
			return
		}

		a := mustApp()
		defer util.Ignore(a.Close)

		n := len(a.cache.Entries())
		a.cache.Clear()
		success("cleared %s", util.Quantify(n, "stream", "streams"))
	},
}
