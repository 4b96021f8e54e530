package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/vidora/vidora/icon"
	"github.com/vidora/vidora/library"
	"github.com/vidora/vidora/style"
	"github.com/vidora/vidora/util"
	"github.com/vidora/vidora/video"
)

func init() {
	rootCmd.AddCommand(libraryCmd)
}

var libraryCmd = &cobra.Command{
	Use:     "library",
	Aliases: []string{"lib"},
	Short:   "Manage local media files available for offline playback",
}

// mustLibrary opens the app and fails when the library is disabled.
func mustLibrary() (*app, *library.Store) {
	a := mustApp()
	if a.library == nil {
		handleErr(errors.New("the offline library is disabled, enable library.enable to use it"))
	}
	return a, a.library
}

func init() {
	libraryCmd.AddCommand(libraryAddCmd)
}

var libraryAddCmd = &cobra.Command{
	Use:   "add <file>...",
	Short: "Register local media files",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, lib := mustLibrary()
		defer util.Ignore(a.Close)

		for _, path := range args {
			d, err := lib.Add(context.Background(), path)
			handleErr(err)
			success("added %s %s", style.Fg(style.Purple)(d.Title), style.Faint(d.ID))
		}
	},
}

func init() {
	libraryCmd.AddCommand(libraryListCmd)
	libraryListCmd.Flags().BoolP("json", "j", false, "Print the entries as JSON")
}

var libraryListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List registered files",
	Run: func(cmd *cobra.Command, args []string) {
		a, lib := mustLibrary()
		defer util.Ignore(a.Close)

		downloads, err := lib.List(context.Background())
		handleErr(err)

		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(downloads))
			return
		}

		if len(downloads) == 0 {
			cmd.Println(style.Faint("The library is empty"))
			return
		}

		for _, d := range downloads {
			cmd.Println(formatDownload(d))
		}
	},
}

func formatDownload(d library.Download) string {
	title := style.Bold(d.Title)
	if d.ContentType == video.ContentAudio {
		title = icon.Get(icon.Audio) + " " + title
	}

	details := []string{d.ID}
	if d.Artist != "" {
		details = append(details, d.Artist)
	}
	details = append(details, humanize.Bytes(uint64(d.Size)))

	return fmt.Sprintf("%s\n  %s\n  %s", title, style.Faint(strings.Join(details, " · ")), style.Faint(d.Path))
}

func init() {
	libraryCmd.AddCommand(libraryRemoveCmd)
	addYesFlag(libraryRemoveCmd)
}

var libraryRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Unregister a file. The file itself is kept",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		a, lib := mustLibrary()
		defer util.Ignore(a.Close)

		ctx := context.Background()
		d, err := lib.Get(ctx, args[0])
		handleErr(err)

		if !confirm(cmd, fmt.Sprintf("Remove %s from the library?", d.Title)) {
			return
		}

		handleErr(lib.Remove(ctx, d.ID))
		success("removed %s", style.Fg(style.Purple)(d.Title))
	},
}
