package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vidora/vidora/embed"
	"github.com/vidora/vidora/key"
	"github.com/vidora/vidora/log"
	"github.com/vidora/vidora/player"
	"github.com/vidora/vidora/progress"
	"github.com/vidora/vidora/queue"
	"github.com/vidora/vidora/strategy"
	"github.com/vidora/vidora/style"
	"github.com/vidora/vidora/tui"
	"github.com/vidora/vidora/util"
	"github.com/vidora/vidora/video"
)

func completionPlatforms(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return lo.Map(video.Platforms(), func(p video.Platform, _ int) string {
		return string(p)
	}), cobra.ShellCompDirectiveNoFileComp
}

// parsePlatform accepts any casing and suggests the closest platform for typos.
func parsePlatform(name string) (video.Platform, error) {
	p := video.ParsePlatform(name)
	if video.Known(p) {
		return p, nil
	}

	closest := lo.MinBy(video.Platforms(), func(a, b video.Platform) bool {
		return levenshtein.Distance(string(p), string(a)) < levenshtein.Distance(string(p), string(b))
	})
	return "", fmt.Errorf(
		"unknown platform %s, did you mean %s?",
		style.Fg(style.Red)(name),
		style.Fg(style.Yellow)(string(closest)),
	)
}

// parseItems builds queue items from ids or URLs on one platform.
func parseItems(platform video.Platform, refs []string) []video.Item {
	return lo.Map(refs, func(ref string, _ int) video.Item {
		id, ok := embed.ExtractID(platform, ref)
		if !ok {
			id = ref
		}
		return video.Item{Platform: platform, VideoID: id}
	})
}

// startIndex resolves --from against the queue, by position or by title.
func startIndex(items []video.Item, from string, index int) (int, error) {
	if from == "" {
		return util.Clamp(index, 0, len(items)-1), nil
	}

	matches := queue.New(items, 0).Find(from)
	if len(matches) == 0 {
		return 0, fmt.Errorf("nothing in the queue matches %q", from)
	}
	return matches[0], nil
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringP("mode", "m", "", "Presentation mode: modal, pip or minimized")
	lo.Must0(playCmd.RegisterFlagCompletionFunc("mode", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{string(player.Modal), string(player.PiP), string(player.Minimized)}, cobra.ShellCompDirectiveNoFileComp
	}))
	lo.Must0(viper.BindPFlag(key.PlayerDefaultMode, playCmd.Flags().Lookup("mode")))

	playCmd.Flags().StringP("strategy", "s", "", "Pin a playback strategy instead of choosing automatically")
	lo.Must0(playCmd.RegisterFlagCompletionFunc("strategy", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return lo.Map(strategy.Precedence, func(s strategy.Strategy, _ int) string { return s.String() }), cobra.ShellCompDirectiveNoFileComp
	}))

	playCmd.Flags().IntP("index", "i", 0, "Queue position to start from")
	playCmd.Flags().StringP("from", "f", "", "Start from the queue entry whose title best matches")
	playCmd.MarkFlagsMutuallyExclusive("index", "from")

	playCmd.Flags().Bool("inline", false, "Render the player bar without the alternate screen")
}

var playCmd = &cobra.Command{
	Use:   "play <platform> <id|url>...",
	Short: "Play one or more videos as a queue",
	Long: `Play one or more videos from a platform as a queue.
Local files registered with "vidora library add" play with the "local" platform and their library id.`,
	Example: "  vidora play youtube dQw4w9WgXcQ https://youtu.be/9bZkp7q19f0\n  vidora play local 6f1c0a0e-5a1f-4d0f-9a57-8c1d0e7b2f11 --mode pip",
	Args:              cobra.MinimumNArgs(2),
	ValidArgsFunction: completionPlatforms,
	Run: func(cmd *cobra.Command, args []string) {
		platform, err := parsePlatform(args[0])
		handleErr(err)

		var pinned strategy.Strategy
		if s := lo.Must(cmd.Flags().GetString("strategy")); s != "" {
			pinned, err = strategy.Parse(s)
			handleErr(err)
		}

		if _, err := player.ParseMode(viper.GetString(key.PlayerDefaultMode)); err != nil {
			handleErr(err)
		}

		checkPlayer()

		a := mustApp()
		defer func() {
			if err := a.Close(); err != nil {
				log.Warn(err)
			}
		}()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go a.reconcile(ctx)

		items := parseItems(platform, args[1:])
		if platform == video.Local {
			items, err = a.localItems(ctx, items)
			handleErr(err)
		}
		items = a.hydrate(ctx, items)

		start, err := startIndex(
			items,
			lo.Must(cmd.Flags().GetString("from")),
			lo.Must(cmd.Flags().GetInt("index")),
		)
		handleErr(err)

		o := a.session(player.NewDefault(player.MPVOptionsFromConfig()))
		defer o.Stop()

		stopMirror := mirror(ctx, o)
		defer stopMirror()

		if pinned != "" {
			o.SetOverride(pinned)
		}
		o.OpenWithQueue(items, start)

		go func() {
			<-ctx.Done()
			o.Close()
		}()

		handleErr(tui.Run(o, &tui.Options{
			Items:  items,
			Inline: lo.Must(cmd.Flags().GetBool("inline")),
		}))
	},
}

// localItems replaces library ids with the registered downloads.
func (a *app) localItems(ctx context.Context, items []video.Item) ([]video.Item, error) {
	if a.library == nil {
		return nil, errors.New("the offline library is disabled, enable library.enable to play local files")
	}

	out := make([]video.Item, 0, len(items))
	for _, item := range items {
		d, err := a.library.Get(ctx, item.VideoID)
		if err != nil {
			return nil, fmt.Errorf("library entry %s: %w", item.VideoID, err)
		}
		out = append(out, d.Item())
	}
	return out, nil
}

// hydrate fills the last durable position of each item from the offline library
// when it is the durable store.
func (a *app) hydrate(ctx context.Context, items []video.Item) []video.Item {
	if a.backend != nil || a.library == nil {
		return items
	}
	return lo.Map(items, func(item video.Item, _ int) video.Item {
		return a.library.Hydrate(ctx, item)
	})
}

// reconcile pushes positions left over from earlier offline sessions.
func (a *app) reconcile(ctx context.Context) {
	remote := a.remote()
	if remote == nil {
		return
	}

	logger := log.Component("progress")
	n, err := progress.Reconcile(ctx, a.store, remote)
	if err != nil {
		logger.WithError(err).Warn("reconcile")
	}
	if n > 0 {
		logger.WithField("records", n).Info("reconciled pending progress")
	}
}
