package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vidora/vidora/embed"
	"github.com/vidora/vidora/icon"
	"github.com/vidora/vidora/key"
	"github.com/vidora/vidora/strategy"
	"github.com/vidora/vidora/style"
	"github.com/vidora/vidora/video"
)

func init() {
	rootCmd.AddCommand(embedCmd)

	embedCmd.Flags().IntP("start", "t", 0, "Start offset in seconds")
	embedCmd.Flags().BoolP("json", "j", false, "Print the result as JSON")
	embedCmd.Flags().BoolP("platforms", "p", false, "List supported platforms and what they allow")
}

var embedCmd = &cobra.Command{
	Use:               "embed <platform> <id|url>",
	Short:             "Show how a video embeds on its platform",
	Args:              cobra.RangeArgs(0, 2),
	ValidArgsFunction: completionPlatforms,
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("platforms")) {
			printPlatforms(cmd)
			return
		}

		if len(args) != 2 {
			handleErr(fmt.Errorf("expected a platform and a video, got %d arguments", len(args)))
		}

		platform, err := parsePlatform(args[0])
		handleErr(err)

		config := embed.ResolveWith(platform, args[1], embed.Options{
			ParentHost: viper.GetString(key.EmbedParentHost),
			Start:      lo.Must(cmd.Flags().GetInt("start")),
		})

		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(config))
			return
		}

		cmd.Printf("%s %s\n", style.Fg(style.Blue)("Page:"), embed.PageURL(platform, args[1]))
		if config.SupportsEmbed {
			cmd.Printf("%s %s %s\n", style.Fg(style.Blue)("Embed:"), style.Fg(style.Green)(icon.Get(icon.Success)), config.EmbedURL)
		} else {
			cmd.Printf("%s %s %s\n", style.Fg(style.Blue)("Embed:"), style.Fg(style.Red)(icon.Get(icon.Fail)), style.Faint(config.FallbackReason))
		}

		names := lo.Map(strategiesFor(platform, args[1]), func(s strategy.Strategy, _ int) string {
			return style.Tag(style.Base, style.StrategyColor(s.String()))(s.String())
		})
		cmd.Printf("%s %s\n", style.Fg(style.Blue)("Strategies:"), strings.Join(names, " "))
	},
}

// strategiesFor lists the strategies open to a video before its stream is
// resolved, most preferred first.
func strategiesFor(platform video.Platform, ref string) []strategy.Strategy {
	id, ok := embed.ExtractID(platform, ref)
	if !ok {
		id = ref
	}
	return strategy.Candidates(strategy.NewInput(video.Item{Platform: platform, VideoID: id}, nil))
}

func printPlatforms(cmd *cobra.Command) {
	mark := func(ok bool) string {
		if ok {
			return style.Fg(style.Green)(icon.Get(icon.Success))
		}
		return style.Faint(icon.Get(icon.Fail))
	}

	for _, p := range video.Platforms() {
		caps := video.CapabilitiesOf(p)
		cmd.Printf(
			"%-12s stream %s  player %s  audio %s\n",
			style.Fg(style.Purple)(string(p)),
			mark(caps.DirectStream),
			mark(caps.ControlAPI),
			mark(caps.AudioOnly),
		)
	}
}
