package cmd

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/vidora/vidora/embed"
	"github.com/vidora/vidora/session"
	"github.com/vidora/vidora/video"
)

// schemaTargets are the documents vidora reads or writes as JSON.
var schemaTargets = map[string]any{
	"item":     []video.Item{},
	"stream":   &video.StreamInfo{},
	"embed":    &embed.Config{},
	"snapshot": &session.Snapshot{},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

var schemaCmd = &cobra.Command{
	Use:       "schema [item|stream|embed|snapshot]",
	Short:     "Print the JSON schema of a vidora document",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: lo.Keys(schemaTargets),
	Run: func(cmd *cobra.Command, args []string) {
		name := "item"
		if len(args) == 1 {
			name = args[0]
		}

		target, ok := schemaTargets[name]
		if !ok {
			handleErr(fmt.Errorf("unknown schema %q, expected one of %v", name, lo.Keys(schemaTargets)))
		}

		reflector := new(jsonschema.Reflector)
		reflector.Anonymous = true
		reflector.Namer = func(t reflect.Type) string {
			return t.Name()
		}

		handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(reflector.Reflect(target)))
	},
}
