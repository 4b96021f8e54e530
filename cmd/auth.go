package cmd

import (
	"bufio"
	"errors"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vidora/vidora/auth"
	"github.com/vidora/vidora/key"
	"github.com/vidora/vidora/style"
	"golang.org/x/term"
)

func init() {
	rootCmd.AddCommand(authCmd)
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the sync backend token kept in the system keyring",
}

func init() {
	authCmd.AddCommand(authSetCmd)
}

var authSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the backend token",
	Long:  "Store the backend token. It is read from stdin when stdin is not a terminal.",
	Run: func(cmd *cobra.Command, args []string) {
		token, err := readToken()
		handleErr(err)

		handleErr(auth.SetToken(token))
		success("token stored")

		if viper.GetString(key.BackendURL) == "" {
			cmd.Println(style.Faint("No backend url is configured yet, set " + key.BackendURL))
		}
	},
}

func readToken() (string, error) {
	var token string

	if term.IsTerminal(int(os.Stdin.Fd())) {
		if err := survey.AskOne(&survey.Password{Message: "Backend token"}, &token); err != nil {
			return "", err
		}
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		token = line
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.New("empty token")
	}
	return token, nil
}

func init() {
	authCmd.AddCommand(authStatusCmd)
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Tell whether a token is stored",
	Run: func(cmd *cobra.Command, args []string) {
		token, err := auth.GetToken()
		if errors.Is(err, auth.ErrNoToken) {
			cmd.Println(style.Fg(style.Red)("no token stored"))
			return
		}
		handleErr(err)

		cmd.Printf("%s %s\n", style.Fg(style.Green)("token stored"), style.Faint(mask(token)))
	},
}

// mask keeps the last four characters of a secret.
func mask(secret string) string {
	const visible = 4
	if len(secret) <= visible {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-visible) + secret[len(secret)-visible:]
}

func init() {
	authCmd.AddCommand(authClearCmd)
	addYesFlag(authClearCmd)
}

var authClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored token",
	Run: func(cmd *cobra.Command, args []string) {
		if !confirm(cmd, "Remove the backend token?") {
			return
		}

		handleErr(auth.DeleteToken())
		success("token removed")
	},
}
