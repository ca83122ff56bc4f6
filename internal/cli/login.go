package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// NewLoginCmd exchanges a Google ID token for a backend session.
func NewLoginCmd(deps *Dependencies) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with the EchoLog backend via Google",
		Long:  "Exchange a Google ID token for an EchoLog session.\nObtain the token from the EchoLog web sign-in page and pass it with --token, or paste it when prompted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(token) == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Paste Google ID token: ")
				reader := bufio.NewReader(os.Stdin)
				line, err := reader.ReadString('\n')
				if err != nil {
					return fmt.Errorf("read token: %w", err)
				}
				token = strings.TrimSpace(line)
			}

			sess, err := deps.App.Client.Login(cmd.Context(), token)
			if err != nil {
				return err
			}
			if err := deps.App.SaveSession(sess); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s <%s>\n", sess.UserName, sess.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Google ID token")
	return cmd
}

// NewLogoutCmd clears the persisted session.
func NewLogoutCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps.App.ClearSession(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}
