package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/suPer8Hu/goldgpt/internal/chat"
)

func newAskCmd(e *env) *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Send one message through the assistant and print the reply",
		Long: `Send one message through the assistant and print the reply.

Examples:
  goldgpt ask "What is the gold price in Kuwait?"
  goldgpt ask "generate image of a gold ring"
  goldgpt ask --session s1 "and in 22K?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.Context(), e, cmd.OutOrStdout(), strings.Join(args, " "), sessionID)
		},
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "stored session to take prior turns from")
	return cmd
}

func runAsk(ctx context.Context, e *env, out io.Writer, message, sessionID string) error {
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("message is required")
	}
	app, err := buildApp(ctx, e.cfg, e.log, buildOptions{})
	if err != nil {
		return err
	}
	defer app.Close()

	reply := app.Chat.Respond(ctx, chat.Request{Message: message, SessionID: sessionID})
	return printReply(out, reply)
}

func printReply(w io.Writer, r chat.Reply) error {
	if _, err := fmt.Fprintln(w, r.Text); err != nil {
		return err
	}
	if r.Chart != nil {
		if _, err := fmt.Fprintf(w, "\n[chart] %s (%d points)\n", r.Chart.Title, len(r.Chart.X)); err != nil {
			return err
		}
	}
	if r.Image != nil {
		if _, err := fmt.Fprintf(w, "\n[image] %s\n", r.Image.Filename); err != nil {
			return err
		}
	}
	return nil
}
