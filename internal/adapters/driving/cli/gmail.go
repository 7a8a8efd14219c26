package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gsuite-cli/internal/connectors/google/gmail"
)

var gmailCmd = &cobra.Command{
	Use:   "gmail",
	Short: "Read and send Gmail",
	Long: `Work with the authenticated Gmail mailbox.

Examples:
  gsuite gmail unread
  gsuite gmail unread --max 50
  gsuite gmail send --to alice@example.com --subject "Hi" --body "Hello"
  gsuite gmail labels`,
}

var gmailUnreadCmd = &cobra.Command{
	Use:   "unread",
	Short: "List unread inbox messages",
	RunE:  runGmailUnread,
}

var gmailSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send an email",
	RunE:  runGmailSend,
}

var gmailLabelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "List labels with unread counts",
	RunE:  runGmailLabels,
}

var (
	gmailUnreadMax int64

	gmailSendTo      []string
	gmailSendCC      []string
	gmailSendSubject string
	gmailSendBody    string
	gmailSendHTML    bool
)

func init() {
	gmailUnreadCmd.Flags().Int64Var(&gmailUnreadMax, "max", 25, "Maximum number of messages")

	gmailSendCmd.Flags().StringSliceVar(&gmailSendTo, "to", nil, "Recipient (repeatable)")
	gmailSendCmd.Flags().StringSliceVar(&gmailSendCC, "cc", nil, "CC recipient (repeatable)")
	gmailSendCmd.Flags().StringVar(&gmailSendSubject, "subject", "", "Subject line")
	gmailSendCmd.Flags().StringVar(&gmailSendBody, "body", "", "Message body")
	gmailSendCmd.Flags().BoolVar(&gmailSendHTML, "html", false, "Treat the body as HTML")
	_ = gmailSendCmd.MarkFlagRequired("to")

	gmailCmd.AddCommand(gmailUnreadCmd)
	gmailCmd.AddCommand(gmailSendCmd)
	gmailCmd.AddCommand(gmailLabelsCmd)
	rootCmd.AddCommand(gmailCmd)
}

func gmailClient(ctx context.Context) (*gmail.Client, error) {
	if err := requireDeps(); err != nil {
		return nil, err
	}
	return gmail.NewClient(ctx, deps.Manager,
		gmail.WithRetryPolicy(deps.Settings.RetryPolicy()),
		gmail.WithRequestTimeout(deps.Settings.RequestTimeoutDuration()))
}

func runGmailUnread(cmd *cobra.Command, _ []string) error {
	client, err := gmailClient(cmd.Context())
	if err != nil {
		return err
	}

	messages, err := client.UnreadInbox(cmd.Context(), gmailUnreadMax)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		cmd.Println("No unread messages.")
		return nil
	}

	for _, m := range messages {
		cmd.Printf("%s  %-30s  %s\n", m.Date.Format("Jan 02 15:04"), truncate(m.From, 30), m.Subject)
	}
	return nil
}

func runGmailSend(cmd *cobra.Command, _ []string) error {
	client, err := gmailClient(cmd.Context())
	if err != nil {
		return err
	}

	msg, err := client.Send(cmd.Context(), gmail.SendOptions{
		To:      gmailSendTo,
		CC:      gmailSendCC,
		Subject: gmailSendSubject,
		Body:    gmailSendBody,
		HTML:    gmailSendHTML,
	})
	if err != nil {
		return fmt.Errorf("sending message: %w", err)
	}

	cmd.Printf("Sent message %s to %s\n", msg.ID, strings.Join(gmailSendTo, ", "))
	return nil
}

func runGmailLabels(cmd *cobra.Command, _ []string) error {
	client, err := gmailClient(cmd.Context())
	if err != nil {
		return err
	}

	labels, err := client.Labels(cmd.Context())
	if err != nil {
		return err
	}

	for _, l := range labels {
		cmd.Printf("%-25s %6d unread / %d total\n", l.Name, l.MessagesUnread, l.MessagesTotal)
	}
	return nil
}

// truncate shortens a string for column output.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
