package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/domain"
)

// status: show the commit cursor for a conversation.
func statusCmd() *cobra.Command {
	var conversation string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the highest committed counter for a conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			conv := domain.ConversationID(conversation)
			max, known, err := wire.Vault.LocalMaxCounter(cmd.Context(), conv)
			if err != nil {
				return err
			}
			if !known {
				fmt.Printf("%s: no messages committed\n", conv)
				return nil
			}
			fmt.Printf("%s: committed through counter %d\n", conv, max)

			recs, err := wire.Vault.EscrowGet(cmd.Context(), conv, max)
			if err != nil {
				return err
			}
			for _, rec := range recs {
				fmt.Printf("  escrowed %s key for message %s\n", rec.Direction, rec.MessageID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&conversation, "conversation", "", "conversation id")
	_ = cmd.MarkFlagRequired("conversation")
	return cmd
}
