package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/domain"
)

// seal: encrypt one outbound message to a peer device and print the envelope.
func sealCmd() *cobra.Command {
	var (
		peerDigest string
		peerDevice string
		msgType    string
	)
	cmd := &cobra.Command{
		Use:   "seal <plaintext>",
		Short: "Seal an outbound message for a peer device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			peer := domain.PeerDevice{
				AccountDigest: domain.AccountDigest(peerDigest),
				DeviceID:      domain.DeviceID(peerDevice),
			}
			env, err := wire.Committer.SealOutgoing(cmd.Context(), peer, msgType, []byte(args[0]))
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(env, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&peerDigest, "peer-digest", "", "peer account digest")
	cmd.Flags().StringVar(&peerDevice, "peer-device", "primary", "peer device id")
	cmd.Flags().StringVar(&msgType, "type", "text", "message type hint")
	_ = cmd.MarkFlagRequired("peer-digest")
	return cmd
}
