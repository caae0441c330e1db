package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/SENTRY-Security/SENTRY-Messenger-sub001/internal/domain"
)

// consume: run live jobs from a JSON file (or stdin) through the pipeline.
func consumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consume [file]",
		Short: "Commit incoming message jobs (JSON array, or - for stdin)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = os.Stdin
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			var jobs []domain.LiveJob
			if err := json.NewDecoder(r).Decode(&jobs); err != nil {
				return fmt.Errorf("decode jobs: %w", err)
			}

			failed := 0
			for _, job := range jobs {
				res := wire.Committer.ConsumeLiveJob(cmd.Context(), job)
				if !res.OK {
					failed++
				}
				out, _ := json.Marshal(res)
				fmt.Println(string(out))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d jobs did not commit", failed, len(jobs))
			}
			return nil
		},
	}
}
