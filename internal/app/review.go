package app

import (
	"context"
	"fmt"

	"classifybot/internal/logger"
	"classifybot/internal/review"

	"github.com/spf13/cobra"
)

func (c *cli) newReviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Surface classifications that still need a human decision",
	}

	var post, schedule bool
	digest := &cobra.Command{
		Use:   "digest",
		Short: "Print or post the list of records marked needs-review or undetermined",
		Example: `  classifybot review digest
  classifybot review digest --post
  classifybot review digest --schedule   # post on review_digest_schedule until interrupted`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := c.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer rt.Close()

			if (post || schedule) && (rt.slack == nil || rt.cfg.ReviewChannelID == "") {
				return fmt.Errorf("posting the digest requires slack_bot_token and review_channel_id")
			}

			if schedule {
				err := review.RunDigestScheduler(cmd.Context(), rt.cfg.ReviewDigestSchedule, rt.cfg.Location, func(ctx context.Context) {
					if _, err := review.PostDigest(ctx, rt.slack, rt.cfg.ReviewChannelID, rt.history, rt.cfg.Location); err != nil {
						logger.Error().Err(err).Msg("scheduled review digest failed")
					}
				})
				if cmd.Context().Err() != nil {
					return nil
				}
				return err
			}

			if post {
				n, err := review.PostDigest(cmd.Context(), rt.slack, rt.cfg.ReviewChannelID, rt.history, rt.cfg.Location)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.out, "posted digest with %d pending record(s)\n", n)
				return nil
			}

			text, _, err := review.BuildDigest(cmd.Context(), rt.history, rt.cfg.Location)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, text)
			return nil
		},
	}
	digest.Flags().BoolVar(&post, "post", false, "Post the digest to review_channel_id")
	digest.Flags().BoolVar(&schedule, "schedule", false, "Keep running and post on review_digest_schedule")
	cmd.AddCommand(digest)
	return cmd
}
