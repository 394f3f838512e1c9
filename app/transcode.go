package app

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// TranscodeVideoWorkflow fans the source video out to one transcode activity
// per configured bitrate and fans back in, returning one rendition per
// bitrate in the order the bitrate list came back. All branches must succeed;
// a single failure fails the whole fan-out and propagates to the parent.
func TranscodeVideoWorkflow(ctx workflow.Context, videoLocation string) ([]VideoFileInfo, error) {
	logger := workflow.GetLogger(ctx)

	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	var a *Activities

	var bitRates []int
	if err := workflow.ExecuteActivity(ctx, a.GetTranscodeBitrates).Get(ctx, &bitRates); err != nil {
		return nil, err
	}
	logger.Info("Fanning out transcode", "videoLocation", videoLocation, "bitRates", bitRates)

	futures := make([]workflow.Future, 0, len(bitRates))
	for _, bitRate := range bitRates {
		request := VideoFileInfo{Location: videoLocation, BitRate: bitRate}
		futures = append(futures, workflow.ExecuteActivity(ctx, a.TranscodeVideo, request))
	}

	results := make([]VideoFileInfo, len(futures))
	for i, future := range futures {
		if err := future.Get(ctx, &results[i]); err != nil {
			return nil, err
		}
	}
	return results, nil
}
