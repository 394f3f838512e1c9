package app

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// ProcessVideoWorkflow drives a video from upload to publication: transcode
// across the configured bitrates, extract a thumbnail, prepend the intro,
// then hold for a human approval decision raced against a timeout before
// publishing or rejecting. Any failure along the way is compensated by a
// cleanup pass over the locations produced so far, and the run still returns
// an inspectable result rather than a bare error.
func ProcessVideoWorkflow(ctx workflow.Context, videoLocation string) (*ProcessVideoResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting video processing workflow", "videoLocation", videoLocation)

	var status string
	setStatus := func(s string) { status = s }
	if err := workflow.SetQueryHandler(ctx, StatusQuery, func() (string, error) {
		return status, nil
	}); err != nil {
		return nil, err
	}

	// Activity options: failures surface immediately to the compensation
	// branch, retry policy is a host-level concern this workflow opts out of.
	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	var (
		a                  *Activities
		transcodedLocation string
		thumbnailLocation  string
		withIntroLocation  string
		approvalResult     = OutcomeUnknown
	)

	// fail runs the compensation branch: clean up whatever locations were
	// produced before the failure and turn the cause into a structured
	// result. A cleanup failure is fatal to the run.
	fail := func(cause error) (*ProcessVideoResult, error) {
		logger.Info("Caught an error from an activity", "error", cause)
		setStatus(StatusCleaningUp)
		locations := compactLocations(transcodedLocation, thumbnailLocation, withIntroLocation)
		if err := workflow.ExecuteActivity(ctx, a.Cleanup, locations).Get(ctx, nil); err != nil {
			return nil, err
		}
		setStatus(StatusFinishedWithError)
		return &ProcessVideoResult{
			Error:   processingErrorMarker,
			Message: failureMessage(cause),
		}, nil
	}

	setStatus(StatusTranscoding)
	var transcodeResults []VideoFileInfo
	err := workflow.ExecuteChildWorkflow(ctx, TranscodeVideoWorkflow, videoLocation).
		Get(ctx, &transcodeResults)
	if err != nil {
		return fail(err)
	}
	if len(transcodeResults) == 0 {
		return fail(errors.New("transcode produced no renditions"))
	}
	transcodedLocation = pickHighestBitrate(transcodeResults).Location

	setStatus(StatusExtractingThumbnail)
	logger.Info("About to call extract thumbnail")
	if err := workflow.ExecuteActivity(ctx, a.ExtractThumbnail, transcodedLocation).
		Get(ctx, &thumbnailLocation); err != nil {
		return fail(err)
	}

	setStatus(StatusPrependingIntro)
	logger.Info("About to call prepend intro")
	if err := workflow.ExecuteActivity(ctx, a.PrependIntro, transcodedLocation).
		Get(ctx, &withIntroLocation); err != nil {
		return fail(err)
	}

	setStatus(StatusSendingApprovalMail)
	approvalInfo := ApprovalInfo{
		WorkflowID:    workflow.GetInfo(ctx).WorkflowExecution.ID,
		VideoLocation: withIntroLocation,
	}
	if err := workflow.ExecuteActivity(ctx, a.SendApprovalRequestEmail, approvalInfo).
		Get(ctx, nil); err != nil {
		return fail(err)
	}

	setStatus(StatusAwaitingApproval)
	approvalResult = awaitApproval(ctx)

	if approvalResult == OutcomeApproved {
		setStatus(StatusPublishing)
		if err := workflow.ExecuteActivity(ctx, a.PublishVideo, withIntroLocation).
			Get(ctx, nil); err != nil {
			return fail(err)
		}
	} else {
		setStatus(StatusRejecting)
		if err := workflow.ExecuteActivity(ctx, a.RejectVideo, withIntroLocation).
			Get(ctx, nil); err != nil {
			return fail(err)
		}
	}
	setStatus(StatusFinished)

	return &ProcessVideoResult{
		Transcoded:     transcodedLocation,
		Thumbnail:      thumbnailLocation,
		WithIntro:      withIntroLocation,
		ApprovalResult: approvalResult,
	}, nil
}

// awaitApproval races the ApprovalResult signal against a durable timer.
// The timer runs on a cancellable child context and is cancelled when the
// signal wins, so it cannot fire later as a spurious completion. If the timer
// wins, the outcome is forced to timed out.
func awaitApproval(ctx workflow.Context) string {
	result := OutcomeUnknown

	timerCtx, cancelTimer := workflow.WithCancel(ctx)
	timer := workflow.NewTimer(timerCtx, ApprovalTimeout)
	approvalCh := workflow.GetSignalChannel(ctx, ApprovalSignal)

	selector := workflow.NewSelector(ctx)
	selector.AddReceive(approvalCh, func(c workflow.ReceiveChannel, more bool) {
		c.Receive(ctx, &result)
		cancelTimer()
	})
	selector.AddFuture(timer, func(workflow.Future) {
		result = OutcomeTimedOut
	})
	selector.Select(ctx)

	return result
}

// pickHighestBitrate selects the winning rendition. Ties keep the
// first-encountered result.
func pickHighestBitrate(results []VideoFileInfo) VideoFileInfo {
	best := results[0]
	for _, r := range results[1:] {
		if r.BitRate > best.BitRate {
			best = r
		}
	}
	return best
}

// compactLocations keeps the stage outputs that were actually produced, in
// stage order, so cleanup never sees an empty entry.
func compactLocations(locations ...string) []string {
	out := make([]string, 0, len(locations))
	for _, l := range locations {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

// failureMessage extracts the original activity failure message from the
// layers of workflow error wrapping.
func failureMessage(err error) string {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Message()
	}
	return err.Error()
}
