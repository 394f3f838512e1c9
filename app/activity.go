package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"

	"videoproc/approvals"
	"videoproc/config"
)

// Activities is the simulated activity set behind the video workflows. The
// real transcoder, mailer and CDN are stand-ins; the approval store is the
// one genuine side effect, correlating emailed approval codes back to the
// workflow instance that is waiting on them.
type Activities struct {
	Config    *config.Config
	Approvals *approvals.Store
}

// Simulated work durations. Kept short so activity tests run in real time
// without dragging.
const (
	transcodeDelay = 100 * time.Millisecond
	stageDelay     = 50 * time.Millisecond
)

// GetTranscodeBitrates returns the configured target bitrates, highest first.
func (a *Activities) GetTranscodeBitrates(ctx context.Context) ([]int, error) {
	return a.Config.Processing.Bitrates, nil
}

// TranscodeVideo produces one rendition of the source at the requested
// bitrate. The work is simulated; the output location encodes the bitrate.
func (a *Activities) TranscodeVideo(ctx context.Context, request VideoFileInfo) (VideoFileInfo, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Transcoding", "location", request.Location, "bitRate", request.BitRate)

	if err := simulateWork(ctx, transcodeDelay); err != nil {
		return VideoFileInfo{}, err
	}

	return VideoFileInfo{
		Location: fmt.Sprintf("%s-%dkbps.mp4", baseName(request.Location), request.BitRate),
		BitRate:  request.BitRate,
	}, nil
}

// ExtractThumbnail grabs a poster frame from the transcoded video. Locations
// containing "error" are the designed failure-injection path and always fail.
func (a *Activities) ExtractThumbnail(ctx context.Context, inputVideo string) (string, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Extracting thumbnail", "location", inputVideo)

	if strings.Contains(inputVideo, "error") {
		return "", errors.New("could not extract thumbnail")
	}

	if err := simulateWork(ctx, stageDelay); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-thumbnail.png", baseName(inputVideo)), nil
}

// PrependIntro splices the configured intro clip in front of the video.
func (a *Activities) PrependIntro(ctx context.Context, inputVideo string) (string, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Prepending intro", "location", inputVideo, "intro", a.Config.Processing.IntroLocation)

	if err := simulateWork(ctx, stageDelay); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-with-intro.mp4", baseName(inputVideo)), nil
}

// SendApprovalRequestEmail mints a fresh approval code, persists the
// correlation record for the HTTP trigger to look up, and sends the
// (simulated) approval email. The host retries activities with at-least-once
// semantics; a duplicate invocation just records an extra code, and every
// code still resolves to the same workflow instance.
func (a *Activities) SendApprovalRequestEmail(ctx context.Context, info ApprovalInfo) error {
	logger := activity.GetLogger(ctx)

	approvalCode := strings.ReplaceAll(uuid.NewString(), "-", "")
	if err := a.Approvals.Put(ctx, approvalCode, info.WorkflowID); err != nil {
		return fmt.Errorf("persist approval record: %w", err)
	}

	base := fmt.Sprintf("%s/api/approval/%s", strings.TrimRight(a.Config.Email.PublicHost, "/"), approvalCode)
	logger.Info("Sending approval request email",
		"videoLocation", info.VideoLocation,
		"to", a.Config.Email.ApproverEmail,
		"from", a.Config.Email.SenderEmail,
		"approveLink", base+"?result=Approved",
		"rejectLink", base+"?result=Rejected")

	return nil
}

// Cleanup removes the intermediate outputs of a failed run. The caller has
// already filtered out stages that never produced a location.
func (a *Activities) Cleanup(ctx context.Context, locations []string) (string, error) {
	logger := activity.GetLogger(ctx)
	for _, location := range locations {
		logger.Info("Deleting", "location", location)
		if err := simulateWork(ctx, stageDelay); err != nil {
			return "", err
		}
	}
	return "Cleaned up successfully", nil
}

// PublishVideo pushes the finished video live.
func (a *Activities) PublishVideo(ctx context.Context, inputVideo string) error {
	activity.GetLogger(ctx).Info("Publishing", "location", inputVideo)
	return simulateWork(ctx, stageDelay)
}

// RejectVideo performs the reject-side bookkeeping for a video that was
// turned down or timed out.
func (a *Activities) RejectVideo(ctx context.Context, inputVideo string) error {
	activity.GetLogger(ctx).Info("Rejecting", "location", inputVideo)
	return simulateWork(ctx, stageDelay)
}

// PeriodicActivity is the tick of the eternal periodic workflow.
func (a *Activities) PeriodicActivity(ctx context.Context, timesRun int) error {
	activity.GetLogger(ctx).Info("Running the periodic activity", "timesRun", timesRun)
	return nil
}

// simulateWork stands in for real media processing, honoring cancellation.
func simulateWork(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func baseName(location string) string {
	return strings.TrimSuffix(location, filepath.Ext(location))
}
