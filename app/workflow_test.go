package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"
)

// newProcessEnv builds a workflow test environment with both workflows
// registered. The returned nil *Activities only serves as the source of
// method references for OnActivity.
func newProcessEnv(t *testing.T) (*testsuite.TestWorkflowEnvironment, *Activities) {
	t.Helper()
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(ProcessVideoWorkflow)
	env.RegisterWorkflow(TranscodeVideoWorkflow)
	var a *Activities
	return env, a
}

func mockTranscodePipeline(env *testsuite.TestWorkflowEnvironment, a *Activities, bitRates []int) {
	env.OnActivity(a.GetTranscodeBitrates, mock.Anything).Return(bitRates, nil)
	env.OnActivity(a.TranscodeVideo, mock.Anything, mock.Anything).Return(
		func(ctx context.Context, request VideoFileInfo) (VideoFileInfo, error) {
			return VideoFileInfo{
				Location: fmt.Sprintf("%s-%dkbps.mp4", baseName(request.Location), request.BitRate),
				BitRate:  request.BitRate,
			}, nil
		})
}

func TestProcessVideoApprovedBeforeTimeout(t *testing.T) {
	env, a := newProcessEnv(t)

	mockTranscodePipeline(env, a, []int{720, 1080})
	env.OnActivity(a.ExtractThumbnail, mock.Anything, "clip-1080kbps.mp4").
		Return("clip-1080kbps-thumbnail.png", nil)
	env.OnActivity(a.PrependIntro, mock.Anything, "clip-1080kbps.mp4").
		Return("clip-1080kbps-with-intro.mp4", nil)
	env.OnActivity(a.SendApprovalRequestEmail, mock.Anything, mock.MatchedBy(func(info ApprovalInfo) bool {
		return info.VideoLocation == "clip-1080kbps-with-intro.mp4" && info.WorkflowID != ""
	})).Return(nil)
	env.OnActivity(a.PublishVideo, mock.Anything, "clip-1080kbps-with-intro.mp4").Return(nil)

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(ApprovalSignal, OutcomeApproved)
	}, 10*time.Second)

	env.ExecuteWorkflow(ProcessVideoWorkflow, "clip.mp4")

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result ProcessVideoResult
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Equal(t, "clip-1080kbps.mp4", result.Transcoded)
	require.Equal(t, "clip-1080kbps-thumbnail.png", result.Thumbnail)
	require.Equal(t, "clip-1080kbps-with-intro.mp4", result.WithIntro)
	require.Equal(t, OutcomeApproved, result.ApprovalResult)
	require.Empty(t, result.Error)

	status := queryStatus(t, env)
	require.Equal(t, StatusFinished, status)

	env.AssertExpectations(t)
}

func TestProcessVideoTimesOutWithoutDecision(t *testing.T) {
	env, a := newProcessEnv(t)

	mockTranscodePipeline(env, a, []int{720})
	env.OnActivity(a.ExtractThumbnail, mock.Anything, mock.Anything).Return("thumb.png", nil)
	env.OnActivity(a.PrependIntro, mock.Anything, mock.Anything).Return("clip-720kbps-with-intro.mp4", nil)
	env.OnActivity(a.SendApprovalRequestEmail, mock.Anything, mock.Anything).Return(nil)
	env.OnActivity(a.RejectVideo, mock.Anything, "clip-720kbps-with-intro.mp4").Return(nil)

	env.ExecuteWorkflow(ProcessVideoWorkflow, "clip.mp4")

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result ProcessVideoResult
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Equal(t, OutcomeTimedOut, result.ApprovalResult)
	require.NotEqual(t, OutcomeUnknown, result.ApprovalResult)

	env.AssertExpectations(t)
}

func TestProcessVideoRejectedExplicitly(t *testing.T) {
	env, a := newProcessEnv(t)

	mockTranscodePipeline(env, a, []int{720})
	env.OnActivity(a.ExtractThumbnail, mock.Anything, mock.Anything).Return("thumb.png", nil)
	env.OnActivity(a.PrependIntro, mock.Anything, mock.Anything).Return("with-intro.mp4", nil)
	env.OnActivity(a.SendApprovalRequestEmail, mock.Anything, mock.Anything).Return(nil)
	env.OnActivity(a.RejectVideo, mock.Anything, "with-intro.mp4").Return(nil)

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(ApprovalSignal, OutcomeRejected)
	}, 5*time.Second)

	env.ExecuteWorkflow(ProcessVideoWorkflow, "clip.mp4")

	require.True(t, env.IsWorkflowCompleted())
	var result ProcessVideoResult
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Equal(t, OutcomeRejected, result.ApprovalResult)

	env.AssertExpectations(t)
}

// Free-form payloads are carried through verbatim but treated as
// non-approval.
func TestProcessVideoUnrecognizedPayloadRejects(t *testing.T) {
	env, a := newProcessEnv(t)

	mockTranscodePipeline(env, a, []int{720})
	env.OnActivity(a.ExtractThumbnail, mock.Anything, mock.Anything).Return("thumb.png", nil)
	env.OnActivity(a.PrependIntro, mock.Anything, mock.Anything).Return("with-intro.mp4", nil)
	env.OnActivity(a.SendApprovalRequestEmail, mock.Anything, mock.Anything).Return(nil)
	env.OnActivity(a.RejectVideo, mock.Anything, "with-intro.mp4").Return(nil)

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(ApprovalSignal, "maybe later")
	}, 3*time.Second)

	env.ExecuteWorkflow(ProcessVideoWorkflow, "clip.mp4")

	var result ProcessVideoResult
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Equal(t, "maybe later", result.ApprovalResult)

	env.AssertExpectations(t)
}

func TestProcessVideoThumbnailFailureCleansUp(t *testing.T) {
	env, a := newProcessEnv(t)

	mockTranscodePipeline(env, a, []int{1080})
	env.OnActivity(a.ExtractThumbnail, mock.Anything, "error-clip-1080kbps.mp4").
		Return("", errors.New("could not extract thumbnail"))
	env.OnActivity(a.Cleanup, mock.Anything, []string{"error-clip-1080kbps.mp4"}).
		Return("Cleaned up successfully", nil)

	env.ExecuteWorkflow(ProcessVideoWorkflow, "error-clip.mp4")

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result ProcessVideoResult
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Equal(t, "Failed to process uploaded video", result.Error)
	require.Equal(t, "could not extract thumbnail", result.Message)
	require.Empty(t, result.ApprovalResult)

	require.Equal(t, StatusFinishedWithError, queryStatus(t, env))

	env.AssertExpectations(t)
}

// A failing fan-out branch fails the child workflow, and the parent
// compensates before any downstream location exists.
func TestProcessVideoTranscodeFailureCleansUpNothing(t *testing.T) {
	env, a := newProcessEnv(t)

	env.OnActivity(a.GetTranscodeBitrates, mock.Anything).Return([]int{720, 1080}, nil)
	env.OnActivity(a.TranscodeVideo, mock.Anything, mock.Anything).
		Return(VideoFileInfo{}, errors.New("codec exploded"))
	env.OnActivity(a.Cleanup, mock.Anything, mock.MatchedBy(func(locations []string) bool {
		return len(locations) == 0
	})).Return("Cleaned up successfully", nil)

	env.ExecuteWorkflow(ProcessVideoWorkflow, "clip.mp4")

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var result ProcessVideoResult
	require.NoError(t, env.GetWorkflowResult(&result))
	require.Equal(t, "Failed to process uploaded video", result.Error)
	require.Equal(t, "codec exploded", result.Message)

	env.AssertExpectations(t)
}

// A cleanup failure has no handler and fails the whole run.
func TestProcessVideoCleanupFailureIsFatal(t *testing.T) {
	env, a := newProcessEnv(t)

	mockTranscodePipeline(env, a, []int{720})
	env.OnActivity(a.ExtractThumbnail, mock.Anything, mock.Anything).
		Return("", errors.New("could not extract thumbnail"))
	env.OnActivity(a.Cleanup, mock.Anything, mock.Anything).
		Return("", errors.New("storage unreachable"))

	env.ExecuteWorkflow(ProcessVideoWorkflow, "clip.mp4")

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
}

func TestPickHighestBitrate(t *testing.T) {
	results := []VideoFileInfo{
		{Location: "a.mp4", BitRate: 720},
		{Location: "b.mp4", BitRate: 1080},
		{Location: "c.mp4", BitRate: 480},
	}
	require.Equal(t, "b.mp4", pickHighestBitrate(results).Location)

	// Ties keep the first-encountered result.
	tied := []VideoFileInfo{
		{Location: "first.mp4", BitRate: 1080},
		{Location: "second.mp4", BitRate: 1080},
	}
	require.Equal(t, "first.mp4", pickHighestBitrate(tied).Location)
}

func TestCompactLocations(t *testing.T) {
	require.Equal(t, []string{"a", "c"}, compactLocations("a", "", "c"))
	require.Empty(t, compactLocations("", "", ""))
	require.Equal(t, []string{"a", "b", "c"}, compactLocations("a", "b", "c"))
}

func queryStatus(t *testing.T, env *testsuite.TestWorkflowEnvironment) string {
	t.Helper()
	value, err := env.QueryWorkflow(StatusQuery)
	require.NoError(t, err)
	var status string
	require.NoError(t, value.Get(&status))
	return status
}
