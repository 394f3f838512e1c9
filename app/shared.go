package app

import "time"

// TaskQueue is the queue the worker listens on and the triggers dispatch to.
const TaskQueue = "video-processing-task-queue"

const (
	// ApprovalSignal is the external event that resolves the approval race.
	ApprovalSignal = "ApprovalResult"

	// StatusQuery returns the workflow's current human-readable status.
	StatusQuery = "status"

	// PeriodicTaskWorkflowID is the fixed instance identity of the periodic
	// task, so at most one is logically active and callers can terminate it
	// without looking anything up.
	PeriodicTaskWorkflowID = "periodic-task"
)

const (
	// ApprovalTimeout bounds how long the main workflow waits for an
	// approval decision before treating the video as rejected.
	ApprovalTimeout = 30 * time.Second

	// PeriodicInterval is the pause between periodic task runs.
	PeriodicInterval = 30 * time.Second
)

// Approval outcomes. Anything other than OutcomeApproved leads to rejection.
const (
	OutcomeApproved = "Approved"
	OutcomeRejected = "Rejected"
	OutcomeTimedOut = "Timed Out"
	OutcomeUnknown  = "Unknown"
)

// Status values surfaced through the status query at each stage transition.
const (
	StatusTranscoding         = "transcoding"
	StatusExtractingThumbnail = "extracting thumbnail"
	StatusPrependingIntro     = "prepending intro"
	StatusSendingApprovalMail = "sending approval request email"
	StatusAwaitingApproval    = "waiting for email response"
	StatusPublishing          = "publishing video"
	StatusRejecting           = "rejecting video"
	StatusFinished            = "finished"
	StatusCleaningUp          = "error: cleaning up"
	StatusFinishedWithError   = "finished with error"
)

// processingErrorMarker is the fixed error field of a failed run's result.
const processingErrorMarker = "Failed to process uploaded video"

// VideoFileInfo names one rendition of a video. It doubles as the transcode
// request (source location plus target bitrate) and the transcode result
// (output location plus achieved bitrate).
type VideoFileInfo struct {
	Location string `json:"location"`
	BitRate  int    `json:"bitRate"`
}

// ApprovalInfo is the payload handed to the approval-email activity. The
// workflow ID lets the email's approval code be correlated back to the
// waiting instance.
type ApprovalInfo struct {
	WorkflowID    string `json:"workflowId"`
	VideoLocation string `json:"videoLocation"`
}

// ProcessVideoResult is the terminal outcome of a main workflow run. A failed
// run still produces a well-formed result: Error carries a fixed marker and
// Message the underlying cause, with the stage fields left as they were when
// the failure hit.
type ProcessVideoResult struct {
	Transcoded     string `json:"transcoded,omitempty"`
	Thumbnail      string `json:"thumbnail,omitempty"`
	WithIntro      string `json:"withIntro,omitempty"`
	ApprovalResult string `json:"approvalResult,omitempty"`
	Error          string `json:"error,omitempty"`
	Message        string `json:"message,omitempty"`
}
