// Package trigger exposes the HTTP surface that starts, observes and
// terminates workflow instances: kicking off video processing, resolving an
// emailed approval code into an ApprovalResult signal, and starting or
// stopping the fixed-identity periodic task.
package trigger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/converter"
	"go.uber.org/zap"

	"videoproc/app"
	"videoproc/approvals"
	"videoproc/config"
)

// WorkflowClient is the slice of the Temporal client the trigger server
// needs. client.Client satisfies it.
type WorkflowClient interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
	SignalWorkflow(ctx context.Context, workflowID, runID, signalName string, arg interface{}) error
	TerminateWorkflow(ctx context.Context, workflowID, runID, reason string, details ...interface{}) error
	QueryWorkflow(ctx context.Context, workflowID, runID, queryType string, args ...interface{}) (converter.EncodedValue, error)
}

// Server handles the workflow trigger endpoints.
type Server struct {
	cfg       *config.Config
	temporal  WorkflowClient
	approvals *approvals.Store
	logger    *zap.Logger
}

// NewServer wires the trigger endpoints to a Temporal client and the
// approval store.
func NewServer(cfg *config.Config, temporal WorkflowClient, store *approvals.Store, logger *zap.Logger) *Server {
	return &Server{cfg: cfg, temporal: temporal, approvals: store, logger: logger}
}

// Handler returns the route table for the trigger API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/process", s.handleProcess)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/approval/", s.handleApproval)
	mux.HandleFunc("/api/periodic/start", s.handlePeriodicStart)
	mux.HandleFunc("/api/periodic/stop", s.handlePeriodicStop)
	return mux
}

// Run serves the trigger API until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.API.Bind,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("trigger server listening", zap.String("bind", s.cfg.API.Bind))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	video := r.URL.Query().Get("video")
	if video == "" {
		http.Error(w, "please pass the video location in the query string", http.StatusBadRequest)
		return
	}

	s.logger.Info("starting video processing", zap.String("video", video))

	options := client.StartWorkflowOptions{
		ID:        "process-video-" + uuid.NewString(),
		TaskQueue: app.TaskQueue,
	}
	run, err := s.temporal.ExecuteWorkflow(r.Context(), options, app.ProcessVideoWorkflow, video)
	if err != nil {
		s.logger.Error("start workflow failed", zap.Error(err))
		http.Error(w, "could not start workflow", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, http.StatusAccepted, map[string]string{
		"workflowId": run.GetID(),
		"runId":      run.GetRunID(),
		"statusUrl":  fmt.Sprintf("/api/status?id=%s", run.GetID()),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "workflow id required", http.StatusBadRequest)
		return
	}

	value, err := s.temporal.QueryWorkflow(r.Context(), id, "", app.StatusQuery)
	if err != nil {
		s.logger.Error("status query failed", zap.String("workflowId", id), zap.Error(err))
		http.Error(w, "could not query workflow", http.StatusInternalServerError)
		return
	}
	var status string
	if err := value.Get(&status); err != nil {
		http.Error(w, "could not decode status", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"workflowId": id, "status": status})
}

func (s *Server) handleApproval(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	code := strings.TrimPrefix(r.URL.Path, "/api/approval/")
	if code == "" || strings.Contains(code, "/") {
		http.Error(w, "approval code required", http.StatusBadRequest)
		return
	}
	result := r.URL.Query().Get("result")
	if result == "" {
		http.Error(w, "need an approval result", http.StatusBadRequest)
		return
	}

	record, err := s.approvals.Get(r.Context(), code)
	if err != nil {
		if errors.Is(err, approvals.ErrNotFound) {
			http.Error(w, "unknown approval code", http.StatusNotFound)
			return
		}
		s.logger.Error("approval lookup failed", zap.Error(err))
		http.Error(w, "could not look up approval code", http.StatusInternalServerError)
		return
	}

	s.logger.Info("sending approval result",
		zap.String("workflowId", record.WorkflowID),
		zap.String("result", result))

	if err := s.temporal.SignalWorkflow(r.Context(), record.WorkflowID, "", app.ApprovalSignal, result); err != nil {
		s.logger.Error("signal workflow failed", zap.String("workflowId", record.WorkflowID), zap.Error(err))
		http.Error(w, "could not deliver approval result", http.StatusInternalServerError)
		return
	}

	// The code is single-use; a failed delete only leaves a stale row.
	if err := s.approvals.Delete(r.Context(), code); err != nil {
		s.logger.Warn("delete approval record failed", zap.String("code", code), zap.Error(err))
	}

	writeJSON(w, map[string]string{"workflowId": record.WorkflowID, "result": result})
}

func (s *Server) handlePeriodicStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	options := client.StartWorkflowOptions{
		ID:        app.PeriodicTaskWorkflowID,
		TaskQueue: app.TaskQueue,
	}
	run, err := s.temporal.ExecuteWorkflow(r.Context(), options, app.PeriodicTaskWorkflow, 0)
	if err != nil {
		s.logger.Error("start periodic task failed", zap.Error(err))
		http.Error(w, "could not start periodic task", http.StatusInternalServerError)
		return
	}

	writeJSONStatus(w, http.StatusAccepted, map[string]string{"workflowId": run.GetID(), "runId": run.GetRunID()})
}

func (s *Server) handlePeriodicStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	const reason = "user requested termination"
	if err := s.temporal.TerminateWorkflow(r.Context(), app.PeriodicTaskWorkflowID, "", reason); err != nil {
		s.logger.Error("terminate periodic task failed", zap.Error(err))
		http.Error(w, "could not terminate periodic task", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"workflowId": app.PeriodicTaskWorkflowID, "terminated": "true"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("content-type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
