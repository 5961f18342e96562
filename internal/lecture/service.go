package lecture

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/edinai/lecture-audio/internal/bus"
	"github.com/edinai/lecture-audio/internal/jobstore"
	"github.com/edinai/lecture-audio/internal/protocol"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// Service consumes synthesis requests from the bus, runs them through the
// pipeline and reports outcomes. The bus and job store are optional so the
// pipeline stays usable as a plain library.
type Service struct {
	pipeline *Pipeline
	bus      *bus.Client
	store    *jobstore.Store
	sub      *nats.Subscription
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	logger   *slog.Logger
	metrics  serviceMetrics
}

func NewService(parent context.Context, pipeline *Pipeline, busClient *bus.Client, store *jobstore.Store, log *slog.Logger) *Service {
	ctx, cancel := context.WithCancel(parent)
	return &Service{
		pipeline: pipeline,
		bus:      busClient,
		store:    store,
		ctx:      ctx,
		cancel:   cancel,
		logger:   log.With(slog.String("component", "lecture-service")),
		metrics:  newServiceMetrics(),
	}
}

func (s *Service) Start() error {
	if s.bus == nil {
		return nil
	}
	sub, err := s.bus.Conn().Subscribe(protocol.SubjectSynthesisRequest, s.handleRequest)
	if err != nil {
		return err
	}
	s.sub = sub
	return nil
}

func (s *Service) Close() {
	s.cancel()
	if s.sub != nil {
		_ = s.sub.Drain()
	}
	s.wg.Wait()
}

func (s *Service) Healthy() bool { return s.bus == nil || s.sub != nil }

func (s *Service) handleRequest(msg *nats.Msg) {
	var req protocol.SynthesisRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.logger.Warn("failed to decode synthesis request", slog.String("error", err.Error()))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.process(req)
	}()
}

// process runs one request and reports its outcome. Requests run
// independently of each other; within one request the pipeline is strictly
// sequential.
func (s *Service) process(req protocol.SynthesisRequest) {
	jobID := req.JobID
	if jobID == "" {
		jobID = uuid.NewString()
	}

	result, err := s.pipeline.Synthesize(s.ctx, Request{
		JobID:     jobID,
		LectureID: req.LectureID,
		Text:      req.Text,
		Language:  req.Language,
		Filename:  req.Filename,
		Subfolder: req.Subfolder,
	})

	status := jobstore.StatusCompleted
	errMsg := ""
	switch {
	case err != nil:
		status = jobstore.StatusFailed
		errMsg = err.Error()
	case result.Skipped:
		status = jobstore.StatusSkipped
	}

	s.metrics.observe(s.ctx, status, result)
	s.record(jobID, req, result, status, errMsg)
	s.publish(jobID, req, result, status, errMsg)
}

func (s *Service) record(jobID string, req protocol.SynthesisRequest, result Result, status, errMsg string) {
	if s.store == nil {
		return
	}
	rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	job := jobstore.Job{
		ID:        jobID,
		LectureID: req.LectureID,
		Filename:  req.Filename,
		Subfolder: req.Subfolder,
		Language:  req.Language,
		Voice:     result.Voice,
		Path:      result.Path,
		Status:    status,
		Bytes:     result.Bytes,
		Chunks:    result.Chunks,
		Attempts:  result.Attempts,
		Error:     errMsg,
	}
	if err := s.store.Record(rctx, job); err != nil {
		s.logger.Warn("failed to record synthesis job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
	}
}

func (s *Service) publish(jobID string, req protocol.SynthesisRequest, result Result, status, errMsg string) {
	if s.bus == nil {
		return
	}
	out := protocol.SynthesisResult{
		JobID:     jobID,
		LectureID: req.LectureID,
		Filename:  req.Filename,
		Path:      result.Path,
		Voice:     result.Voice,
		Bytes:     result.Bytes,
		Chunks:    result.Chunks,
		Skipped:   result.Skipped,
		Error:     errMsg,
		Timestamp: time.Now().UTC(),
	}
	subject := protocol.SubjectSynthesisCompleted
	if status == jobstore.StatusFailed {
		subject = protocol.SubjectSynthesisFailed
	}
	data, err := json.Marshal(out)
	if err != nil {
		s.logger.Warn("failed to marshal synthesis result", slog.String("error", err.Error()))
		return
	}
	if err := s.bus.Conn().Publish(subject, data); err != nil {
		s.logger.Warn("failed to publish synthesis result",
			slog.String("subject", subject),
			slog.String("error", err.Error()))
	}
}
