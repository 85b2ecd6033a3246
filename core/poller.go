package core

import (
	"context"
	"fmt"
	"strings"

	"pkt.systems/uqlabs/internal/backend"
	"pkt.systems/uqlabs/internal/logx"
	"pkt.systems/uqlabs/schema"
)

const defaultProvider = "ibm"

func jobKey(id schema.JobID) string {
	return "job:" + string(id)
}

func (s *service) SubmitJob(ctx context.Context, req schema.SubmitJobRequest) (schema.SubmitJobResponse, error) {
	if err := checkContext(ctx); err != nil {
		return schema.SubmitJobResponse{}, err
	}
	if strings.TrimSpace(req.Code) == "" {
		return schema.SubmitJobResponse{}, fmt.Errorf("%w: code is required", schema.ErrInvalidRequest)
	}
	provider := strings.ToLower(strings.TrimSpace(req.Provider))
	if provider == "" {
		provider = defaultProvider
	}
	if provider != defaultProvider {
		return schema.SubmitJobResponse{}, fmt.Errorf("%w: unsupported provider %q", schema.ErrInvalidRequest, req.Provider)
	}
	language := req.Language
	if language == "" {
		language = schema.LanguageAuto
	}
	shots := req.Shots
	if shots <= 0 {
		shots = s.cfg.DefaultShots
	}
	jobs := req.Jobs
	if jobs <= 0 {
		jobs = 1
	}
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return schema.SubmitJobResponse{}, schema.ErrServiceClosed
	}

	log := logx.Ctx(ctx).With("provider", provider, "backend", req.Backend)
	log.Info("service job submit start", "shots", shots, "jobs", jobs)
	ids, err := s.backend.SubmitIBM(ctx, backend.SubmitRequest{
		Code:     req.Code,
		Language: string(language),
		Backend:  req.Backend,
		Shots:    shots,
		Jobs:     jobs,
	})
	if err != nil {
		log.Warn("service job submit failed", "err", err)
		s.notify(schema.NotifyError, backend.Message(err), "", "")
		return schema.SubmitJobResponse{}, err
	}

	now := s.now()
	records := make([]schema.JobRecord, 0, len(ids))
	s.mu.Lock()
	for _, raw := range ids {
		id := schema.JobID(raw)
		if _, exists := s.jobs[id]; !exists {
			s.jobOrder = append(s.jobOrder, id)
		}
		rec := &schema.JobRecord{
			ID:        id,
			Provider:  provider,
			Backend:   req.Backend,
			Status:    schema.JobRunning,
			Timestamp: now,
		}
		s.jobs[id] = rec
		records = append(records, *rec)
	}
	s.mu.Unlock()

	for _, rec := range records {
		s.emitJob(rec)
		s.startPolling(rec.ID)
		logx.WithJob(log, rec).Info("service job submitted")
	}
	s.notify(schema.NotifyInfo, fmt.Sprintf("Submitted %d job(s) to %s", len(records), provider), "", "")
	return schema.SubmitJobResponse{Jobs: records}, nil
}

func (s *service) ListJobs(ctx context.Context, _ schema.ListJobsRequest) (schema.ListJobsResponse, error) {
	if err := checkContext(ctx); err != nil {
		return schema.ListJobsResponse{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]schema.JobRecord, 0, len(s.jobOrder))
	for _, id := range s.jobOrder {
		out = append(out, *s.jobs[id])
	}
	return schema.ListJobsResponse{Jobs: out}, nil
}

func (s *service) GetJob(ctx context.Context, req schema.GetJobRequest) (schema.GetJobResponse, error) {
	if err := checkContext(ctx); err != nil {
		return schema.GetJobResponse{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.jobs[req.JobID]
	if !ok {
		return schema.GetJobResponse{}, schema.ErrJobNotFound
	}
	return schema.GetJobResponse{Job: *rec}, nil
}

func (s *service) startPolling(id schema.JobID) {
	s.sched.ScheduleRepeating(jobKey(id), s.cfg.PollInterval, func(ctx context.Context) {
		s.pollJob(ctx, id)
	})
}

// pollJob fetches one status update. Terminal states and an exhausted
// failure budget cancel the job's schedule.
func (s *service) pollJob(ctx context.Context, id schema.JobID) {
	log := s.logger.With("job", id)
	res, err := s.backend.JobStatus(ctx, string(id))
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		s.pollFailed(id, err)
		return
	}

	s.mu.Lock()
	rec, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		s.sched.Cancel(jobKey(id))
		return
	}
	rec.Failures = 0
	if status := schema.NormalizeJobStatus(res.Status); status != "" {
		rec.Status = status
	}
	if res.HasResult {
		rec.Result = res.Result
	}
	rec.Timestamp = s.now()
	snapshot := *rec
	s.mu.Unlock()

	s.emitJob(snapshot)
	if !snapshot.Status.IsTerminal() {
		log.Trace("service job poll", "status", snapshot.Status)
		return
	}
	s.sched.Cancel(jobKey(id))
	log.Info("service job finished", "status", snapshot.Status)
	level := schema.NotifyInfo
	switch snapshot.Status {
	case schema.JobError, schema.JobFailed:
		level = schema.NotifyError
	}
	s.notify(level, fmt.Sprintf("Job %s %s", id, snapshot.Status), "", "")
}

func (s *service) pollFailed(id schema.JobID, err error) {
	log := s.logger.With("job", id)
	s.mu.Lock()
	rec, ok := s.jobs[id]
	if !ok {
		s.mu.Unlock()
		s.sched.Cancel(jobKey(id))
		return
	}
	rec.Failures++
	exhausted := s.cfg.MaxPollFailures > 0 && rec.Failures >= s.cfg.MaxPollFailures
	if exhausted {
		rec.Status = schema.JobError
		rec.Result = backend.Message(err)
		rec.Timestamp = s.now()
	}
	snapshot := *rec
	s.mu.Unlock()

	if !exhausted {
		log.Warn("service job poll failed", "failures", snapshot.Failures, "err", err)
		return
	}
	s.sched.Cancel(jobKey(id))
	log.Error("service job poll abandoned", "failures", snapshot.Failures, "err", err)
	s.emitJob(snapshot)
	s.notify(schema.NotifyError, fmt.Sprintf("Stopped polling job %s: %s", id, snapshot.Result), "", "")
}
