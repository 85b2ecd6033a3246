package core

import (
	"context"
	"strings"
	"unicode/utf8"

	"pkt.systems/pslog"
	"pkt.systems/uqlabs/internal/logx"
	"pkt.systems/uqlabs/schema"
)

const prewarmPrefix = "prewarm:"

func prewarmKey(id schema.CellID) string {
	return prewarmPrefix + string(id)
}

// schedulePrewarm restarts the quiet window for a code cell. Short content
// cancels a pending prepare instead.
func (s *service) schedulePrewarm(ctx context.Context, nbID schema.NotebookID, cellID schema.CellID, content string) {
	s.mu.Lock()
	enabled := s.prewarm && !s.closed
	s.mu.Unlock()
	key := prewarmKey(cellID)
	if !enabled {
		return
	}
	if utf8.RuneCountInString(content) < s.cfg.PrewarmMinChars {
		s.sched.Cancel(key)
		return
	}
	log := logx.WithNotebookCell(ctx, nbID, cellID)
	s.sched.ScheduleDebounced(key, s.cfg.PrewarmDelay, func(ctx context.Context) {
		// SetPrewarm(false) can land between the check above and arming the
		// timer, missing this key in its cancel sweep.
		s.mu.Lock()
		enabled := s.prewarm && !s.closed
		s.mu.Unlock()
		if !enabled {
			log.Debug("service prewarm skipped", "reason", "disabled")
			return
		}
		s.prepare(ctx, log, content)
	})
}

// prepare asks the backend to install what the code needs. Identical code
// shares one in-flight request. Errors are logged only.
func (s *service) prepare(ctx context.Context, log pslog.Logger, code string) {
	ch := s.prepares.DoChan(code, func() (any, error) {
		return s.backend.PrepareEnv(ctx, code)
	})
	select {
	case <-ctx.Done():
		log.Debug("service prewarm canceled")
	case res := <-ch:
		if res.Err != nil {
			log.Warn("service prewarm failed", "err", res.Err)
			return
		}
		log.Debug("service prewarm ok", "shared", res.Shared)
	}
}

func (s *service) SetPrewarm(ctx context.Context, req schema.SetPrewarmRequest) (schema.SetPrewarmResponse, error) {
	if err := checkContext(ctx); err != nil {
		return schema.SetPrewarmResponse{}, err
	}
	s.mu.Lock()
	s.prewarm = req.Enabled
	s.mu.Unlock()
	canceled := 0
	if !req.Enabled {
		for _, key := range s.sched.Pending() {
			if strings.HasPrefix(key, prewarmPrefix) && s.sched.Cancel(key) {
				canceled++
			}
		}
	}
	logx.Ctx(ctx).Info("service prewarm toggled", "enabled", req.Enabled, "canceled", canceled)
	return schema.SetPrewarmResponse{Enabled: req.Enabled}, nil
}
