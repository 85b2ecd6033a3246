package core

import (
	"context"

	"pkt.systems/uqlabs/internal/logx"
	"pkt.systems/uqlabs/schema"
)

func (s *service) ListBackends(ctx context.Context, _ schema.ListBackendsRequest) (schema.ListBackendsResponse, error) {
	if err := checkContext(ctx); err != nil {
		return schema.ListBackendsResponse{}, err
	}
	list, err := s.backend.ListHardware(ctx)
	if err != nil {
		logx.Ctx(ctx).Warn("service hardware list failed", "err", err)
		return schema.ListBackendsResponse{}, err
	}
	out := make([]schema.HardwareBackend, 0, len(list))
	for _, b := range list {
		out = append(out, schema.HardwareBackend{
			Name:        b.Name,
			NumQubits:   b.NumQubits,
			Simulator:   b.Simulator,
			Operational: b.Operational,
			Status:      b.Status,
			PendingJobs: b.PendingJobs,
		})
	}
	return schema.ListBackendsResponse{Backends: out}, nil
}
