package main

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"pkt.systems/uqlabs/internal/eventbus"
	"pkt.systems/uqlabs/schema"
)

func jobEvent(id string, status schema.JobStatus) eventbus.Event {
	return eventbus.Event{Type: eventbus.EventJob, Job: schema.JobEvent{Job: schema.JobRecord{ID: schema.JobID(id), Status: status}}}
}

func TestWaitForJobsUntilTerminal(t *testing.T) {
	events := make(chan eventbus.Event, 8)
	events <- jobEvent("job-1", schema.JobRunning)
	events <- eventbus.Event{Type: eventbus.EventNotify, Notify: schema.NotifyEvent{Message: "noise"}}
	events <- jobEvent("other", schema.JobCompleted)
	events <- jobEvent("job-2", schema.JobCompleted)
	events <- jobEvent("job-1", schema.JobFailed)

	var progress []string
	final, err := waitForJobs(context.Background(), events, []schema.JobRecord{
		{ID: "job-1", Status: schema.JobRunning},
		{ID: "job-2", Status: schema.JobRunning},
	}, func(job schema.JobRecord) {
		progress = append(progress, string(job.ID)+"="+string(job.Status))
	})
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if diff := cmp.Diff([]string{"job-2=completed", "job-1=failed"}, progress); diff != "" {
		t.Fatalf("progress mismatch (-want +got):\n%s", diff)
	}
	if final[0].Status != schema.JobFailed || final[1].Status != schema.JobCompleted {
		t.Fatalf("unexpected final records %+v", final)
	}
}

func TestWaitForJobsStopsOnClosedStream(t *testing.T) {
	events := make(chan eventbus.Event)
	close(events)
	if _, err := waitForJobs(context.Background(), events, []schema.JobRecord{{ID: "job-1", Status: schema.JobRunning}}, nil); err == nil {
		t.Fatalf("expected error when the stream closes early")
	}
}
