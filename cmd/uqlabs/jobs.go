package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"pkt.systems/uqlabs/internal/eventbus"
	"pkt.systems/uqlabs/internal/format"
	"pkt.systems/uqlabs/schema"
)

func newJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Submit and inspect hardware jobs",
	}
	cmd.AddCommand(newJobsSubmitCmd())
	cmd.AddCommand(newJobsStatusCmd())
	return cmd
}

func newJobsSubmitCmd() *cobra.Command {
	var cfgPath string
	var backendName string
	var language string
	var shots int
	var jobs int
	var wait bool
	var plain bool
	cmd := &cobra.Command{
		Use:   "submit <file>",
		Short: "Submit a program to IBM hardware",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			lang := schema.LanguageForExtension(filepath.Ext(args[0]))
			if language != "" {
				if lang, err = schema.ParseLanguage(language); err != nil {
					return err
				}
			}
			ctx := cmd.Context()
			env, err := loadRuntime(ctx, cfgPath)
			if err != nil {
				return err
			}
			env.serviceCfg.PrewarmEnabled = false
			srv, stop, err := env.startLocal(ctx)
			if err != nil {
				return err
			}
			defer stop()
			render, err := newRenderer(cmd.OutOrStdout(), plain)
			if err != nil {
				return err
			}

			var events <-chan eventbus.Event
			if wait {
				ch, cancel := srv.Events().Subscribe(eventbus.All)
				defer cancel()
				events = ch
			}
			resp, err := srv.Service().SubmitJob(ctx, schema.SubmitJobRequest{
				Provider: "ibm",
				Code:     string(data),
				Language: lang,
				Backend:  backendName,
				Shots:    shots,
				Jobs:     jobs,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), render.Jobs(resp.Jobs))
			if !wait {
				return nil
			}
			final, err := waitForJobs(ctx, events, resp.Jobs, func(job schema.JobRecord) {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), strings.Join(formatJobLines(job), "\n"))
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), render.Jobs(final))
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringVar(&backendName, "backend", "", "hardware backend name")
	cmd.Flags().StringVar(&language, "language", "", "language override (default from file extension)")
	cmd.Flags().IntVar(&shots, "shots", 0, "shots per job (default from config)")
	cmd.Flags().IntVar(&jobs, "jobs", 1, "number of jobs to submit")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait until every job reaches a terminal status")
	cmd.Flags().BoolVar(&plain, "plain", false, "disable terminal styling")
	return cmd
}

func formatJobLines(job schema.JobRecord) []string {
	lines, _ := format.NewPlainRenderer().FormatEvent(eventbus.Event{Type: eventbus.EventJob, Job: schema.JobEvent{Job: job}})
	return lines
}

// waitForJobs consumes job events until every submitted job is terminal.
// progress is called for each status change of a tracked job.
func waitForJobs(ctx context.Context, events <-chan eventbus.Event, submitted []schema.JobRecord, progress func(schema.JobRecord)) ([]schema.JobRecord, error) {
	latest := make(map[schema.JobID]schema.JobRecord, len(submitted))
	order := make([]schema.JobID, 0, len(submitted))
	for _, job := range submitted {
		latest[job.ID] = job
		order = append(order, job.ID)
	}
	pending := func() int {
		n := 0
		for _, job := range latest {
			if !job.Status.IsTerminal() {
				n++
			}
		}
		return n
	}
	collect := func() []schema.JobRecord {
		out := make([]schema.JobRecord, 0, len(order))
		for _, id := range order {
			out = append(out, latest[id])
		}
		return out
	}
	for pending() > 0 {
		select {
		case <-ctx.Done():
			return collect(), ctx.Err()
		case event, ok := <-events:
			if !ok {
				return collect(), fmt.Errorf("event stream closed with %d job(s) pending", pending())
			}
			if event.Type != eventbus.EventJob {
				continue
			}
			job := event.Job.Job
			prev, tracked := latest[job.ID]
			if !tracked {
				continue
			}
			latest[job.ID] = job
			if progress != nil && prev.Status != job.Status {
				progress(job)
			}
		}
	}
	return collect(), nil
}

func newJobsStatusCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Fetch the current status of a job from the execution service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadRuntime(cmd.Context(), cfgPath)
			if err != nil {
				return err
			}
			res, err := env.client.JobStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			job := schema.JobRecord{ID: schema.JobID(args[0]), Status: schema.NormalizeJobStatus(res.Status)}
			if res.HasResult {
				job.Result = res.Result
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.Join(formatJobLines(job), "\n"))
			return err
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	return cmd
}
