package fleet

import (
	"context"
	"fmt"
	"io"
	"time"

	"shotty/pkg/aws"
	"shotty/pkg/errors"
	"shotty/pkg/logging"
)

// restartTimeout bounds the best-effort restart issued after a failed
// snapshot workflow.
const restartTimeout = 30 * time.Second

// Waiter blocks until an instance reaches a state.
type Waiter interface {
	WaitStopped(ctx context.Context, instanceID string) error
	WaitRunning(ctx context.Context, instanceID string) error
}

// Options configures a Runner.
type Options struct {
	// TagKey is the project tag key; defaults to "Project".
	TagKey string
	// SnapshotDescription is set on every snapshot created.
	SnapshotDescription string
	// Out receives progress lines and summaries; defaults to io.Discard.
	Out io.Writer
	Logger *logging.Logger
	Picker Picker
	// Progress wraps each blocking wait, e.g. with a spinner.
	Progress func(message string, fn func() error) error
}

// Runner executes operations over the instances a Selector resolves.
type Runner struct {
	svc         *aws.InstanceService
	selector    *Selector
	waiter      Waiter
	out         io.Writer
	logger      *logging.Logger
	tagKey      string
	description string
	progress    func(string, func() error) error
}

// NewRunner creates a runner over api.
func NewRunner(api aws.EC2API, waiter Waiter, opts Options) *Runner {
	if opts.TagKey == "" {
		opts.TagKey = aws.ProjectTagKey
	}
	if opts.SnapshotDescription == "" {
		opts.SnapshotDescription = "Created by shotty"
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNoOpLogger()
	}
	if opts.Progress == nil {
		opts.Progress = func(_ string, fn func() error) error { return fn() }
	}

	svc := aws.NewInstanceService(api, opts.Logger)
	return &Runner{
		svc:         svc,
		selector:    NewSelector(svc, opts.TagKey, opts.Picker),
		waiter:      waiter,
		out:         opts.Out,
		logger:      opts.Logger,
		tagKey:      opts.TagKey,
		description: opts.SnapshotDescription,
		progress:    opts.Progress,
	}
}

// Selector returns the runner's selector.
func (r *Runner) Selector() *Selector {
	return r.selector
}

func (r *Runner) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

// readCriteria applies the implied force of read-only commands.
func readCriteria(c Criteria) Criteria {
	if c.InstanceID == "" && c.Project == "" && !c.Interactive {
		c.Force = true
	}
	return c
}

func (r *Runner) eachSelected(ctx context.Context, c Criteria, fn func(aws.Instance) error) error {
	seq, err := r.selector.Select(ctx, c)
	if err != nil {
		return err
	}
	for inst, err := range seq {
		if err != nil {
			return err
		}
		if err := fn(inst); err != nil {
			return err
		}
	}
	return nil
}

func flushed(sink Sink, err error) error {
	if ferr := sink.Flush(); err == nil {
		err = ferr
	}
	return err
}

// ListInstances writes every selected instance. An explicit instance ID is
// looked up first so the line carries its details.
func (r *Runner) ListInstances(ctx context.Context, c Criteria, sink Sink) error {
	err := r.eachSelected(ctx, readCriteria(c), func(inst aws.Instance) error {
		if inst.IsHandle() {
			described, err := r.svc.DescribeInstance(ctx, inst.ID)
			if err != nil {
				return err
			}
			inst = described
		}
		return sink.Instance(inst)
	})
	return flushed(sink, err)
}

// ListVolumes writes the volumes of every selected instance.
func (r *Runner) ListVolumes(ctx context.Context, c Criteria, sink Sink) error {
	err := r.eachSelected(ctx, readCriteria(c), func(inst aws.Instance) error {
		volumes, err := r.svc.Volumes(ctx, inst.ID)
		if err != nil {
			return err
		}
		for _, v := range volumes {
			if err := sink.Volume(v); err != nil {
				return err
			}
		}
		return nil
	})
	return flushed(sink, err)
}

// ListSnapshots writes snapshots newest first. Unless all is set, a
// volume's listing ends after its first completed snapshot.
func (r *Runner) ListSnapshots(ctx context.Context, c Criteria, all bool, sink Sink) error {
	err := r.eachSelected(ctx, readCriteria(c), func(inst aws.Instance) error {
		volumes, err := r.svc.Volumes(ctx, inst.ID)
		if err != nil {
			return err
		}
		for _, v := range volumes {
			snapshots, err := r.svc.Snapshots(ctx, v.ID)
			if err != nil {
				return err
			}
			for _, s := range snapshots {
				if err := sink.Snapshot(s, inst.ID); err != nil {
					return err
				}
				if !all && s.IsCompleted() {
					break
				}
			}
		}
		return nil
	})
	return flushed(sink, err)
}

// batch runs fn on every selected instance. Provider errors and wait
// failures are recorded and the batch moves on; anything else aborts it.
func (r *Runner) batch(ctx context.Context, action string, c Criteria, fn func(aws.Instance) error) (*BatchResult, error) {
	result := &BatchResult{Action: action}

	seq, err := r.selector.Select(ctx, c)
	if err != nil {
		return nil, err
	}

	for inst, err := range seq {
		if err != nil {
			return result, err
		}

		if err := fn(inst); err != nil {
			if fatal(ctx, err) {
				return result, err
			}
			r.logger.Error(fmt.Sprintf("Could not %s %s", action, inst.ID),
				"code", errors.ProviderCode(err), "retryable", errors.IsRetryable(err), "error", err)
			result.fail(inst.ID, err)
			continue
		}
		result.succeed(inst.ID)
	}
	return result, nil
}

func (r *Runner) waitStopped(ctx context.Context, id string) error {
	err := r.progress(fmt.Sprintf("Waiting for %s to stop", id), func() error {
		return r.waiter.WaitStopped(ctx, id)
	})
	if err != nil {
		return &WaitError{InstanceID: id, Target: aws.StateStopped, Err: err}
	}
	return nil
}

func (r *Runner) waitRunning(ctx context.Context, id string) error {
	err := r.progress(fmt.Sprintf("Waiting for %s to start", id), func() error {
		return r.waiter.WaitRunning(ctx, id)
	})
	if err != nil {
		return &WaitError{InstanceID: id, Target: aws.StateRunning, Err: err}
	}
	return nil
}

// Stop stops every selected instance, optionally waiting for each.
func (r *Runner) Stop(ctx context.Context, c Criteria, wait bool) (*BatchResult, error) {
	return r.batch(ctx, "stop", c, func(inst aws.Instance) error {
		r.printf("Stopping %s...\n", inst.ID)
		if _, err := r.svc.StopInstance(ctx, inst.ID); err != nil {
			return err
		}
		if wait {
			return r.waitStopped(ctx, inst.ID)
		}
		return nil
	})
}

// Start starts every selected instance, optionally waiting for each.
func (r *Runner) Start(ctx context.Context, c Criteria, wait bool) (*BatchResult, error) {
	return r.batch(ctx, "start", c, func(inst aws.Instance) error {
		r.printf("Starting %s...\n", inst.ID)
		if _, err := r.svc.StartInstance(ctx, inst.ID); err != nil {
			return err
		}
		if wait {
			return r.waitRunning(ctx, inst.ID)
		}
		return nil
	})
}

// Reboot reboots every selected instance.
func (r *Runner) Reboot(ctx context.Context, c Criteria) (*BatchResult, error) {
	return r.batch(ctx, "reboot", c, func(inst aws.Instance) error {
		r.printf("Rebooting %s...\n", inst.ID)
		return r.svc.RebootInstance(ctx, inst.ID)
	})
}

// Tag sets key=value on every selected instance. An empty key uses the
// project tag key.
func (r *Runner) Tag(ctx context.Context, c Criteria, key, value string) (*BatchResult, error) {
	if value == "" {
		return nil, errors.NewUsageError("a tag value is required (--value)")
	}
	if key == "" {
		key = r.tagKey
	}

	return r.batch(ctx, "tag", c, func(inst aws.Instance) error {
		r.printf("Tagging %s with %s=%s...\n", inst.ID, key, value)
		return r.svc.TagInstance(ctx, inst.ID, key, value)
	})
}

// Snapshot stops each selected instance, snapshots its volumes and starts
// it again, one instance at a time. Instances that were already stopped
// stay stopped.
func (r *Runner) Snapshot(ctx context.Context, c Criteria) (*BatchResult, error) {
	result, err := r.batch(ctx, "snapshot", c, func(inst aws.Instance) error {
		return r.snapshotInstance(ctx, inst)
	})
	if err == nil {
		r.printf("Job done.\n")
	}
	return result, err
}

func (r *Runner) snapshotInstance(ctx context.Context, inst aws.Instance) error {
	r.printf("Stopping %s...\n", inst.ID)
	previous, err := r.svc.StopInstance(ctx, inst.ID)
	if err != nil {
		return err
	}
	// an instance already on its way down was not stopped by us
	leaveStopped := previous == aws.StateStopped || previous == aws.StateStopping

	if err := r.waitStopped(ctx, inst.ID); err != nil {
		r.restartAfterFailure(ctx, inst.ID, leaveStopped)
		return err
	}

	if err := r.snapshotVolumes(ctx, inst); err != nil {
		r.restartAfterFailure(ctx, inst.ID, leaveStopped)
		return err
	}

	if leaveStopped {
		r.printf("Leaving %s stopped\n", inst.ID)
		return nil
	}

	r.printf("Starting %s...\n", inst.ID)
	if _, err := r.svc.StartInstance(ctx, inst.ID); err != nil {
		return err
	}
	return r.waitRunning(ctx, inst.ID)
}

func (r *Runner) snapshotVolumes(ctx context.Context, inst aws.Instance) error {
	volumes, err := r.svc.Volumes(ctx, inst.ID)
	if err != nil {
		return err
	}

	var tags map[string]string
	if project := inst.Tag(r.tagKey); project != "" {
		tags = map[string]string{r.tagKey: project}
	}

	for _, v := range volumes {
		latest, err := r.svc.LatestSnapshot(ctx, v.ID)
		if err != nil {
			return err
		}
		if latest != nil && latest.IsPending() {
			r.printf("Skipping %s, snapshot %s already in progress\n", v.ID, latest.ID)
			continue
		}

		r.printf("Creating snapshot of %s...\n", v.ID)
		snap, err := r.svc.CreateSnapshot(ctx, v.ID, r.description, tags)
		if err != nil {
			return err
		}
		r.logger.Debug("Snapshot requested", "volume", v.ID, "snapshot", snap.ID)
	}
	return nil
}

// restartAfterFailure issues a start without waiting so a failed workflow
// does not leave the instance stopped. It runs even after cancellation.
func (r *Runner) restartAfterFailure(ctx context.Context, id string, leaveStopped bool) {
	if leaveStopped {
		return
	}
	restartCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), restartTimeout)
	defer cancel()

	r.printf("Starting %s...\n", id)
	if _, err := r.svc.StartInstance(restartCtx, id); err != nil {
		r.logger.Error(fmt.Sprintf("Could not restart %s after a failed snapshot", id), "error", err)
	}
}
