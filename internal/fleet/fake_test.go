package fleet

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"

	shottyaws "shotty/pkg/aws"
)

// fakeEC2 is an in-memory EC2API. Instances keep their insertion order.
type fakeEC2 struct {
	mu        sync.Mutex
	instances []*types.Instance
	volumes   map[string][]types.Volume   // instance ID -> volumes
	snapshots map[string][]types.Snapshot // volume ID -> snapshots
	errs      map[string]error            // "Action:resource" -> error
	calls     []string                    // "Action:resource"
	created   []*ec2.CreateSnapshotInput
	tags      []*ec2.CreateTagsInput
}

var _ shottyaws.EC2API = (*fakeEC2)(nil)

func newFakeEC2() *fakeEC2 {
	return &fakeEC2{
		volumes:   map[string][]types.Volume{},
		snapshots: map[string][]types.Snapshot{},
		errs:      map[string]error{},
	}
}

func (f *fakeEC2) addInstance(id, state string, tags map[string]string) *fakeEC2 {
	inst := &types.Instance{
		InstanceId:    aws.String(id),
		InstanceType:  types.InstanceTypeT3Micro,
		State:         &types.InstanceState{Name: types.InstanceStateName(state)},
		Placement:     &types.Placement{AvailabilityZone: aws.String("ca-central-1a")},
		PublicDnsName: aws.String(""),
	}
	for k, v := range tags {
		inst.Tags = append(inst.Tags, types.Tag{Key: aws.String(k), Value: aws.String(v)})
	}
	f.instances = append(f.instances, inst)
	return f
}

func (f *fakeEC2) addVolume(instanceID, volumeID string, size int32, encrypted bool) *fakeEC2 {
	f.volumes[instanceID] = append(f.volumes[instanceID], types.Volume{
		VolumeId:    aws.String(volumeID),
		State:       types.VolumeStateInUse,
		Size:        aws.Int32(size),
		Encrypted:   aws.Bool(encrypted),
		Attachments: []types.VolumeAttachment{{InstanceId: aws.String(instanceID), VolumeId: aws.String(volumeID)}},
	})
	return f
}

func (f *fakeEC2) addSnapshot(volumeID, snapshotID, state string, start time.Time) *fakeEC2 {
	progress := "100%"
	if state == shottyaws.SnapshotPending {
		progress = "37%"
	}
	f.snapshots[volumeID] = append(f.snapshots[volumeID], types.Snapshot{
		SnapshotId: aws.String(snapshotID),
		VolumeId:   aws.String(volumeID),
		State:      types.SnapshotState(state),
		Progress:   aws.String(progress),
		StartTime:  aws.Time(start),
	})
	return f
}

func (f *fakeEC2) failOn(action, resource string, err error) *fakeEC2 {
	f.errs[action+":"+resource] = err
	return f
}

func apiError(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: code + " from fake", Fault: smithy.FaultClient}
}

func (f *fakeEC2) record(action, resource string) error {
	f.calls = append(f.calls, action+":"+resource)
	return f.errs[action+":"+resource]
}

func (f *fakeEC2) callsTo(action string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if strings.HasPrefix(c, action+":") {
			out = append(out, strings.TrimPrefix(c, action+":"))
		}
	}
	return out
}

func (f *fakeEC2) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeEC2) find(id string) *types.Instance {
	for _, inst := range f.instances {
		if aws.ToString(inst.InstanceId) == id {
			return inst
		}
	}
	return nil
}

func (f *fakeEC2) state(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if inst := f.find(id); inst != nil {
		return string(inst.State.Name)
	}
	return ""
}

func matchesFilters(inst *types.Instance, filters []types.Filter) bool {
	for _, filter := range filters {
		name := aws.ToString(filter.Name)
		var actual string
		switch {
		case strings.HasPrefix(name, "tag:"):
			key := strings.TrimPrefix(name, "tag:")
			for _, tag := range inst.Tags {
				if aws.ToString(tag.Key) == key {
					actual = aws.ToString(tag.Value)
				}
			}
		case name == "instance-state-name":
			actual = string(inst.State.Name)
		default:
			continue
		}
		found := false
		for _, v := range filter.Values {
			if v == actual {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (f *fakeEC2) DescribeInstances(_ context.Context, in *ec2.DescribeInstancesInput, _ ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DescribeInstances", strings.Join(in.InstanceIds, ",")); err != nil {
		return nil, err
	}

	var matched []types.Instance
	for _, id := range in.InstanceIds {
		if f.find(id) == nil {
			return nil, apiError("InvalidInstanceID.NotFound")
		}
	}
	for _, inst := range f.instances {
		if len(in.InstanceIds) > 0 && !contains(in.InstanceIds, aws.ToString(inst.InstanceId)) {
			continue
		}
		if matchesFilters(inst, in.Filters) {
			matched = append(matched, *inst)
		}
	}
	return &ec2.DescribeInstancesOutput{Reservations: []types.Reservation{{Instances: matched}}}, nil
}

func (f *fakeEC2) DescribeVolumes(_ context.Context, in *ec2.DescribeVolumesInput, _ ...func(*ec2.Options)) (*ec2.DescribeVolumesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	instanceID := ""
	for _, filter := range in.Filters {
		if aws.ToString(filter.Name) == "attachment.instance-id" && len(filter.Values) > 0 {
			instanceID = filter.Values[0]
		}
	}
	if err := f.record("DescribeVolumes", instanceID); err != nil {
		return nil, err
	}
	return &ec2.DescribeVolumesOutput{Volumes: f.volumes[instanceID]}, nil
}

func (f *fakeEC2) DescribeSnapshots(_ context.Context, in *ec2.DescribeSnapshotsInput, _ ...func(*ec2.Options)) (*ec2.DescribeSnapshotsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	volumeID := ""
	for _, filter := range in.Filters {
		if aws.ToString(filter.Name) == "volume-id" && len(filter.Values) > 0 {
			volumeID = filter.Values[0]
		}
	}
	if err := f.record("DescribeSnapshots", volumeID); err != nil {
		return nil, err
	}
	return &ec2.DescribeSnapshotsOutput{Snapshots: f.snapshots[volumeID]}, nil
}

func (f *fakeEC2) transition(action string, ids []string, to types.InstanceStateName) ([]types.InstanceStateChange, error) {
	id := ids[0]
	if err := f.record(action, id); err != nil {
		return nil, err
	}
	inst := f.find(id)
	if inst == nil {
		return nil, apiError("InvalidInstanceID.NotFound")
	}
	previous := inst.State.Name
	inst.State = &types.InstanceState{Name: to}
	return []types.InstanceStateChange{{
		InstanceId:    aws.String(id),
		PreviousState: &types.InstanceState{Name: previous},
		CurrentState:  &types.InstanceState{Name: to},
	}}, nil
}

func (f *fakeEC2) StartInstances(_ context.Context, in *ec2.StartInstancesInput, _ ...func(*ec2.Options)) (*ec2.StartInstancesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	changes, err := f.transition("StartInstances", in.InstanceIds, types.InstanceStateNameRunning)
	if err != nil {
		return nil, err
	}
	return &ec2.StartInstancesOutput{StartingInstances: changes}, nil
}

func (f *fakeEC2) StopInstances(_ context.Context, in *ec2.StopInstancesInput, _ ...func(*ec2.Options)) (*ec2.StopInstancesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	changes, err := f.transition("StopInstances", in.InstanceIds, types.InstanceStateNameStopped)
	if err != nil {
		return nil, err
	}
	return &ec2.StopInstancesOutput{StoppingInstances: changes}, nil
}

func (f *fakeEC2) RebootInstances(_ context.Context, in *ec2.RebootInstancesInput, _ ...func(*ec2.Options)) (*ec2.RebootInstancesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("RebootInstances", in.InstanceIds[0]); err != nil {
		return nil, err
	}
	return &ec2.RebootInstancesOutput{}, nil
}

func (f *fakeEC2) CreateSnapshot(_ context.Context, in *ec2.CreateSnapshotInput, _ ...func(*ec2.Options)) (*ec2.CreateSnapshotOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	volumeID := aws.ToString(in.VolumeId)
	if err := f.record("CreateSnapshot", volumeID); err != nil {
		return nil, err
	}
	f.created = append(f.created, in)
	return &ec2.CreateSnapshotOutput{
		SnapshotId:  aws.String(fmt.Sprintf("snap-new-%d", len(f.created))),
		VolumeId:    in.VolumeId,
		State:       types.SnapshotStatePending,
		Description: in.Description,
	}, nil
}

func (f *fakeEC2) CreateTags(_ context.Context, in *ec2.CreateTagsInput, _ ...func(*ec2.Options)) (*ec2.CreateTagsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateTags", in.Resources[0]); err != nil {
		return nil, err
	}
	f.tags = append(f.tags, in)
	return &ec2.CreateTagsOutput{}, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// fakeWaiter records waits and fails for IDs in errs.
type fakeWaiter struct {
	stopped []string
	running []string
	errs    map[string]error
}

func (w *fakeWaiter) WaitStopped(_ context.Context, id string) error {
	w.stopped = append(w.stopped, id)
	return w.errs["stopped:"+id]
}

func (w *fakeWaiter) WaitRunning(_ context.Context, id string) error {
	w.running = append(w.running, id)
	return w.errs["running:"+id]
}

// fakePicker returns the instance with the given ID.
type fakePicker struct {
	choose string
	seen   []string
	err    error
}

func (p *fakePicker) SelectInstance(instances []shottyaws.Instance) (shottyaws.Instance, error) {
	for _, inst := range instances {
		p.seen = append(p.seen, inst.ID)
	}
	if p.err != nil {
		return shottyaws.Instance{}, p.err
	}
	for _, inst := range instances {
		if inst.ID == p.choose {
			return inst, nil
		}
	}
	return shottyaws.Instance{}, fmt.Errorf("no instance %s", p.choose)
}

// recordSink keeps the printed lines in memory.
type recordSink struct {
	lines   []string
	flushed bool
	line    *LineSink
	buf     *strings.Builder
}

func newRecordSink() *recordSink {
	buf := &strings.Builder{}
	return &recordSink{line: NewLineSink(buf, "Project"), buf: buf}
}

func (s *recordSink) Instance(inst shottyaws.Instance) error { return s.line.Instance(inst) }
func (s *recordSink) Volume(v shottyaws.Volume) error { return s.line.Volume(v) }
func (s *recordSink) Snapshot(snap shottyaws.Snapshot, instanceID string) error {
	return s.line.Snapshot(snap, instanceID)
}
func (s *recordSink) Flush() error {
	s.flushed = true
	s.lines = strings.Split(strings.TrimSuffix(s.buf.String(), "\n"), "\n")
	if s.buf.Len() == 0 {
		s.lines = nil
	}
	return nil
}
