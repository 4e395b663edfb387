package aws

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"strings"

	"shotty/pkg/logging"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// InstanceService wraps the EC2 calls behind instance, volume and snapshot
// operations.
type InstanceService struct {
	api    EC2API
	logger *logging.Logger
}

// InstanceQuery narrows DescribeInstances. Zero value matches every instance.
type InstanceQuery struct {
	InstanceIDs []string
	Tags        map[string]string // tag key -> exact value
}

var filterEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

// exactFilterValue escapes the EC2 filter wildcards so value only matches
// itself.
func exactFilterValue(value string) string {
	return filterEscaper.Replace(value)
}

// NewInstanceService creates a new instance service
func NewInstanceService(api EC2API, logger *logging.Logger) *InstanceService {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &InstanceService{
		api:    api,
		logger: logger,
	}
}

func (q InstanceQuery) input() *ec2.DescribeInstancesInput {
	input := &ec2.DescribeInstancesInput{}
	if len(q.InstanceIDs) > 0 {
		input.InstanceIds = q.InstanceIDs
	}

	keys := make([]string, 0, len(q.Tags))
	for key := range q.Tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		input.Filters = append(input.Filters, types.Filter{
			Name:   aws.String("tag:" + key),
			Values: []string{exactFilterValue(q.Tags[key])},
		})
	}
	return input
}

// Instances lazily pages through DescribeInstances. Iteration stops at the
// first error, which is yielded with a zero Instance.
func (s *InstanceService) Instances(ctx context.Context, q InstanceQuery) iter.Seq2[Instance, error] {
	return func(yield func(Instance, error) bool) {
		s.logger.Debug("Describing instances", "ids", q.InstanceIDs, "tags", q.Tags)

		paginator := ec2.NewDescribeInstancesPaginator(s.api, q.input())
		for paginator.HasMorePages() {
			output, err := paginator.NextPage(ctx)
			if err != nil {
				yield(Instance{}, fmt.Errorf("failed to describe instances: %w", err))
				return
			}

			for _, reservation := range output.Reservations {
				for _, instance := range reservation.Instances {
					if !yield(NewInstanceFromEC2(instance), nil) {
						return
					}
				}
			}
		}
	}
}

// DescribeInstance loads a single instance by ID.
func (s *InstanceService) DescribeInstance(ctx context.Context, instanceID string) (Instance, error) {
	for instance, err := range s.Instances(ctx, InstanceQuery{InstanceIDs: []string{instanceID}}) {
		if err != nil {
			return Instance{}, fmt.Errorf("instance %s: %w", instanceID, err)
		}
		return instance, nil
	}
	return Instance{}, fmt.Errorf("no instance found with ID %s", instanceID)
}

// Volumes returns the volumes attached to an instance.
func (s *InstanceService) Volumes(ctx context.Context, instanceID string) ([]Volume, error) {
	input := &ec2.DescribeVolumesInput{
		Filters: []types.Filter{
			{
				Name:   aws.String("attachment.instance-id"),
				Values: []string{instanceID},
			},
		},
	}

	var volumes []Volume
	paginator := ec2.NewDescribeVolumesPaginator(s.api, input)
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe volumes of %s: %w", instanceID, err)
		}
		for _, v := range output.Volumes {
			volume := NewVolumeFromEC2(v)
			if volume.InstanceID == "" {
				volume.InstanceID = instanceID
			}
			volumes = append(volumes, volume)
		}
	}

	return volumes, nil
}

// Snapshots returns the snapshots of a volume owned by the caller, newest first.
func (s *InstanceService) Snapshots(ctx context.Context, volumeID string) ([]Snapshot, error) {
	input := &ec2.DescribeSnapshotsInput{
		OwnerIds: []string{"self"},
		Filters: []types.Filter{
			{
				Name:   aws.String("volume-id"),
				Values: []string{volumeID},
			},
		},
	}

	var snapshots []Snapshot
	paginator := ec2.NewDescribeSnapshotsPaginator(s.api, input)
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe snapshots of %s: %w", volumeID, err)
		}
		for _, snap := range output.Snapshots {
			snapshots = append(snapshots, NewSnapshotFromEC2(snap))
		}
	}

	sort.SliceStable(snapshots, func(i, j int) bool {
		return snapshots[i].StartTime.After(snapshots[j].StartTime)
	})

	return snapshots, nil
}

// LatestSnapshot returns the newest snapshot of a volume, or nil if it has none.
func (s *InstanceService) LatestSnapshot(ctx context.Context, volumeID string) (*Snapshot, error) {
	snapshots, err := s.Snapshots(ctx, volumeID)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, nil
	}
	return &snapshots[0], nil
}

// StartInstance requests a start and returns the state the instance was in.
func (s *InstanceService) StartInstance(ctx context.Context, instanceID string) (string, error) {
	output, err := s.api.StartInstances(ctx, &ec2.StartInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return "", fmt.Errorf("failed to start instance %s: %w", instanceID, err)
	}
	return previousState(output.StartingInstances, instanceID), nil
}

// StopInstance requests a stop and returns the state the instance was in.
func (s *InstanceService) StopInstance(ctx context.Context, instanceID string) (string, error) {
	output, err := s.api.StopInstances(ctx, &ec2.StopInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return "", fmt.Errorf("failed to stop instance %s: %w", instanceID, err)
	}
	return previousState(output.StoppingInstances, instanceID), nil
}

// RebootInstance requests a reboot.
func (s *InstanceService) RebootInstance(ctx context.Context, instanceID string) error {
	_, err := s.api.RebootInstances(ctx, &ec2.RebootInstancesInput{
		InstanceIds: []string{instanceID},
	})
	if err != nil {
		return fmt.Errorf("failed to reboot instance %s: %w", instanceID, err)
	}
	return nil
}

// CreateSnapshot requests a snapshot of a volume, tagging it with tags.
func (s *InstanceService) CreateSnapshot(ctx context.Context, volumeID, description string, tags map[string]string) (Snapshot, error) {
	input := &ec2.CreateSnapshotInput{
		VolumeId:    aws.String(volumeID),
		Description: aws.String(description),
	}
	if len(tags) > 0 {
		input.TagSpecifications = []types.TagSpecification{
			{
				ResourceType: types.ResourceTypeSnapshot,
				Tags:         toEC2Tags(tags),
			},
		}
	}

	output, err := s.api.CreateSnapshot(ctx, input)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to create snapshot of %s: %w", volumeID, err)
	}

	return Snapshot{
		ID:          aws.ToString(output.SnapshotId),
		VolumeID:    aws.ToString(output.VolumeId),
		State:       string(output.State),
		Progress:    aws.ToString(output.Progress),
		StartTime:   aws.ToTime(output.StartTime),
		Description: aws.ToString(output.Description),
	}, nil
}

// TagInstance sets key=value on an instance, replacing any previous value.
func (s *InstanceService) TagInstance(ctx context.Context, instanceID, key, value string) error {
	_, err := s.api.CreateTags(ctx, &ec2.CreateTagsInput{
		Resources: []string{instanceID},
		Tags:      toEC2Tags(map[string]string{key: value}),
	})
	if err != nil {
		return fmt.Errorf("failed to tag instance %s: %w", instanceID, err)
	}
	return nil
}

func previousState(changes []types.InstanceStateChange, instanceID string) string {
	for _, change := range changes {
		if aws.ToString(change.InstanceId) == instanceID && change.PreviousState != nil {
			return string(change.PreviousState.Name)
		}
	}
	return ""
}

func toEC2Tags(tags map[string]string) []types.Tag {
	keys := make([]string, 0, len(tags))
	for key := range tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]types.Tag, 0, len(keys))
	for _, key := range keys {
		out = append(out, types.Tag{Key: aws.String(key), Value: aws.String(tags[key])})
	}
	return out
}
