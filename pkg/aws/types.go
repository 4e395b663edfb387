package aws

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// ProjectTagKey is the tag used to group instances into projects.
const ProjectTagKey = "Project"

// Instance states reported by EC2.
const (
	StatePending  = "pending"
	StateRunning  = "running"
	StateStopping = "stopping"
	StateStopped  = "stopped"
)

// Snapshot states reported by EC2.
const (
	SnapshotPending   = "pending"
	SnapshotCompleted = "completed"
	SnapshotError     = "error"
)

// Instance represents an EC2 instance with the metadata shotty prints.
// An Instance built with NewInstanceHandle only carries its ID.
type Instance struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	State            string            `json:"state"`
	InstanceType     string            `json:"instance_type"`
	AvailabilityZone string            `json:"availability_zone"`
	PublicDNSName    string            `json:"public_dns_name,omitempty"`
	Tags             map[string]string `json:"tags"`
	LaunchTime       *time.Time        `json:"launch_time,omitempty"`
}

// NewInstanceHandle returns an Instance that only knows its ID. Nothing is
// looked up; the first API call against it reports a missing instance.
func NewInstanceHandle(id string) Instance {
	return Instance{ID: id, Tags: map[string]string{}}
}

// IsHandle reports whether the instance was built from an ID alone.
func (i Instance) IsHandle() bool {
	return i.State == "" && i.InstanceType == ""
}

// Tag returns the value of the given tag key, or an empty string.
func (i Instance) Tag(key string) string {
	return i.Tags[key]
}

// Volume is an EBS volume attached to an instance.
type Volume struct {
	ID         string `json:"id"`
	InstanceID string `json:"instance_id"`
	State      string `json:"state"`
	SizeGiB    int32  `json:"size_gib"`
	Encrypted  bool   `json:"encrypted"`
	VolumeType string `json:"volume_type"`
}

// Snapshot is a point-in-time copy of a volume.
type Snapshot struct {
	ID          string    `json:"id"`
	VolumeID    string    `json:"volume_id"`
	State       string    `json:"state"`
	Progress    string    `json:"progress"`
	StartTime   time.Time `json:"start_time"`
	Description string    `json:"description,omitempty"`
}

// IsPending reports whether the snapshot is still being taken.
func (s Snapshot) IsPending() bool {
	return s.State == SnapshotPending
}

// IsCompleted reports whether the snapshot finished successfully.
func (s Snapshot) IsCompleted() bool {
	return s.State == SnapshotCompleted
}

// NewInstanceFromEC2 creates an Instance from an EC2 instance
func NewInstanceFromEC2(ec2Instance types.Instance) Instance {
	instance := Instance{
		ID:            aws.ToString(ec2Instance.InstanceId),
		InstanceType:  string(ec2Instance.InstanceType),
		PublicDNSName: aws.ToString(ec2Instance.PublicDnsName),
		Tags:          extractTags(ec2Instance.Tags),
		LaunchTime:    ec2Instance.LaunchTime,
	}

	if ec2Instance.State != nil {
		instance.State = string(ec2Instance.State.Name)
	}
	if ec2Instance.Placement != nil {
		instance.AvailabilityZone = aws.ToString(ec2Instance.Placement.AvailabilityZone)
	}

	if name, exists := instance.Tags["Name"]; exists {
		instance.Name = name
	} else {
		instance.Name = instance.ID
	}

	return instance
}

// NewVolumeFromEC2 creates a Volume from an EC2 volume. The instance ID is the
// first attachment's, if any.
func NewVolumeFromEC2(v types.Volume) Volume {
	volume := Volume{
		ID:         aws.ToString(v.VolumeId),
		State:      string(v.State),
		SizeGiB:    aws.ToInt32(v.Size),
		Encrypted:  aws.ToBool(v.Encrypted),
		VolumeType: string(v.VolumeType),
	}
	for _, attachment := range v.Attachments {
		if attachment.InstanceId != nil {
			volume.InstanceID = *attachment.InstanceId
			break
		}
	}
	return volume
}

// NewSnapshotFromEC2 creates a Snapshot from an EC2 snapshot
func NewSnapshotFromEC2(s types.Snapshot) Snapshot {
	return Snapshot{
		ID:          aws.ToString(s.SnapshotId),
		VolumeID:    aws.ToString(s.VolumeId),
		State:       string(s.State),
		Progress:    aws.ToString(s.Progress),
		StartTime:   aws.ToTime(s.StartTime),
		Description: aws.ToString(s.Description),
	}
}

// extractTags converts EC2 tags to a map
func extractTags(tags []types.Tag) map[string]string {
	tagMap := make(map[string]string)
	for _, tag := range tags {
		if tag.Key != nil && tag.Value != nil {
			tagMap[*tag.Key] = *tag.Value
		}
	}
	return tagMap
}
