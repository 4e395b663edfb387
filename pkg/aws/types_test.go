package aws

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/stretchr/testify/assert"
)

func TestNewInstanceFromEC2(t *testing.T) {
	launch := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ec2Instance := types.Instance{
		InstanceId:    aws.String("i-0123456789abcdef0"),
		InstanceType:  types.InstanceTypeT3Micro,
		PublicDnsName: aws.String("ec2-1-2-3-4.compute.amazonaws.com"),
		State:         &types.InstanceState{Name: types.InstanceStateNameRunning},
		Placement:     &types.Placement{AvailabilityZone: aws.String("ca-central-1a")},
		LaunchTime:    &launch,
		Tags: []types.Tag{
			{Key: aws.String("Name"), Value: aws.String("web")},
			{Key: aws.String("Project"), Value: aws.String("blog")},
			{Key: aws.String("NoValue")},
		},
	}

	instance := NewInstanceFromEC2(ec2Instance)

	assert.Equal(t, "i-0123456789abcdef0", instance.ID)
	assert.Equal(t, "web", instance.Name)
	assert.Equal(t, StateRunning, instance.State)
	assert.Equal(t, "t3.micro", instance.InstanceType)
	assert.Equal(t, "ca-central-1a", instance.AvailabilityZone)
	assert.Equal(t, "ec2-1-2-3-4.compute.amazonaws.com", instance.PublicDNSName)
	assert.Equal(t, "blog", instance.Tag(ProjectTagKey))
	assert.NotContains(t, instance.Tags, "NoValue")
	assert.Equal(t, &launch, instance.LaunchTime)
	assert.False(t, instance.IsHandle())
}

func TestNewInstanceFromEC2WithoutNameTag(t *testing.T) {
	instance := NewInstanceFromEC2(types.Instance{
		InstanceId: aws.String("i-12345678"),
	})

	assert.Equal(t, "i-12345678", instance.Name, "name falls back to the ID")
	assert.Empty(t, instance.State)
	assert.Empty(t, instance.AvailabilityZone)
	assert.Empty(t, instance.Tag(ProjectTagKey))
}

func TestInstanceHandle(t *testing.T) {
	handle := NewInstanceHandle("i-0123456789abcdef0")

	assert.Equal(t, "i-0123456789abcdef0", handle.ID)
	assert.True(t, handle.IsHandle())
	assert.Empty(t, handle.Tag(ProjectTagKey))
}

func TestNewVolumeFromEC2(t *testing.T) {
	v := NewVolumeFromEC2(types.Volume{
		VolumeId:   aws.String("vol-1"),
		State:      types.VolumeStateInUse,
		Size:       aws.Int32(8),
		Encrypted:  aws.Bool(true),
		VolumeType: types.VolumeTypeGp3,
		Attachments: []types.VolumeAttachment{
			{InstanceId: nil},
			{InstanceId: aws.String("i-12345678")},
		},
	})

	assert.Equal(t, Volume{
		ID:         "vol-1",
		InstanceID: "i-12345678",
		State:      "in-use",
		SizeGiB:    8,
		Encrypted:  true,
		VolumeType: "gp3",
	}, v)

	detached := NewVolumeFromEC2(types.Volume{VolumeId: aws.String("vol-2")})
	assert.Empty(t, detached.InstanceID)
	assert.False(t, detached.Encrypted)
}

func TestNewSnapshotFromEC2(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	s := NewSnapshotFromEC2(types.Snapshot{
		SnapshotId:  aws.String("snap-1"),
		VolumeId:    aws.String("vol-1"),
		State:       types.SnapshotStatePending,
		Progress:    aws.String("42%"),
		StartTime:   &start,
		Description: aws.String("Created by shotty"),
	})

	assert.Equal(t, "snap-1", s.ID)
	assert.Equal(t, "vol-1", s.VolumeID)
	assert.Equal(t, "42%", s.Progress)
	assert.Equal(t, start, s.StartTime)
	assert.True(t, s.IsPending())
	assert.False(t, s.IsCompleted())

	s.State = SnapshotCompleted
	assert.True(t, s.IsCompleted())
}
