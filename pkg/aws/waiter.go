package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ec2"
)

// DefaultWaitTimeout bounds a single stop or start wait.
const DefaultWaitTimeout = 15 * time.Minute

// InstanceWaiter blocks until an instance reaches a target state using the
// SDK's DescribeInstances based waiters.
type InstanceWaiter struct {
	api      ec2.DescribeInstancesAPIClient
	maxWait  time.Duration
	minDelay time.Duration
}

// NewInstanceWaiter creates a waiter. A non-positive maxWait uses DefaultWaitTimeout.
func NewInstanceWaiter(api ec2.DescribeInstancesAPIClient, maxWait time.Duration) *InstanceWaiter {
	if maxWait <= 0 {
		maxWait = DefaultWaitTimeout
	}
	return &InstanceWaiter{api: api, maxWait: maxWait}
}

// WithMinDelay overrides the delay between polls.
func (w *InstanceWaiter) WithMinDelay(d time.Duration) *InstanceWaiter {
	w.minDelay = d
	return w
}

// WaitStopped blocks until the instance reports "stopped".
func (w *InstanceWaiter) WaitStopped(ctx context.Context, instanceID string) error {
	waiter := ec2.NewInstanceStoppedWaiter(w.api, func(o *ec2.InstanceStoppedWaiterOptions) {
		if w.minDelay > 0 {
			o.MinDelay = w.minDelay
		}
	})
	if err := waiter.Wait(ctx, describeOne(instanceID), w.maxWait); err != nil {
		return fmt.Errorf("instance %s failed to reach stopped state: %w", instanceID, err)
	}
	return nil
}

// WaitRunning blocks until the instance reports "running".
func (w *InstanceWaiter) WaitRunning(ctx context.Context, instanceID string) error {
	waiter := ec2.NewInstanceRunningWaiter(w.api, func(o *ec2.InstanceRunningWaiterOptions) {
		if w.minDelay > 0 {
			o.MinDelay = w.minDelay
		}
	})
	if err := waiter.Wait(ctx, describeOne(instanceID), w.maxWait); err != nil {
		return fmt.Errorf("instance %s failed to reach running state: %w", instanceID, err)
	}
	return nil
}

func describeOne(instanceID string) *ec2.DescribeInstancesInput {
	return &ec2.DescribeInstancesInput{InstanceIds: []string{instanceID}}
}
