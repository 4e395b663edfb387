// Package fleet resolves which instances a command targets and runs the
// list, lifecycle, snapshot and tag operations over them.
package fleet

import (
	"context"
	"iter"

	"shotty/pkg/aws"
	"shotty/pkg/errors"
)

// MissingSelectorMessage is the usage error shown when nothing narrows the
// target set.
const MissingSelectorMessage = "specify --instance, --project or --force"

// Criteria narrows the instances an operation targets. Precedence is
// InstanceID, then Project, then Force, then Interactive.
type Criteria struct {
	InstanceID  string
	Project     string
	Force       bool
	Interactive bool
}

// Picker chooses one instance out of many.
type Picker interface {
	SelectInstance(instances []aws.Instance) (aws.Instance, error)
}

// Selector turns Criteria into a sequence of instances.
type Selector struct {
	svc    *aws.InstanceService
	tagKey string
	picker Picker
}

// NewSelector creates a selector matching projects on tagKey. picker may be
// nil, in which case interactive selection is a usage error.
func NewSelector(svc *aws.InstanceService, tagKey string, picker Picker) *Selector {
	if tagKey == "" {
		tagKey = aws.ProjectTagKey
	}
	return &Selector{svc: svc, tagKey: tagKey, picker: picker}
}

// Validate reports usage errors in c without calling the provider.
// pickerAvailable says whether interactive selection can be served.
func (c Criteria) Validate(pickerAvailable bool) error {
	switch {
	case c.InstanceID != "":
		if err := aws.ValidateInstanceID(c.InstanceID); err != nil {
			return errors.NewUsageError(err.Error())
		}
		return nil
	case c.Project != "", c.Force:
		return nil
	case c.Interactive:
		if !pickerAvailable {
			return errors.NewUsageError("interactive selection is not available")
		}
		return nil
	}
	return errors.NewUsageError(MissingSelectorMessage)
}

// Validate reports usage errors in c without calling the provider.
func (s *Selector) Validate(c Criteria) error {
	return c.Validate(s.picker != nil)
}

// Select returns the instances c targets. Usage errors are returned before
// any provider call; provider errors surface through the sequence.
func (s *Selector) Select(ctx context.Context, c Criteria) (iter.Seq2[aws.Instance, error], error) {
	if err := s.Validate(c); err != nil {
		return nil, err
	}

	switch {
	case c.InstanceID != "":
		return single(aws.NewInstanceHandle(c.InstanceID)), nil
	case c.Project != "":
		return s.svc.Instances(ctx, aws.InstanceQuery{Tags: map[string]string{s.tagKey: c.Project}}), nil
	case c.Force:
		return s.svc.Instances(ctx, aws.InstanceQuery{}), nil
	}
	return s.pick(ctx), nil
}

func (s *Selector) pick(ctx context.Context) iter.Seq2[aws.Instance, error] {
	return func(yield func(aws.Instance, error) bool) {
		var all []aws.Instance
		for inst, err := range s.svc.Instances(ctx, aws.InstanceQuery{}) {
			if err != nil {
				yield(aws.Instance{}, err)
				return
			}
			all = append(all, inst)
		}

		chosen, err := s.picker.SelectInstance(all)
		if err != nil {
			yield(aws.Instance{}, err)
			return
		}
		yield(chosen, nil)
	}
}

func single(inst aws.Instance) iter.Seq2[aws.Instance, error] {
	return func(yield func(aws.Instance, error) bool) {
		yield(inst, nil)
	}
}
