package interactive

import (
	"errors"
	"fmt"

	"shotty/pkg/aws"
	"shotty/pkg/colors"

	"github.com/ktr0731/go-fuzzyfinder"
)

// ErrCancelled is returned when the user closes the picker without choosing.
var ErrCancelled = errors.New("instance selection cancelled")

// FuzzyInstanceSelector picks one instance with a fuzzy finder. TagKey
// names the project tag shown in the header and preview; Rows is the number
// of list rows on screen.
type FuzzyInstanceSelector struct {
	TagKey string
	Rows   int

	// find defaults to fuzzyFind; tests replace it.
	find func(items interface{}, req findRequest) (int, error)
}

// NewFuzzyInstanceSelector creates a selector previewing tagKey, sized from
// SHOTTY_SELECTOR_HEIGHT.
func NewFuzzyInstanceSelector(tagKey string) *FuzzyInstanceSelector {
	if tagKey == "" {
		tagKey = aws.ProjectTagKey
	}
	return &FuzzyInstanceSelector{TagKey: tagKey, Rows: RowsFromEnv(), find: fuzzyFind}
}

// SelectInstance uses a fuzzy finder to select an instance from a list.
func (s *FuzzyInstanceSelector) SelectInstance(instances []aws.Instance) (aws.Instance, error) {
	if len(instances) == 0 {
		return aws.Instance{}, fmt.Errorf("no instances available")
	}

	find := s.find
	if find == nil {
		find = fuzzyFind
	}

	idx, err := find(instances, findRequest{
		Header: fmt.Sprintf("Select an instance (%d available, %s tag in preview)", len(instances), s.TagKey),
		Rows:   min(s.Rows, len(instances)),
		Label:  func(i int) string { return itemLabel(instances[i]) },
		Preview: func(i, w, h int) string {
			if i < 0 || i >= len(instances) {
				return ""
			}
			return s.preview(instances[i])
		},
	})
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			colors.PrintError("Instance selection cancelled\n")
			return aws.Instance{}, ErrCancelled
		}
		return aws.Instance{}, fmt.Errorf("instance selection failed: %w", err)
	}

	colors.PrintSuccess("Selected: %s (%s)\n", instances[idx].Name, instances[idx].ID)
	return instances[idx], nil
}

func itemLabel(instance aws.Instance) string {
	name := instance.Name
	if name == "" {
		name = "N/A"
	}
	return fmt.Sprintf("%s (%s) %s", name, instance.ID, instance.State)
}

func (s *FuzzyInstanceSelector) preview(instance aws.Instance) string {
	name := instance.Name
	if name == "" {
		name = "N/A"
	}

	var state string
	switch instance.State {
	case aws.StateRunning:
		state = colors.ColorSuccess("%s", instance.State)
	case aws.StateStopped:
		state = colors.ColorError("%s", instance.State)
	default:
		state = colors.ColorWarning("%s", instance.State)
	}

	project := instance.Tag(s.TagKey)
	if project == "" {
		project = "<no project>"
	}

	publicDNS := instance.PublicDNSName
	if publicDNS == "" {
		publicDNS = "N/A"
	}

	return fmt.Sprintf("Name:         %s\n"+
		"Instance ID:  %s\n"+
		"State:        %s\n"+
		"Type:         %s\n"+
		"Zone:         %s\n"+
		"Public DNS:   %s\n"+
		"%-13s %s",
		name, instance.ID, state, instance.InstanceType, instance.AvailabilityZone, publicDNS, s.TagKey+":", project)
}
