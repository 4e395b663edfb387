package fleet

import (
	"fmt"
	"io"
	"strings"

	"shotty/pkg/aws"
)

// StartTimeLayout matches the C library's %c in the POSIX locale. Times
// are printed in UTC.
const StartTimeLayout = "Mon Jan _2 15:04:05 2006"

// NoProject is printed for instances without the project tag.
const NoProject = "<no project>"

// Sink receives the records produced by the list operations.
type Sink interface {
	Instance(inst aws.Instance) error
	Volume(v aws.Volume) error
	Snapshot(s aws.Snapshot, instanceID string) error
	Flush() error
}

// InstanceFields returns the printed fields of an instance.
func InstanceFields(inst aws.Instance, tagKey string) []string {
	project := inst.Tag(tagKey)
	if project == "" {
		project = NoProject
	}
	return []string{
		inst.ID,
		inst.InstanceType,
		inst.AvailabilityZone,
		inst.State,
		inst.PublicDNSName,
		strings.ToLower(tagKey) + "=" + project,
	}
}

// VolumeFields returns the printed fields of a volume.
func VolumeFields(v aws.Volume) []string {
	encrypted := "Not Encrypted"
	if v.Encrypted {
		encrypted = "Encrypted"
	}
	return []string{
		v.ID,
		v.InstanceID,
		v.State,
		fmt.Sprintf("%dGiB", v.SizeGiB),
		encrypted,
	}
}

// SnapshotFields returns the printed fields of a snapshot.
func SnapshotFields(s aws.Snapshot, instanceID string) []string {
	return []string{
		s.ID,
		s.VolumeID,
		instanceID,
		s.State,
		s.Progress,
		s.StartTime.UTC().Format(StartTimeLayout),
	}
}

// LineSink writes one comma-joined line per record as it arrives.
type LineSink struct {
	w      io.Writer
	tagKey string
}

// NewLineSink creates a LineSink labelling projects with tagKey.
func NewLineSink(w io.Writer, tagKey string) *LineSink {
	if tagKey == "" {
		tagKey = aws.ProjectTagKey
	}
	return &LineSink{w: w, tagKey: tagKey}
}

func (l *LineSink) line(fields []string) error {
	_, err := fmt.Fprintln(l.w, strings.Join(fields, ", "))
	return err
}

func (l *LineSink) Instance(inst aws.Instance) error {
	return l.line(InstanceFields(inst, l.tagKey))
}

func (l *LineSink) Volume(v aws.Volume) error {
	return l.line(VolumeFields(v))
}

func (l *LineSink) Snapshot(s aws.Snapshot, instanceID string) error {
	return l.line(SnapshotFields(s, instanceID))
}

func (l *LineSink) Flush() error { return nil }
