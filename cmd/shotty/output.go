package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"shotty/internal/config"
	"shotty/internal/fleet"
	"shotty/pkg/aws"
	"shotty/pkg/errors"

	"github.com/dustin/go-humanize"
)

const tablePadding = 2

// newSink returns the record sink for the configured output format.
func newSink(w io.Writer, cfg *config.Config) (fleet.Sink, error) {
	switch strings.ToLower(cfg.Output) {
	case "", config.OutputCSV:
		return fleet.NewLineSink(w, cfg.TagKey), nil
	case config.OutputTable:
		return newTableSink(w, cfg.TagKey), nil
	}
	return nil, errors.NewUsageError(fmt.Sprintf("unknown output format %q (use %s or %s)", cfg.Output, config.OutputCSV, config.OutputTable))
}

// tableSink buffers records and renders one aligned table on Flush.
type tableSink struct {
	w      io.Writer
	tagKey string
	now    func() time.Time
	table  *TableFormatter
}

func newTableSink(w io.Writer, tagKey string) *tableSink {
	return &tableSink{w: w, tagKey: tagKey, now: time.Now}
}

// use lazily creates the table; a sink only ever holds one record kind.
func (s *tableSink) use(headers ...string) *TableFormatter {
	if s.table == nil {
		s.table = NewTableFormatter(tablePadding, headers...)
	}
	return s.table
}

func (s *tableSink) Instance(inst aws.Instance) error {
	project := inst.Tag(s.tagKey)
	if project == "" {
		project = fleet.NoProject
	}
	s.use("INSTANCE", "NAME", "TYPE", "AZ", "STATE", "PUBLIC DNS", strings.ToUpper(s.tagKey)).
		AddRow(inst.ID, inst.Name, inst.InstanceType, inst.AvailabilityZone, inst.State, inst.PublicDNSName, project)
	return nil
}

func (s *tableSink) Volume(v aws.Volume) error {
	encrypted := "no"
	if v.Encrypted {
		encrypted = "yes"
	}
	s.use("VOLUME", "INSTANCE", "STATE", "SIZE", "TYPE", "ENCRYPTED").
		AddRow(v.ID, v.InstanceID, v.State, humanize.IBytes(uint64(v.SizeGiB)<<30), v.VolumeType, encrypted)
	return nil
}

func (s *tableSink) Snapshot(snap aws.Snapshot, instanceID string) error {
	s.use("SNAPSHOT", "VOLUME", "INSTANCE", "STATE", "PROGRESS", "STARTED", "AGE").
		AddRow(snap.ID, snap.VolumeID, instanceID, snap.State, snap.Progress,
			snap.StartTime.UTC().Format(fleet.StartTimeLayout),
			humanize.RelTime(snap.StartTime, s.now(), "ago", "from now"))
	return nil
}

func (s *tableSink) Flush() error {
	if s.table == nil {
		return nil
	}
	err := s.table.Render(s.w)
	s.table = nil
	return err
}
