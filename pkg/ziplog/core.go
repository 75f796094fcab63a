package ziplog

import (
	"fmt"

	"go.uber.org/zap/zapcore"

	"github.com/raoulx24/ziplog/internal/manager"
	"github.com/raoulx24/ziplog/internal/roll"
)

// Core is a zapcore.Core writing through a rolling archive manager. The
// encoder is the formatter collaborator: the core never inspects its output,
// so console, JSON, or any custom encoder works equally.
type Core struct {
	zapcore.LevelEnabler
	enc zapcore.Encoder
	mgr *manager.Manager
}

var _ zapcore.Core = (*Core)(nil)

// NewCore builds the sink. No file is touched until the first write.
func NewCore(enc zapcore.Encoder, enab zapcore.LevelEnabler, opts Options) (*Core, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	mgr, err := manager.New(manager.Options{
		Roller:                 roll.New(opts.Path, opts.Interval),
		Clock:                  opts.Clock,
		Diag:                   opts.Diagnostics,
		RetainedFileCountLimit: opts.RetainedFileCountLimit,
		RetainedFileAgeLimit:   opts.RetainedFileAgeLimit,
		PropagateOpenErrors:    opts.PropagateOpenErrors,
	})
	if err != nil {
		return nil, err
	}
	return &Core{LevelEnabler: enab, enc: enc, mgr: mgr}, nil
}

// With adds structured context. Attachment requests in the context are
// resolved here, at the boundary, like any other field.
func (c *Core) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.enc = c.enc.Clone()
	for _, f := range encodeFields(fields) {
		f.AddTo(clone.enc)
	}
	return &clone
}

func (c *Core) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

// Write appends one event. An event carrying an encoded attachment produces
// a shortened synthetic line (entry metadata only, caller preserved, all
// other properties dropped) plus a new archive entry holding the payload.
func (c *Core) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	fields = encodeFields(fields)

	if name, level, data, found := extractAttachment(fields); found {
		synth := ent
		synth.Message = fmt.Sprintf("Attached %q to the archive", name)
		buf, err := c.enc.EncodeEntry(synth, nil)
		if err != nil {
			return err
		}
		line := buf.String()
		buf.Free()
		return c.mgr.WriteAttachment(ent.Time, name, level, data, line)
	}

	buf, err := c.enc.EncodeEntry(ent, fields)
	if err != nil {
		return err
	}
	line := buf.String()
	buf.Free()
	return c.mgr.WriteText(line)
}

// Sync forces a flush cycle on the current archive.
func (c *Core) Sync() error { return c.mgr.Flush() }

// Sweep runs retention and a forced flush outside the write path. The
// scheduled sweeper calls this so age-based pruning does not depend on
// event traffic.
func (c *Core) Sweep() error { return c.mgr.Sweep() }

// Close disposes the sink. Writes after Close fail.
func (c *Core) Close() error { return c.mgr.Close() }
