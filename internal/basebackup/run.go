package basebackup

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"go.pgarchive.dev/core/internal/archivefs"
	"go.pgarchive.dev/core/internal/catalog"
	"go.pgarchive.dev/core/internal/catalogmetrics"
	"go.pgarchive.dev/core/internal/descriptor"
	"go.pgarchive.dev/core/internal/ioring"
	"go.pgarchive.dev/core/internal/pgconn"
	"go.pgarchive.dev/core/internal/pgerror"
	"go.pgarchive.dev/core/internal/sink"
)

// Config bounds the in-flight memory the Pipeline uses to stage bytes
// between the network stream and an archive file, per spec.md §4.A.
type Config struct {
	BufferSize int
	NumBuffers int
}

// DefaultConfig returns the staging size used when a caller does not
// override it: 4 buffers of 1MiB each, 4MiB of bounded memory per
// tablespace transfer in flight at a time.
func DefaultConfig() Config {
	return Config{BufferSize: 1 << 20, NumBuffers: 4}
}

func (c Config) orDefault() Config {
	if c.BufferSize <= 0 || c.NumBuffers <= 0 {
		return DefaultConfig()
	}
	return c
}

// Pipeline drives one base-backup session against a single upstream
// server, per spec.md §4.E's state table. It owns no process-wide
// state: a fresh Pipeline is constructed per invocation of the
// start-basebackup command.
type Pipeline struct {
	Catalog *catalog.Catalog
	Conn    pgconn.Conn
	Layout  *archivefs.Layout
	Config  Config
}

// Options parameterizes a single Run.
type Options struct {
	Archive     *descriptor.Archive
	ProfileName string
	Label       string
}

// Run drives the state machine of spec.md §4.E end to end: connect,
// identify, request a base backup, register it, stream each
// tablespace, finalize, disconnect. Registration, per-tablespace
// recording, and finalization each run in their own catalog
// transaction; the streaming loop itself never holds one open, per
// the atomicity contract. On any error after registration, Run opens
// a fresh transaction solely to mark the basebackup aborted and
// returns the original error unchanged — an error from that cleanup
// transaction is logged, never substituted for it.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*descriptor.BaseBackup, error) {
	defer func() {
		if err := p.Conn.Disconnect(ctx); err != nil {
			log.WithError(err).Warn("disconnecting replication session")
		}
	}()

	ident, err := p.Conn.Connect(ctx)
	if err != nil {
		return nil, errors.WithMessage(err, "connecting replication session")
	}
	log.WithFields(log.Fields{
		"systemid": ident.SystemID,
		"timeline": ident.Timeline,
		"xlogpos":  ident.XLogPos,
	}).Info("base backup identified")

	profile, err := p.Catalog.ResolveProfile(opts.ProfileName)
	if err != nil {
		return nil, err
	}

	if err := p.Conn.BaseBackup(ctx, profile); err != nil {
		return nil, errors.WithMessage(err, "requesting base backup")
	}
	if _, err := p.Conn.ReadTablespaceInfo(ctx); err != nil {
		return nil, errors.WithMessage(err, "reading tablespace info")
	}

	basebackupDir, err := p.Layout.CreateBasebackupDir(opts.Archive.Directory, opts.Label, time.Now().UTC())
	if err != nil {
		return nil, errors.WithMessage(err, "creating basebackup directory")
	}

	var b = descriptor.NewBaseBackup()
	b.ArchiveID = opts.Archive.ID
	b.Label = opts.Label
	b.SystemID = ident.SystemID
	b.Timeline = ident.Timeline
	b.XLogPos = ident.XLogPos
	b.WalSegmentSize = ident.WalSegmentSize
	b.UsedProfile = profile.Name
	b.FsEntry = basebackupDir

	var registered *descriptor.BaseBackup
	if err := p.Catalog.WithTransaction(ctx, func() error {
		out, err := p.Catalog.RegisterBasebackup(b)
		if err != nil {
			return err
		}
		registered = out
		return nil
	}); err != nil {
		return nil, err
	}
	b = registered
	catalogmetrics.BasebackupsStartedTotal.Inc()
	log.WithField("basebackup_id", b.ID).Info("basebackup registered, in progress")

	if err := p.streamTablespaces(ctx, b, profile.CompressType); err != nil {
		return nil, p.abort(ctx, b.ID, err)
	}

	xlogPosEnd, err := p.Conn.End(ctx)
	if err != nil {
		return nil, p.abort(ctx, b.ID, errors.WithMessage(err, "ending base backup"))
	}

	var finalized *descriptor.BaseBackup
	if err := p.Catalog.WithTransaction(ctx, func() error {
		out, err := p.Catalog.FinalizeBasebackup(b.ID, xlogPosEnd)
		if err != nil {
			return err
		}
		finalized = out
		return nil
	}); err != nil {
		return nil, p.abort(ctx, b.ID, err)
	}
	catalogmetrics.BasebackupsFinishedTotal.WithLabelValues("ready").Inc()
	log.WithField("basebackup_id", b.ID).Info("basebackup ready")
	return finalized, nil
}

// abort marks a basebackup aborted in its own transaction, per
// spec.md §4.E and §7: a failure raised while recording the abort is
// logged and suppressed so it never shadows original.
func (p *Pipeline) abort(ctx context.Context, id int, original error) error {
	if err := p.Catalog.WithTransaction(ctx, func() error {
		return p.Catalog.AbortBasebackup(id)
	}); err != nil {
		log.WithError(err).Warn("marking basebackup aborted failed; original error preserved")
	}
	catalogmetrics.BasebackupsFinishedTotal.WithLabelValues("aborted").Inc()
	return original
}

// streamTablespaces iterates the server's tablespaces strictly in the
// order it enumerates them (spec.md §5's ordering rule), streaming
// each one's bytes before requesting the next.
func (p *Pipeline) streamTablespaces(ctx context.Context, b *descriptor.BaseBackup, compress descriptor.CompressType) error {
	var cfg = p.Config.orDefault()
	var buf = ioring.NewVectoredBuffer(cfg.BufferSize, cfg.NumBuffers)

	for {
		stream, err := p.Conn.StepTablespace(ctx)
		if err != nil {
			return errors.WithMessage(err, "stepping tablespace")
		}
		if stream == nil {
			return nil
		}
		if err := p.streamOneTablespace(ctx, b, stream, compress, buf); err != nil {
			return err
		}
	}
}

// streamOneTablespace opens the tablespace's output file under the
// basebackup's fsentry and registers its catalog row before any bytes
// are transferred, then streams the bytes, then fsyncs and closes.
func (p *Pipeline) streamOneTablespace(
	ctx context.Context, b *descriptor.BaseBackup, stream *pgconn.TablespaceStream,
	compress descriptor.CompressType, buf *ioring.VectoredBuffer,
) error {
	file, err := p.Layout.CreateTablespaceFile(b.FsEntry, stream.Info.Spcoid, sinkSuffix(compress))
	if err != nil {
		return pgerror.IO("creating tablespace file", err)
	}

	var t = descriptor.NewTablespace(b.ID)
	t.Spcoid = stream.Info.Spcoid
	t.Spclocation = stream.Info.Spclocation
	t.Spcsize = stream.Info.Spcsize

	if err := p.Catalog.WithTransaction(ctx, func() error {
		return p.Catalog.RegisterTablespaceForBackup(t)
	}); err != nil {
		_ = file.Close()
		return err
	}
	log.WithFields(log.Fields{"basebackup_id": b.ID, "spcoid": t.Spcoid}).Info("streaming tablespace")

	moved, err := transfer(ctx, file, stream.Data, compress, buf)
	catalogmetrics.TablespaceBytesTotal.Add(float64(moved))
	if err != nil {
		_ = file.Close()
		return pgerror.IO("streaming tablespace bytes", err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return pgerror.IO("fsyncing tablespace file", err)
	}
	catalogmetrics.TablespacesStreamedTotal.Inc()
	return file.Close()
}

// transfer moves stream into file, bounded by buf's capacity.
// Uncompressed profiles transfer batches of buf directly through the
// Vectored I/O Engine's Ring against the raw file, since every slot's
// byte count maps one-to-one onto a file offset. Compressed profiles
// stage through the same buffer's first slot but write sequentially
// through a sink.Writer instead, because gzip/zstd framing changes
// the byte count written and has no fixed file offset for a vectored
// write to target.
func transfer(ctx context.Context, file ioring.File, r io.Reader, compress descriptor.CompressType, buf *ioring.VectoredBuffer) (int64, error) {
	if compress == descriptor.CompressNone || compress == descriptor.CompressPlain {
		return transferViaRing(ctx, file, r, buf)
	}
	w, err := sink.NewWriter(file, compress)
	if err != nil {
		return 0, err
	}
	moved, err := copySequential(w, r, buf.Slots()[0])
	if err != nil {
		_ = w.Close()
		return moved, err
	}
	return moved, w.Close()
}

// transferViaRing fills every slot of buf from r, submits one
// vectored write per full (or final partial) batch, and advances the
// file offset by exactly what HandleCurrentIO reports transferred.
func transferViaRing(ctx context.Context, file ioring.File, r io.Reader, buf *ioring.VectoredBuffer) (int64, error) {
	var ring ioring.Ring
	ring.Setup(file, buf.NumBuffers(), buf.BufferSize())
	defer ring.Exit()

	var offset int64
	for {
		n, rerr := fillSlots(r, buf.Slots())
		if n > 0 {
			if err := buf.SetEffectiveSize(n); err != nil {
				return offset, err
			}
			if err := ring.Write(ctx, buf, offset); err != nil {
				return offset, err
			}
			written, err := ring.HandleCurrentIO()
			if err != nil {
				return offset, err
			}
			offset += written
		}
		if rerr == io.EOF {
			return offset, nil
		}
		if rerr != nil {
			return offset, rerr
		}
	}
}

// fillSlots reads as much of r as fits across slots, in order,
// reporting io.EOF once r is exhausted (even if the last slot it
// filled was only partially filled).
func fillSlots(r io.Reader, slots [][]byte) (int64, error) {
	var total int64
	for _, slot := range slots {
		n, err := io.ReadFull(r, slot)
		total += int64(n)
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return total, io.EOF
		}
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// copySequential reuses a single buffer slot to move r into w without
// growing memory use with the tablespace's size.
func copySequential(w io.Writer, r io.Reader, slot []byte) (int64, error) {
	var total int64
	for {
		n, err := r.Read(slot)
		if n > 0 {
			if _, werr := w.Write(slot[:n]); werr != nil {
				return total, werr
			}
			total += int64(n)
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

func sinkSuffix(compress descriptor.CompressType) string {
	switch compress {
	case descriptor.CompressGzip:
		return ".gz"
	case descriptor.CompressZstd:
		return ".zst"
	case descriptor.CompressPbzip:
		return ".bz2"
	default:
		return ""
	}
}
