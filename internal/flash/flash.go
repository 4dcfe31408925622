// Package flash binds user-supplied partition files and tar archives
// against a device's PIT and drives the upload loop, accounting for
// total transfer size and reporting progress as it goes.
package flash

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"odinflash/internal/odinerr"
	"odinflash/internal/pit"
	"odinflash/internal/proto"
)

// FileArgument is one user-supplied flashing input: either a single
// named partition image, or a tar archive of several.
type FileArgument interface {
	path() string
	isArgument()
}

// PartitionFile binds name (matched case-insensitively against a PIT
// entry's partition_name) to the image at Path.
type PartitionFile struct {
	Name string
	Path string
}

func (f PartitionFile) path() string { return f.Path }
func (PartitionFile) isArgument()    {}

// TarFile is a tar archive whose members are matched by path against
// PIT entries' flash_filename.
type TarFile struct {
	Path string
}

func (f TarFile) path() string { return f.Path }
func (TarFile) isArgument()    {}

// ValidateArguments checks that every argument names a regular file,
// and — unless verify is false — MD5-verifies any .tar.md5 TarFile.
// Runs entirely before any device I/O.
func ValidateArguments(args []FileArgument, verify bool) error {
	for _, a := range args {
		info, err := os.Stat(a.path())
		if err != nil || !info.Mode().IsRegular() {
			return odinerr.Newf(odinerr.KindInvalidFile, "not a regular file: %s", a.path())
		}

		if !verify {
			continue
		}
		tar, ok := a.(TarFile)
		if !ok || strings.ToLower(filepath.Ext(tar.Path)) != ".md5" {
			continue
		}

		ok, err = verifyTarChecksum(tar.Path)
		if err != nil {
			return odinerr.Wrap(odinerr.KindIO, "verify tar checksum", err)
		}
		if !ok {
			return odinerr.Newf(odinerr.KindInvalidChecksum, "checksum mismatch: %s", tar.Path)
		}
	}
	return nil
}

// verifyTarChecksum checks a .tar.md5's trailing "<32-hex><SP><SP>
// <basename><LF>" record against the MD5 of the leading tar payload.
func verifyTarChecksum(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	fileSize := info.Size()

	basename := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	trailerLen := int64(32 + 2 + len(basename) + 1)
	tarSize := fileSize - trailerLen
	if tarSize < 0 {
		return false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	calculated, err := md5HexPrefix(f, tarSize)
	if err != nil {
		return false, err
	}

	checksum := make([]byte, 32)
	if _, err := io.ReadFull(f, checksum); err != nil {
		return false, err
	}

	return strings.EqualFold(calculated, string(checksum)), nil
}

// BoundTarget is one resolved, ready-to-upload item: a PIT entry paired
// with the byte range in a file that supplies its image.
type BoundTarget struct {
	Entry  *pit.Entry
	Label  string // for progress reporting, e.g. "partition_name" or "tar/member"
	Open   func() (io.ReadCloser, uint64, error)
}

// Bind matches every argument against the PIT, accumulating the total
// transfer size the caller must pass to proto.SendTotalSize. Binding
// errors (PartitionNotFound, FlashNameNotFound) are only discoverable
// here, after the PIT has been downloaded, so callers must still
// perform proto.EndSession before surfacing them.
func Bind(args []FileArgument, table *pit.Pit) (targets []BoundTarget, totalSize uint64, err error) {
	for _, a := range args {
		switch v := a.(type) {
		case PartitionFile:
			entry, ok := table.FindPartitionName(v.Name)
			if !ok {
				return nil, 0, odinerr.Newf(odinerr.KindPartitionNotFound, "partition not found: %s", v.Name)
			}
			info, statErr := os.Stat(v.Path)
			if statErr != nil {
				return nil, 0, odinerr.Wrap(odinerr.KindIO, "stat partition file", statErr)
			}
			size := uint64(info.Size())
			totalSize += size

			path := v.Path
			targets = append(targets, BoundTarget{
				Entry: entry,
				Label: entry.PartitionName.String(),
				Open: func() (io.ReadCloser, uint64, error) {
					f, openErr := os.Open(path)
					return f, size, openErr
				},
			})

		case TarFile:
			tarTargets, tarSize, tarErr := bindTarMembers(v.Path, table)
			if tarErr != nil {
				return nil, 0, tarErr
			}
			targets = append(targets, tarTargets...)
			totalSize += tarSize
		}
	}
	return targets, totalSize, nil
}

func bindTarMembers(path string, table *pit.Pit) ([]BoundTarget, uint64, error) {
	entries, err := tarRawEntries(path)
	if err != nil {
		return nil, 0, odinerr.Wrap(odinerr.KindIO, "read tar", err)
	}

	tarName := filepath.Base(path)
	var targets []BoundTarget
	var total uint64

	for _, e := range entries {
		pitEntry, ok := table.FindFlashFilename(e.name)
		if !ok {
			return nil, 0, odinerr.Newf(odinerr.KindFlashNameNotFound, "flash name not found: %s", e.name)
		}
		total += e.size

		archivePath, offset, size := path, e.offset, e.size
		targets = append(targets, BoundTarget{
			Entry: pitEntry,
			Label: fmt.Sprintf("%s/%s", tarName, e.name),
			Open: func() (io.ReadCloser, uint64, error) {
				f, openErr := os.Open(archivePath)
				if openErr != nil {
					return nil, 0, openErr
				}
				if _, seekErr := f.Seek(offset, io.SeekStart); seekErr != nil {
					f.Close()
					return nil, 0, seekErr
				}
				return &limitedReadCloser{io.LimitReader(f, int64(size)), f}, size, nil
			},
		})
	}
	return targets, total, nil
}

type limitedReadCloser struct {
	io.Reader
	closer io.Closer
}

func (l *limitedReadCloser) Close() error { return l.closer.Close() }

// TargetFor derives the wire FileTarget for a bound PIT entry.
// BinaryTypeUnknown is unsupported: it is reported, not silently
// flashed as either processor variant.
func TargetFor(entry *pit.Entry) (proto.FileTarget, error) {
	switch entry.BinaryType {
	case pit.ApplicationProcessor:
		return proto.ApplicationProcessorTarget(uint32(entry.DeviceType), entry.Identifier), nil
	case pit.CommunicationProcessor:
		return proto.CommunicationProcessorTarget(uint32(entry.DeviceType)), nil
	default:
		return proto.FileTarget{}, odinerr.Newf(odinerr.KindUnsupportedBinaryType,
			"unsupported binary type: %d", uint32(entry.BinaryType))
	}
}

// ProgressEvent reports upload progress for one bound target, emitted
// by Upload on a channel the caller drains (a TUI, or a plain logger).
type ProgressEvent struct {
	Label      string
	BytesTotal uint64
	BytesDone  uint64
	Done       bool
}

// Upload drives the session through send_total_size, one file_transfer
// per bound target, and end_session. progress may be nil.
func Upload(t proto.Transport, targets []BoundTarget, totalSize uint64, progress chan<- ProgressEvent) error {
	if progress != nil {
		defer close(progress)
	}

	if err := proto.SendTotalSize(t, totalSize); err != nil {
		return endSessionAfter(t, err)
	}

	for _, bt := range targets {
		target, err := TargetFor(bt.Entry)
		if err != nil {
			return endSessionAfter(t, err)
		}

		r, size, err := bt.Open()
		if err != nil {
			return endSessionAfter(t, odinerr.Wrap(odinerr.KindIO, "open "+bt.Label, err))
		}

		counting := &countingReader{r: r}
		if progress != nil {
			label, total := bt.Label, size
			counting.onRead = func(done uint64) {
				progress <- ProgressEvent{Label: label, BytesTotal: total, BytesDone: done}
			}
			progress <- ProgressEvent{Label: bt.Label, BytesTotal: size}
		}

		err = proto.FileTransfer(t, target, counting, size)
		r.Close()
		if err != nil {
			return endSessionAfter(t, err)
		}
		if progress != nil {
			progress <- ProgressEvent{Label: bt.Label, BytesTotal: size, BytesDone: size, Done: true}
		}
	}

	return proto.EndSession(t)
}

// endSessionAfter closes the session before surfacing a binding or
// transfer error, leaving the device recoverable.
func endSessionAfter(t proto.Transport, cause error) error {
	_ = proto.EndSession(t)
	return cause
}

// countingReader tracks bytes read so far and, if onRead is set, reports
// the running total after every call — one report per chunk read by
// proto.FileTransfer, which is what animates the progress bar during a
// single target's upload instead of only at 0% and 100%.
type countingReader struct {
	r      io.Reader
	n      uint64
	onRead func(done uint64)
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += uint64(n)
	if c.onRead != nil {
		c.onRead(c.n)
	}
	return n, err
}
