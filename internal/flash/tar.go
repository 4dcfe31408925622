package flash

import (
	"archive/tar"
	"io"
	"os"
)

// tarEntry is one regular-file member of a tar archive, recorded by
// its raw byte offset and declared size so Bind can stream it straight
// from the archive without extracting to a temp file.
type tarEntry struct {
	name   string
	offset int64
	size   uint64
}

// tarRawEntries walks path with tar.Reader, collecting the raw offset
// and size of every regular-file member. The archive itself is never
// extracted: each entry is left for r.Next() to skip on the following
// iteration, which accounts for block padding the way a manual seek on
// the underlying file would not.
func tarRawEntries(path string) ([]tarEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := tar.NewReader(f)
	var entries []tarEntry
	for {
		hdr, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		offset, err := f.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, err
		}
		entries = append(entries, tarEntry{
			name:   hdr.Name,
			offset: offset,
			size:   uint64(hdr.Size),
		})
	}
	return entries, nil
}
