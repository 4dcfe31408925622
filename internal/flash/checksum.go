package flash

import (
	"crypto/md5"
	"encoding/hex"
	"io"
)

// md5HexPrefix hashes the leading n bytes of r and returns the
// lowercase hex digest.
func md5HexPrefix(r io.Reader, n int64) (string, error) {
	h := md5.New()
	if _, err := io.CopyN(h, r, n); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
