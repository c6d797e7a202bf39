package inventory

import (
	"crypto/md5"
	"encoding/hex"
	"io"

	"github.com/spf13/afero"
)

// Fingerprint computes the MD5 digest of the whole stream as lowercase hex.
// MD5 is what folder-listing APIs declare (md5Checksum), so local and remote
// fingerprints are directly comparable.
func Fingerprint(r io.Reader) (string, error) {
	h := md5.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FingerprintBytes computes the fingerprint of an in-memory buffer
func FingerprintBytes(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

// FingerprintFile computes the fingerprint of a file on fs
func FingerprintFile(fs afero.Fs, path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = f.Close()
	}()

	return Fingerprint(f)
}
