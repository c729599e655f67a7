package preprocess

import (
	"bytes"
	"io"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// readSource reads a .gs file and strips a leading UTF-8 byte-order mark if
// present. goboscript source is plain UTF-8, but files saved by Windows
// editors frequently carry a BOM; leaving it in would shift every position
// in the file by three bytes relative to what an editor reports, breaking
// translate_position's (file, offset) pairs. golang.org/x/text's BOM-aware
// decoder is the idiomatic way to strip it without hand-rolling a
// byte-prefix check that only covers UTF-8.
func readSource(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	reader := transform.NewReader(
		bytes.NewReader(raw),
		unicode.BOMOverride(unicode.UTF8.NewDecoder()),
	)
	return io.ReadAll(reader)
}
