package sb3

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goboscript/goboc/internal/ast"
	"github.com/goboscript/goboc/internal/cache"
	"github.com/goboscript/goboc/internal/diag"
)

// AssetRegistry implements spec 4.2: register memoises a costume path's MD5
// hash (consulting the cross-build cache first), flush copies each unique
// hash's bytes into the archive exactly once.
//
// MD5 here is the Scratch asset-id format, not a cache key; it stays on
// crypto/md5 deliberately (spec section 9 design note, restated in
// SPEC_FULL.md's build-cache entry) because the asset id algorithm is
// externally mandated by the .sb3 format, not a choice this compiler makes.
type AssetRegistry struct {
	cache  *cache.Cache
	hashes map[string]string // path -> hex md5
	order  []string          // unique hashes, in first-seen order
	byHash map[string]string // hash -> path of the file that produced it
}

func NewAssetRegistry(c *cache.Cache) *AssetRegistry {
	return &AssetRegistry{cache: c, hashes: map[string]string{}, byHash: map[string]string{}}
}

// Register returns path's hex MD5 hash, computing and memoising it on first
// sight. A missing file reports IOError against span and returns "".
func (r *AssetRegistry) Register(sink *diag.Sink, span ast.Span, path string) string {
	if h, ok := r.hashes[path]; ok {
		return h
	}
	h, err := r.hash(path)
	if err != nil {
		sink.Report(diag.Diagnostic{Kind: diag.IOError, Span: span, Err: err})
		r.hashes[path] = ""
		return ""
	}
	r.hashes[path] = h
	if _, seen := r.byHash[h]; !seen {
		r.byHash[h] = path
		r.order = append(r.order, h)
	}
	return h
}

func (r *AssetRegistry) hash(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if r.cache != nil {
		if h, ok := r.cache.Lookup(path, info.ModTime().UnixNano(), info.Size()); ok {
			return h, nil
		}
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	sum := md5.New()
	if _, err := io.Copy(sum, f); err != nil {
		return "", err
	}
	h := hex.EncodeToString(sum.Sum(nil))
	if r.cache != nil {
		r.cache.Store(path, info.ModTime().UnixNano(), info.Size(), h)
	}
	return h, nil
}

// Ext returns the asset filename's extension (the characters after the last
// dot), matching spec 4.2's "ext is derived from the last dot of the
// original path".
func Ext(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimPrefix(ext, ".")
}

// Flush copies each uniquely-hashed file's bytes into the archive under
// "{hash}.{ext}", via the supplied writer-opening callback (kept generic so
// this package does not need to import archive/zip directly).
func (r *AssetRegistry) Flush(openEntry func(name string) (io.Writer, error)) error {
	for _, h := range r.order {
		path := r.byHash[h]
		name := h + "." + Ext(path)
		w, err := openEntry(name)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		_, copyErr := io.Copy(w, f)
		f.Close()
		if copyErr != nil {
			return copyErr
		}
	}
	return nil
}
