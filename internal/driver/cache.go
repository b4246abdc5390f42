package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"typefence/internal/diag"
	"typefence/internal/pycat"
	"typefence/internal/source"
	"typefence/internal/typingonly"
)

// Digest is a SHA-256 value used as a cache key component.
type Digest = [32]byte

// Increment when the payload format changes.
const diskCacheSchemaVersion uint16 = 1

// DiskCache stores per-file check results keyed by content hash and
// settings hash. A file whose content and effective settings are unchanged
// reuses its stored diagnostics without rebinding. Thread-safe.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// diskPayload is the serialized cache entry for one file.
type diskPayload struct {
	Schema      uint16
	Diagnostics []cachedDiagnostic
}

// cachedDiagnostic is a diagnostic flattened for storage. Spans keep only
// byte offsets; the file ID is reattached on load. Fixes are not cached,
// so fix runs bypass the cache.
type cachedDiagnostic struct {
	Severity uint8
	Code     uint16
	Message  string

	Start       uint32
	End         uint32
	ParentStart uint32
	ParentEnd   uint32

	Notes []cachedNote
}

type cachedNote struct {
	Start uint32
	End   uint32
	Msg   string
}

// OpenDiskCache initializes a disk cache under the standard cache location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(base, app)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// OpenDiskCacheAt initializes a disk cache at an explicit directory.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

func cacheKey(contentHash, settingsHash Digest) Digest {
	h := sha256.New()
	h.Write(contentHash[:])
	h.Write(settingsHash[:])
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

func (c *DiskCache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	return filepath.Join(c.dir, "files", hexKey+".mp")
}

// Put serializes and writes the diagnostics for one file.
func (c *DiskCache) Put(contentHash, settingsHash Digest, diags []cachedDiagnostic) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(cacheKey(contentHash, settingsHash))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(f.Name())
	}()

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(&diskPayload{
		Schema:      diskCacheSchemaVersion,
		Diagnostics: diags,
	}); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Atomic replace.
	return os.Rename(f.Name(), p)
}

// Get reads the stored diagnostics for one file, if present and current.
func (c *DiskCache) Get(contentHash, settingsHash Digest) ([]cachedDiagnostic, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	p := c.pathFor(cacheKey(contentHash, settingsHash))
	f, err := os.Open(p)
	if err != nil {
		return nil, false
	}
	defer func() {
		_ = f.Close()
	}()

	var payload diskPayload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return nil, false
	}
	if payload.Schema != diskCacheSchemaVersion {
		return nil, false
	}
	return payload.Diagnostics, true
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}

// hashSettings digests every knob that affects per-file output, so changed
// settings invalidate cache entries without an explicit version bump.
func hashSettings(st *typingonly.Settings, cat *pycat.Options) Digest {
	var out Digest
	data, err := msgpack.Marshal(struct {
		Schema     uint16
		Settings   *typingonly.Settings
		Categorize *pycat.Options
	}{
		Schema:     diskCacheSchemaVersion,
		Settings:   st,
		Categorize: cat,
	})
	if err != nil {
		return out
	}
	return sha256.Sum256(data)
}

func storeDiagnostics(items []diag.Diagnostic) []cachedDiagnostic {
	out := make([]cachedDiagnostic, 0, len(items))
	for _, d := range items {
		cd := cachedDiagnostic{
			Severity:    uint8(d.Severity),
			Code:        uint16(d.Code),
			Message:     d.Message,
			Start:       d.Primary.Start,
			End:         d.Primary.End,
			ParentStart: d.Parent.Start,
			ParentEnd:   d.Parent.End,
		}
		for _, n := range d.Notes {
			cd.Notes = append(cd.Notes, cachedNote{
				Start: n.Span.Start,
				End:   n.Span.End,
				Msg:   n.Msg,
			})
		}
		out = append(out, cd)
	}
	return out
}

func restoreDiagnostic(cd cachedDiagnostic, file source.FileID) diag.Diagnostic {
	d := diag.Diagnostic{
		Severity: diag.Severity(cd.Severity),
		Code:     diag.Code(cd.Code),
		Message:  cd.Message,
		Primary:  source.Span{File: file, Start: cd.Start, End: cd.End},
	}
	if cd.ParentStart != cd.ParentEnd {
		d.Parent = source.Span{File: file, Start: cd.ParentStart, End: cd.ParentEnd}
	}
	for _, n := range cd.Notes {
		d.Notes = append(d.Notes, diag.Note{
			Span: source.Span{File: file, Start: n.Start, End: n.End},
			Msg:  n.Msg,
		})
	}
	return d
}
