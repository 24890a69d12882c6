package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/klauspost/compress/zstd"
	"github.com/krisalay/keshi/expiration"
	"github.com/krisalay/keshi/types"
)

const diskExt = ".entry"

// DiskOptions configures a Disk adapter.
type DiskOptions struct {
	// Path is the directory holding entry files. It is created if missing.
	Path string

	// CompressionLevel is the zstd level (1-22). Zero disables compression.
	CompressionLevel int
}

/*
Disk keeps settled entries as gob records in a directory, one file per key,
optionally zstd-compressed. Values must be gob-encodable; register concrete
types stored behind interfaces with gob.Register.

Pending handles and predicate policies cannot leave the process, so entries
carrying them live in an in-memory overlay. A key is either on disk or in the
overlay, never both.
*/
type Disk struct {
	path string

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	mu      sync.RWMutex
	index   map[string]string // key -> file path
	overlay map[string]*types.Entry
}

// diskRecord is the on-disk form of a settled entry.
type diskRecord struct {
	Key       string
	Value     any
	Deadline  time.Time // zero means no expiration
	CreatedAt time.Time
}

// OpenDisk opens (or creates) a disk adapter and rebuilds its index from the directory.
func OpenDisk(opts DiskOptions) (*Disk, error) {
	if opts.Path == "" {
		return nil, errors.New(errors.CodeInvalidConfig, "disk storage path is empty")
	}
	if err := os.MkdirAll(opts.Path, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabase, "create storage directory")
	}

	d := &Disk{
		path:    opts.Path,
		index:   make(map[string]string),
		overlay: make(map[string]*types.Entry),
	}

	if opts.CompressionLevel > 0 {
		var err error
		d.encoder, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(opts.CompressionLevel)))
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidConfig, "create zstd encoder")
		}
	}

	// The decoder is always available so a directory written with compression
	// can be reopened without it.
	var err error
	d.decoder, err = zstd.NewReader(nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "create zstd decoder")
	}

	if err := d.loadIndex(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Disk) loadIndex() error {
	files, err := os.ReadDir(d.path)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabase, "read storage directory")
	}
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), diskExt) {
			continue
		}
		p := filepath.Join(d.path, f.Name())
		rec, err := d.readFile(p)
		if err != nil {
			// Unreadable records are dropped, like a cache miss.
			_ = os.Remove(p)
			continue
		}
		d.index[rec.Key] = p
	}
	return nil
}

func (d *Disk) filePath(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(d.path, hex.EncodeToString(sum[:16])+diskExt)
}

func (d *Disk) Get(_ context.Context, key string) (*types.Entry, bool, error) {
	d.mu.RLock()
	if ent, ok := d.overlay[key]; ok {
		d.mu.RUnlock()
		return ent, true, nil
	}
	p, ok := d.index[key]
	d.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	rec, err := d.readFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			d.forget(key, p)
			return nil, false, nil
		}
		// Corrupted record: drop it and report a miss.
		d.forget(key, p)
		_ = os.Remove(p)
		return nil, false, nil
	}

	ent := &types.Entry{Key: rec.Key, Value: rec.Value, CreatedAt: rec.CreatedAt, Policy: expiration.Never{}}
	if !rec.Deadline.IsZero() {
		ent.Policy = expiration.Deadline{At: rec.Deadline}
	}
	return ent, true, nil
}

func (d *Disk) forget(key, p string) {
	d.mu.Lock()
	if d.index[key] == p {
		delete(d.index, key)
	}
	d.mu.Unlock()
}

func (d *Disk) Set(_ context.Context, key string, ent *types.Entry) error {
	if ent.Pending() || !expiration.Persistable(ent.Policy) {
		d.mu.Lock()
		defer d.mu.Unlock()
		if p, ok := d.index[key]; ok {
			delete(d.index, key)
			_ = os.Remove(p)
		}
		d.overlay[key] = ent
		return nil
	}

	rec := diskRecord{Key: key, Value: ent.Value, CreatedAt: ent.CreatedAt}
	switch p := ent.Policy.(type) {
	case expiration.Deadline:
		rec.Deadline = p.At
	case *expiration.Deadline:
		rec.Deadline = p.At
	}

	data, err := d.encode(rec)
	if err != nil {
		return err
	}

	p := d.filePath(key)

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := writeFile(p, data); err != nil {
		return errors.Wrap(err, errors.CodeDatabase, "write entry file")
	}
	delete(d.overlay, key)
	d.index[key] = p
	return nil
}

func (d *Disk) Keys(context.Context) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	keys := make([]string, 0, len(d.index)+len(d.overlay))
	for k := range d.index {
		keys = append(keys, k)
	}
	for k := range d.overlay {
		keys = append(keys, k)
	}
	return keys, nil
}

func (d *Disk) Delete(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.overlay, key)
	p, ok := d.index[key]
	if !ok {
		return nil
	}
	delete(d.index, key)
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.CodeDatabase, "remove entry file")
	}
	return nil
}

func (d *Disk) Clear(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var errs []error
	for _, p := range d.index {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	d.index = make(map[string]string)
	d.overlay = make(map[string]*types.Entry)
	if len(errs) > 0 {
		return errors.Wrapf(stderrors.Join(errs...), errors.CodeDatabase, "clear %d entry files", len(errs))
	}
	return nil
}

// Close releases the compression resources. Entries stay on disk.
func (d *Disk) Close() error {
	if d.encoder != nil {
		if err := d.encoder.Close(); err != nil {
			return errors.Wrap(err, errors.CodeInternal, "close zstd encoder")
		}
	}
	d.decoder.Close()
	return nil
}

// File layout: one marker byte ('z' compressed, 'r' raw) followed by the gob record.
func (d *Disk) encode(rec diskRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&rec); err != nil {
		return nil, errors.Wrapf(err, errors.CodeInvalidInput, "encode entry %q", rec.Key)
	}
	if d.encoder != nil {
		return d.encoder.EncodeAll(buf.Bytes(), []byte{'z'}), nil
	}
	return append([]byte{'r'}, buf.Bytes()...), nil
}

func (d *Disk) readFile(p string) (diskRecord, error) {
	var rec diskRecord
	data, err := os.ReadFile(p)
	if err != nil {
		return rec, err
	}
	if len(data) == 0 {
		return rec, errors.New(errors.CodeDatabase, "empty entry file")
	}

	body := data[1:]
	switch data[0] {
	case 'z':
		body, err = d.decoder.DecodeAll(body, nil)
		if err != nil {
			return rec, errors.Wrap(err, errors.CodeDatabase, "decompress entry")
		}
	case 'r':
	default:
		return rec, errors.New(errors.CodeDatabase, "unknown entry format")
	}

	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(&rec); err != nil {
		return rec, errors.Wrap(err, errors.CodeDatabase, "decode entry")
	}
	return rec, nil
}

// writeFile writes through a temporary file so readers never see a partial record.
func writeFile(p string, data []byte) error {
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}
