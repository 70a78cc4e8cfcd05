package chunkstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const metadataFileName = "metadata.json"

// ErrAmbiguousState means the staging directory holds more than one pending
// chunk. The protocol writes chunks serially, so this never happens on its
// own; the directory needs manual cleanup before the upload can continue.
var ErrAmbiguousState = errors.New("chunkstore: ambiguous state, more than one pending chunk")

type DecisionKind int

const (
	DecisionFresh DecisionKind = iota
	DecisionResume
)

// Decision is the outcome of resolving a staging directory: either a fresh
// upload with a newly minted session id, or a resume with the session id
// recovered from metadata. Pending is the filename of the one chunk whose
// remote upload was never confirmed, empty when there is none.
type Decision struct {
	Kind      DecisionKind
	SessionID string
	Offset    int64
	Pending   string
}

// IStagingStore owns the local staging directory of one (local, remote) pair.
type IStagingStore interface {
	Resolve(ctx context.Context) (*Decision, error)
	WriteChunk(name string, data []byte) error
	ReadChunk(name string) ([]byte, error)
	RemoveChunk(name string) error
	Purge() error
	Dir() string
}

type metadata struct {
	UUID string `json:"uuid"`
}

type defaultStagingStore struct {
	dir string
}

// DefaultRoot returns the per-user staging root under the platform cache dir.
func DefaultRoot() (string, error) {
	cache, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve user cache dir failed, err:%w", err)
	}
	return filepath.Join(cache, "ncfile", "chunked_uploads"), nil
}

func escapePath(p string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(p)
}

// New derives the staging directory for one (localPath, remotePath) pair
// under root. The derivation is deterministic, re-invocations for the same
// pair land on the same directory.
func New(root string, localPath string, remotePath string) IStagingStore {
	dir := filepath.Join(root, escapePath(localPath)+"-"+escapePath(remotePath))
	return &defaultStagingStore{dir: dir}
}

func (s *defaultStagingStore) Dir() string {
	return s.dir
}

func (s *defaultStagingStore) Resolve(ctx context.Context) (*Decision, error) {
	if _, err := os.Stat(s.dir); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat staging dir failed, err:%w", err)
		}
		return s.initFresh(ctx)
	}
	return s.scanResume(ctx)
}

func (s *defaultStagingStore) initFresh(ctx context.Context) (*Decision, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("create staging dir failed, err:%w", err)
	}
	id := uuid.NewString()
	raw, err := json.Marshal(&metadata{UUID: id})
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(s.dir, metadataFileName), raw, 0644); err != nil {
		return nil, fmt.Errorf("write metadata failed, err:%w", err)
	}
	logutil.GetLogger(ctx).Debug("staging dir created", zap.String("dir", s.dir), zap.String("session_id", id))
	return &Decision{Kind: DecisionFresh, SessionID: id}, nil
}

func (s *defaultStagingStore) scanResume(ctx context.Context) (*Decision, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, metadataFileName))
	if err != nil {
		return nil, fmt.Errorf("read metadata failed, err:%w", err)
	}
	md := &metadata{}
	if err := json.Unmarshal(raw, md); err != nil {
		return nil, fmt.Errorf("decode metadata failed, err:%w", err)
	}
	if len(md.UUID) == 0 {
		return nil, fmt.Errorf("no session id in metadata")
	}
	ents, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list staging dir failed, err:%w", err)
	}
	dec := &Decision{Kind: DecisionResume, SessionID: md.UUID}
	for _, ent := range ents {
		_, end, ok := ParseChunkName(ent.Name())
		if !ok {
			continue
		}
		if len(dec.Pending) != 0 {
			return nil, ErrAmbiguousState
		}
		dec.Pending = ent.Name()
		dec.Offset = end
	}
	logutil.GetLogger(ctx).Debug("staging dir resumed", zap.String("dir", s.dir),
		zap.String("session_id", dec.SessionID), zap.String("pending", dec.Pending), zap.Int64("offset", dec.Offset))
	return dec, nil
}

func (s *defaultStagingStore) WriteChunk(name string, data []byte) error {
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0644); err != nil {
		return fmt.Errorf("write chunk failed, name:%s, err:%w", name, err)
	}
	return nil
}

func (s *defaultStagingStore) ReadChunk(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("read chunk failed, name:%s, err:%w", name, err)
	}
	return data, nil
}

func (s *defaultStagingStore) RemoveChunk(name string) error {
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("remove chunk failed, name:%s, err:%w", name, err)
	}
	return nil
}

func (s *defaultStagingStore) Purge() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("purge staging dir failed, err:%w", err)
	}
	return nil
}
