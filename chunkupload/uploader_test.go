package chunkupload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/aaronsegura/ncfile/chunkstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDavClient keeps the remote tree in memory and assembles staged chunks
// on MOVE of the session's .file resource, the way the server would.
type fakeDavClient struct {
	user        string
	collections map[string]bool
	chunks      map[string]map[string][]byte // staging dir -> chunk name -> data
	files       map[string][]byte
	calls       []string
	failPutAt   int // fail the n-th Put (1-based), 0 disables
	failMkcol   bool
	failMove    bool
	putCount    int
}

func newFakeDavClient() *fakeDavClient {
	return &fakeDavClient{
		user:        "alice",
		collections: make(map[string]bool),
		chunks:      make(map[string]map[string][]byte),
		files:       make(map[string][]byte),
	}
}

func (f *fakeDavClient) User() string { return f.user }

func (f *fakeDavClient) Mkcol(ctx context.Context, p string) error {
	f.calls = append(f.calls, "MKCOL "+p)
	if f.failMkcol {
		return fmt.Errorf("injected mkcol failure")
	}
	f.collections[p] = true
	f.chunks[p] = make(map[string][]byte)
	return nil
}

func (f *fakeDavClient) Put(ctx context.Context, p string, r io.Reader, size int64) error {
	f.calls = append(f.calls, "PUT "+p)
	f.putCount++
	if f.failPutAt > 0 && f.putCount == f.failPutAt {
		return fmt.Errorf("injected put failure")
	}
	dir, name := path.Split(p)
	dir = strings.TrimSuffix(dir, "/")
	if !f.collections[dir] {
		return fmt.Errorf("no such collection:%s", dir)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.chunks[dir][name] = data
	return nil
}

func (f *fakeDavClient) Move(ctx context.Context, src, dst string, overwrite bool) error {
	f.calls = append(f.calls, fmt.Sprintf("MOVE %s -> %s", src, dst))
	if f.failMove {
		return fmt.Errorf("injected move failure")
	}
	dir, name := path.Split(src)
	dir = strings.TrimSuffix(dir, "/")
	if name != ".file" {
		return fmt.Errorf("unexpected move source:%s", src)
	}
	staged, ok := f.chunks[dir]
	if !ok {
		return fmt.Errorf("no such collection:%s", dir)
	}
	names := make([]string, 0, len(staged))
	for n := range staged {
		names = append(names, n)
	}
	sort.Strings(names)
	var assembled []byte
	for _, n := range names {
		assembled = append(assembled, staged[n]...)
	}
	f.files[dst] = assembled
	delete(f.chunks, dir)
	delete(f.collections, dir)
	return nil
}

func (f *fakeDavClient) Copy(ctx context.Context, src, dst string, overwrite bool) error {
	return fmt.Errorf("not implemented")
}

func (f *fakeDavClient) Delete(ctx context.Context, p string) error {
	return fmt.Errorf("not implemented")
}

func (f *fakeDavClient) Get(ctx context.Context, p string) (io.ReadCloser, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeDavClient) networkCalls() int { return len(f.calls) }

func writeLocalFile(t *testing.T, size int) string {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte('a' + i%26)
	}
	p := filepath.Join(t.TempDir(), "src.bin")
	require.NoError(t, os.WriteFile(p, data, 0644))
	return p
}

func newTestUploader(t *testing.T, dav *fakeDavClient) (*Uploader, string) {
	t.Helper()
	root := t.TempDir()
	u, err := New(WithDavClient(dav), WithStagingRoot(root))
	require.NoError(t, err)
	return u, root
}

func stagingDirs(t *testing.T, root string) []string {
	t.Helper()
	ents, err := os.ReadDir(root)
	require.NoError(t, err)
	var dirs []string
	for _, e := range ents {
		dirs = append(dirs, e.Name())
	}
	return dirs
}

func TestUploadTenBytesInFours(t *testing.T) {
	dav := newFakeDavClient()
	u, root := newTestUploader(t, dav)
	local := writeLocalFile(t, 10)
	require.NoError(t, u.Upload(context.Background(), local, "/dst/big.bin", 4))

	require.Len(t, dav.calls, 5)
	assert.True(t, strings.HasPrefix(dav.calls[0], "MKCOL /uploads/alice/"))
	sid := strings.TrimPrefix(dav.calls[0], "MKCOL /uploads/alice/")
	assert.Equal(t, "PUT /uploads/alice/"+sid+"/00-04", dav.calls[1])
	assert.Equal(t, "PUT /uploads/alice/"+sid+"/04-08", dav.calls[2])
	assert.Equal(t, "PUT /uploads/alice/"+sid+"/08-10", dav.calls[3])
	assert.Equal(t, fmt.Sprintf("MOVE /uploads/alice/%s/.file -> /files/alice/dst/big.bin", sid), dav.calls[4])

	want, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, want, dav.files["/files/alice/dst/big.bin"])
	assert.Empty(t, stagingDirs(t, root))
}

func TestUploadZeroByteFile(t *testing.T) {
	dav := newFakeDavClient()
	u, root := newTestUploader(t, dav)
	local := writeLocalFile(t, 0)
	require.NoError(t, u.Upload(context.Background(), local, "/dst/empty.bin", 4))

	require.Len(t, dav.calls, 2)
	assert.True(t, strings.HasPrefix(dav.calls[0], "MKCOL "))
	assert.True(t, strings.HasPrefix(dav.calls[1], "MOVE "))
	assert.Equal(t, []byte(nil), dav.files["/files/alice/dst/empty.bin"])
	assert.Empty(t, stagingDirs(t, root))
}

func TestUploadExactMultipleOfChunkSize(t *testing.T) {
	dav := newFakeDavClient()
	u, _ := newTestUploader(t, dav)
	local := writeLocalFile(t, 8)
	require.NoError(t, u.Upload(context.Background(), local, "/dst/big.bin", 4))

	// two full chunks, no empty trailing chunk
	var puts []string
	for _, c := range dav.calls {
		if strings.HasPrefix(c, "PUT ") {
			puts = append(puts, c)
		}
	}
	require.Len(t, puts, 2)
	want, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, want, dav.files["/files/alice/dst/big.bin"])
}

func TestUploadFailureLeavesResumableState(t *testing.T) {
	dav := newFakeDavClient()
	u, root := newTestUploader(t, dav)
	local := writeLocalFile(t, 10)
	dav.failPutAt = 2 // second chunk upload fails
	err := u.Upload(context.Background(), local, "/dst/big.bin", 4)
	require.Error(t, err)

	dirs := stagingDirs(t, root)
	require.Len(t, dirs, 1)
	ents, err := os.ReadDir(filepath.Join(root, dirs[0]))
	require.NoError(t, err)
	var names []string
	for _, e := range ents {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	assert.Equal(t, []string{"04-08", "metadata.json"}, names)
}

func TestResumeReUploadsPendingChunk(t *testing.T) {
	dav := newFakeDavClient()
	u, root := newTestUploader(t, dav)
	local := writeLocalFile(t, 10)
	dav.failPutAt = 2
	require.Error(t, u.Upload(context.Background(), local, "/dst/big.bin", 4))

	dav.failPutAt = 0
	before := dav.networkCalls()
	require.NoError(t, u.Upload(context.Background(), local, "/dst/big.bin", 4))

	// resume: re-PUT of 04-08, PUT of 08-10, MOVE; no second MKCOL
	resumed := dav.calls[before:]
	require.Len(t, resumed, 3)
	assert.Contains(t, resumed[0], "/04-08")
	assert.Contains(t, resumed[1], "/08-10")
	assert.True(t, strings.HasPrefix(resumed[2], "MOVE "))

	want, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, want, dav.files["/files/alice/dst/big.bin"])
	assert.Empty(t, stagingDirs(t, root))
}

func TestResumeAfterConfirmedChunksWithoutPending(t *testing.T) {
	// staging dir holds only metadata.json: every staged chunk was confirmed
	// but the attempt never finished. The upload restarts from byte zero into
	// the same session, overwriting identical ranges.
	dav := newFakeDavClient()
	u, _ := newTestUploader(t, dav)
	local := writeLocalFile(t, 10)
	dav.failMove = true
	require.Error(t, u.Upload(context.Background(), local, "/dst/big.bin", 4))
	firstSid := strings.TrimPrefix(dav.calls[0], "MKCOL /uploads/alice/")

	dav.failMove = false
	before := dav.networkCalls()
	require.NoError(t, u.Upload(context.Background(), local, "/dst/big.bin", 4))
	resumed := dav.calls[before:]
	// same session, no MKCOL, chunks re-sent from zero, then assembled
	require.Len(t, resumed, 4)
	for _, c := range resumed[:3] {
		assert.Contains(t, c, firstSid)
		assert.True(t, strings.HasPrefix(c, "PUT "))
	}
	want, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, want, dav.files["/files/alice/dst/big.bin"])
}

func TestCrashMidChunkProducesIdenticalFile(t *testing.T) {
	// simulate a crash after the local chunk write but before remote
	// confirmation: pre-seed the staging dir the way an interrupted run
	// leaves it.
	dav := newFakeDavClient()
	u, root := newTestUploader(t, dav)
	local := writeLocalFile(t, 10)
	data, err := os.ReadFile(local)
	require.NoError(t, err)

	st := chunkstore.New(root, local, "/dst/big.bin")
	dec, err := st.Resolve(context.Background())
	require.NoError(t, err)
	require.NoError(t, dav.Mkcol(context.Background(), "/uploads/alice/"+dec.SessionID))
	// first chunk confirmed remotely, second written locally only
	require.NoError(t, dav.Put(context.Background(), "/uploads/alice/"+dec.SessionID+"/00-04", strings.NewReader(string(data[:4])), 4))
	require.NoError(t, st.WriteChunk("04-08", data[4:8]))

	require.NoError(t, u.Upload(context.Background(), local, "/dst/big.bin", 4))
	assert.Equal(t, data, dav.files["/files/alice/dst/big.bin"])
	assert.Empty(t, stagingDirs(t, root))
}

func TestMkcolFailureKeepsUploadRetryable(t *testing.T) {
	// a rejected staging collection leaves nothing behind, the next
	// invocation takes the fresh path again and finishes once the server
	// is back
	dav := newFakeDavClient()
	u, root := newTestUploader(t, dav)
	local := writeLocalFile(t, 10)
	dav.failMkcol = true
	require.Error(t, u.Upload(context.Background(), local, "/dst/big.bin", 4))
	assert.Empty(t, stagingDirs(t, root))
	require.Len(t, dav.calls, 1)

	dav.failMkcol = false
	require.NoError(t, u.Upload(context.Background(), local, "/dst/big.bin", 4))
	resumed := dav.calls[1:]
	require.Len(t, resumed, 5)
	assert.True(t, strings.HasPrefix(resumed[0], "MKCOL /uploads/alice/"))
	want, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, want, dav.files["/files/alice/dst/big.bin"])
	assert.Empty(t, stagingDirs(t, root))
}

func TestAmbiguousStateMakesNoNetworkCalls(t *testing.T) {
	dav := newFakeDavClient()
	u, root := newTestUploader(t, dav)
	local := writeLocalFile(t, 10)

	st := chunkstore.New(root, local, "/dst/big.bin")
	_, err := st.Resolve(context.Background())
	require.NoError(t, err)
	require.NoError(t, st.WriteChunk("00-04", []byte("aaaa")))
	require.NoError(t, st.WriteChunk("04-08", []byte("bbbb")))

	err = u.Upload(context.Background(), local, "/dst/big.bin", 4)
	assert.ErrorIs(t, err, chunkstore.ErrAmbiguousState)
	assert.Zero(t, dav.networkCalls())
}

func TestUploadBadArgs(t *testing.T) {
	dav := newFakeDavClient()
	u, _ := newTestUploader(t, dav)
	local := writeLocalFile(t, 10)
	assert.Error(t, u.Upload(context.Background(), local, "/dst/big.bin", 0))
	assert.Error(t, u.Upload(context.Background(), local, "", 4))
	assert.Error(t, u.Upload(context.Background(), filepath.Join(t.TempDir(), "missing"), "/dst/big.bin", 4))
	assert.Zero(t, dav.networkCalls())
}

func TestNewNeedsDavClient(t *testing.T) {
	_, err := New()
	assert.Error(t, err)
}
