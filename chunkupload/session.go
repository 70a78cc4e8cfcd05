package chunkupload

import (
	"path"
	"strings"

	"github.com/aaronsegura/ncfile/chunkstore"
)

// UploadSession is the full state of one chunked upload attempt. It is a
// plain value threaded through the protocol, nothing in it is shared between
// uploads, so different (local, remote) pairs can run concurrently.
type UploadSession struct {
	LocalPath  string
	RemotePath string
	ChunkSize  int64
	SessionID  string
	Position   int64
	TotalSize  int64
}

// remoteStagingDir is the server side staging collection of this attempt.
func (s *UploadSession) remoteStagingDir(user string) string {
	return path.Join("/uploads", user, s.SessionID)
}

func (s *UploadSession) remoteChunkPath(user string, name string) string {
	return path.Join(s.remoteStagingDir(user), name)
}

// remoteAssembledPath is the virtual resource the server assembles the
// sorted chunks into.
func (s *UploadSession) remoteAssembledPath(user string) string {
	return path.Join(s.remoteStagingDir(user), ".file")
}

func (s *UploadSession) remoteTargetPath(user string) string {
	return path.Join("/files", user, strings.Trim(s.RemotePath, "/"))
}

func (s *UploadSession) chunkName(start, end int64) string {
	return chunkstore.FormatChunkName(start, end, s.TotalSize)
}
