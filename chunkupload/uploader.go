package chunkupload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aaronsegura/ncfile/chunkstore"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Uploader runs the chunked upload protocol: stage each chunk on local disk,
// upload it to the remote staging collection, drop the local copy once the
// server confirmed it, finally ask the server to assemble the chunks into
// the target file. Interrupted uploads resume from the last confirmed byte.
type Uploader struct {
	c *config
}

func New(opts ...Option) (*Uploader, error) {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	if c.Dav == nil {
		return nil, fmt.Errorf("no dav client found")
	}
	if len(c.StagingRoot) == 0 {
		root, err := chunkstore.DefaultRoot()
		if err != nil {
			return nil, err
		}
		c.StagingRoot = root
	}
	return &Uploader{c: c}, nil
}

// Upload transfers localPath to remotePath in chunkSize byte pieces. A failed
// call leaves resumable state behind, invoking it again with the same
// arguments continues where the previous attempt stopped. There is no retry
// inside a single call.
func (u *Uploader) Upload(ctx context.Context, localPath string, remotePath string, chunkSize int64) error {
	if chunkSize <= 0 {
		return fmt.Errorf("invalid chunk size:%d", chunkSize)
	}
	if len(remotePath) == 0 {
		return fmt.Errorf("no remote path found")
	}
	info, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("stat local file failed, err:%w", err)
	}
	store := chunkstore.New(u.c.StagingRoot, localPath, remotePath)
	dec, err := store.Resolve(ctx)
	if err != nil {
		return err
	}
	sess := &UploadSession{
		LocalPath:  localPath,
		RemotePath: remotePath,
		ChunkSize:  chunkSize,
		SessionID:  dec.SessionID,
		Position:   dec.Offset,
		TotalSize:  info.Size(),
	}
	logutil.GetLogger(ctx).Debug("start chunked upload",
		zap.String("local", localPath), zap.String("remote", remotePath),
		zap.String("session_id", sess.SessionID), zap.Int64("total_size", sess.TotalSize),
		zap.Int64("position", sess.Position))
	if err := u.prepare(ctx, store, sess, dec); err != nil {
		return err
	}
	if err := u.uploadChunks(ctx, store, sess); err != nil {
		return err
	}
	if err := u.assemble(ctx, sess); err != nil {
		return err
	}
	if err := store.Purge(); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("chunked upload finished",
		zap.String("remote", remotePath), zap.Int64("total_size", sess.TotalSize))
	return nil
}

// prepare establishes the remote side of the session. Fresh uploads create
// the staging collection; resumed uploads re-send the one chunk whose remote
// confirmation is unknown.
func (u *Uploader) prepare(ctx context.Context, store chunkstore.IStagingStore, sess *UploadSession, dec *chunkstore.Decision) error {
	if dec.Kind == chunkstore.DecisionFresh {
		if err := u.c.Dav.Mkcol(ctx, sess.remoteStagingDir(u.c.Dav.User())); err != nil {
			// no byte confirmed yet and the remote collection does not
			// exist, keeping the staging dir would pin every later
			// invocation to a session the server never accepted
			if perr := store.Purge(); perr != nil {
				logutil.GetLogger(ctx).Error("purge staging dir after mkcol failure failed",
					zap.Error(perr), zap.String("session_id", sess.SessionID))
			}
			return fmt.Errorf("create staging collection failed, err:%w", err)
		}
		return nil
	}
	if len(dec.Pending) == 0 {
		return nil
	}
	data, err := store.ReadChunk(dec.Pending)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Debug("re-upload pending chunk",
		zap.String("chunk", dec.Pending), zap.String("session_id", sess.SessionID))
	if err := u.c.Dav.Put(ctx, sess.remoteChunkPath(u.c.Dav.User(), dec.Pending), bytes.NewReader(data), int64(len(data))); err != nil {
		return fmt.Errorf("upload pending chunk failed, err:%w", err)
	}
	return store.RemoveChunk(dec.Pending)
}

func (u *Uploader) uploadChunks(ctx context.Context, store chunkstore.IStagingStore, sess *UploadSession) error {
	f, err := os.Open(sess.LocalPath)
	if err != nil {
		return fmt.Errorf("open local file failed, err:%w", err)
	}
	defer f.Close()
	if _, err := f.Seek(sess.Position, io.SeekStart); err != nil {
		return fmt.Errorf("seek to position failed, pos:%d, err:%w", sess.Position, err)
	}
	buf := make([]byte, sess.ChunkSize)
	for {
		n, err := io.ReadFull(f, buf)
		if err == io.EOF {
			return nil
		}
		if err != nil && err != io.ErrUnexpectedEOF {
			return fmt.Errorf("read local file failed, err:%w", err)
		}
		last := err == io.ErrUnexpectedEOF
		if err := u.uploadOneChunk(ctx, store, sess, buf[:n]); err != nil {
			return err
		}
		if last {
			return nil
		}
	}
}

func (u *Uploader) uploadOneChunk(ctx context.Context, store chunkstore.IStagingStore, sess *UploadSession, data []byte) error {
	name := sess.chunkName(sess.Position, sess.Position+int64(len(data)))
	// local write first, the remote upload is only confirmed by removing it
	if err := store.WriteChunk(name, data); err != nil {
		return err
	}
	if err := u.c.Dav.Put(ctx, sess.remoteChunkPath(u.c.Dav.User(), name), bytes.NewReader(data), int64(len(data))); err != nil {
		return fmt.Errorf("upload chunk failed, name:%s, err:%w", name, err)
	}
	if err := store.RemoveChunk(name); err != nil {
		return err
	}
	sess.Position += int64(len(data))
	return nil
}

// assemble moves the server assembled virtual file onto the target path. The
// server tears the staging collection down as part of the move.
func (u *Uploader) assemble(ctx context.Context, sess *UploadSession) error {
	user := u.c.Dav.User()
	if err := u.c.Dav.Move(ctx, sess.remoteAssembledPath(user), sess.remoteTargetPath(user), true); err != nil {
		return fmt.Errorf("assemble chunks failed, err:%w", err)
	}
	return nil
}
