package input

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/GabrielNunesIT/go-libs/logger"
	"github.com/GabrielNunesIT/pdd/internal/config"
)

// DefaultPollInterval re-checks a followed file when no event arrives.
var DefaultPollInterval = 250 * time.Millisecond

// Follower reads a file that another process is still appending to.
//
// At end of file it waits for a write event (or the poll interval) instead of
// returning io.EOF. It returns io.EOF only once no data arrived for the idle
// timeout, and the context error once the context is cancelled. A truncated
// file is read again from the start; a file replaced under the same path is
// reopened.
type Follower struct {
	ctx     context.Context
	path    string
	offset  int64
	rotated bool

	// mu guards file against Close racing a reopen.
	mu     sync.Mutex
	file   *os.File
	closed bool

	watcher  *fsnotify.Watcher
	idle     time.Duration
	poll     time.Duration
	lastData time.Time

	logger logger.ILogger
}

// NewFollower takes ownership of f. Without inotify support it falls back to
// polling.
func NewFollower(ctx context.Context, f *os.File, cfg config.InputConfig, log logger.ILogger) *Follower {
	fl := &Follower{
		ctx:      ctx,
		path:     filepath.Clean(f.Name()),
		file:     f,
		idle:     cfg.FollowIdleTimeout,
		poll:     cfg.PollInterval,
		lastData: time.Now(),
		logger:   log,
	}
	if fl.poll <= 0 {
		fl.poll = DefaultPollInterval
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		fl.logger.Warningf("file events unavailable, polling: path=%s, error=%v", fl.path, err)
		return fl
	}
	// Watch the directory so a replaced file is noticed too.
	if err := watcher.Add(filepath.Dir(fl.path)); err != nil {
		watcher.Close()
		fl.logger.Warningf("watching %s failed, polling: %v", fl.path, err)
		return fl
	}
	fl.watcher = watcher
	return fl
}

// Read reads the next available bytes, waiting for more at end of file.
func (f *Follower) Read(p []byte) (int, error) {
	for {
		n, err := f.file.Read(p)
		if n > 0 {
			f.offset += int64(n)
			f.lastData = time.Now()
			return n, nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}

		// The old handle is drained to EOF before switching to the new file.
		if f.rotated && f.reopen() {
			f.rotated = false
			continue
		}

		truncated, err := f.rewindIfTruncated()
		if err != nil {
			return 0, err
		}
		if truncated {
			continue
		}

		if err := f.wait(); err != nil {
			return 0, err
		}
	}
}

// Close stops watching and closes the file.
func (f *Follower) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	if f.watcher != nil {
		f.watcher.Close()
	}
	return f.file.Close()
}

// rewindIfTruncated restarts from offset zero when the file shrank below
// what was already read.
func (f *Follower) rewindIfTruncated() (bool, error) {
	info, err := f.file.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() >= f.offset {
		return false, nil
	}

	f.logger.Warningf("input truncated, reading from start: path=%s, offset=%d, size=%d", f.path, f.offset, info.Size())
	if _, err := f.file.Seek(0, io.SeekStart); err != nil {
		return false, err
	}
	f.offset = 0
	return true, nil
}

// wait blocks until there may be more data. It returns io.EOF once the idle
// timeout elapsed since the last data.
func (f *Follower) wait() error {
	var idle <-chan time.Time
	if f.idle > 0 {
		remaining := f.idle - time.Since(f.lastData)
		if remaining <= 0 {
			f.logger.Debugf("no new data for %v, ending input: path=%s", f.idle, f.path)
			return io.EOF
		}
		timer := time.NewTimer(remaining)
		defer timer.Stop()
		idle = timer.C
	}

	poll := time.NewTimer(f.poll)
	defer poll.Stop()

	var events <-chan fsnotify.Event
	var watchErrs <-chan error
	if f.watcher != nil {
		events = f.watcher.Events
		watchErrs = f.watcher.Errors
	}

	for {
		select {
		case <-f.ctx.Done():
			return f.ctx.Err()

		case <-idle:
			f.logger.Debugf("no new data for %v, ending input: path=%s", f.idle, f.path)
			return io.EOF

		case <-poll.C:
			return nil

		case event, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			if event.Has(fsnotify.Create) {
				f.rotated = true
				return nil
			}
			if event.Has(fsnotify.Write) {
				return nil
			}

		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			f.logger.Warningf("fsnotify error: path=%s, error=%v", f.path, err)
		}
	}
}

// reopen switches to a file recreated under the same path (rotation).
// On failure the current handle is kept and the next poll retries.
func (f *Follower) reopen() bool {
	next, err := os.Open(f.path)
	if err != nil {
		f.logger.Debugf("reopen after rotation failed: path=%s, error=%v", f.path, err)
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		next.Close()
		return false
	}
	f.file.Close()
	f.file = next
	f.offset = 0
	f.logger.Infof("input replaced, reading new file: path=%s", f.path)
	return true
}
