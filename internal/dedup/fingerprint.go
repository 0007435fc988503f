package dedup

import (
	"context"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/fenilsonani/fskit/internal/logging"
	"github.com/fenilsonani/fskit/internal/metrics"
	"github.com/fenilsonani/fskit/internal/progress"
	"github.com/fenilsonani/fskit/pkg/utils"
)

// Bucket holds every path whose content hashed to one digest
type Bucket struct {
	Size  int64
	Files []string
}

// Index maps a digest to the files sharing it
type Index map[string]*Bucket

// FingerprintOptions tunes Fingerprint. The zero value hashes sequentially
// with no logging.
type FingerprintOptions struct {
	Workers  int
	Logger   logrus.FieldLogger
	Progress *progress.ProgressReporter
	Metrics  *metrics.Collector
}

// Fingerprint reads every path in full and groups them by content digest.
// Files that vanished since the scan, zero-length files and unreadable files
// are skipped. The returned index is the same for any worker count.
func Fingerprint(ctx context.Context, paths []string, opts FingerprintOptions) (Index, Stats, error) {
	log := logging.OrDiscard(opts.Logger)
	index := make(Index)
	stats := Stats{FilesScanned: len(paths)}
	start := time.Now()

	var mu sync.Mutex
	hashOne := func(path string) {
		digest, size, status := digestPath(path, log)

		mu.Lock()
		defer mu.Unlock()
		switch status {
		case hashVanished:
			stats.Vanished++
		case hashUnreadable:
			stats.Unreadable++
		case hashOK:
			b, ok := index[digest]
			if !ok {
				b = &Bucket{Size: size}
				index[digest] = b
			}
			b.Files = append(b.Files, path)
			stats.FilesHashed++
			stats.BytesHashed += size
			opts.Metrics.ObserveHash(size)
		}
		opts.Progress.Publish(progress.Update{
			Phase:       progress.PhaseHashing,
			CurrentPath: path,
			Done:        stats.FilesHashed + stats.Vanished + stats.Unreadable,
			Total:       len(paths),
			Bytes:       stats.BytesHashed,
			StartTime:   start,
		})
	}

	if opts.Workers <= 1 {
		for _, path := range paths {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
			hashOne(path)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Workers)
		for _, path := range paths {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				hashOne(path)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, stats, err
		}
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
	}

	// Insertion order depends on scheduling; normalize it
	for _, b := range index {
		sort.Strings(b.Files)
	}

	return index, stats, nil
}

type hashStatus int

const (
	hashOK hashStatus = iota
	hashEmpty
	hashVanished
	hashUnreadable
)

// streamThreshold is the size above which files are hashed in a stream
// instead of being read into memory
var streamThreshold int64 = 8 << 20

// digestPath hashes one file. The existence check right before reading
// tolerates files removed after the scan.
func digestPath(path string, log logrus.FieldLogger) (string, int64, hashStatus) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", 0, hashVanished
		}
		log.WithError(err).WithField("path", path).Warn("cannot stat file, skipping")
		return "", 0, hashUnreadable
	}
	if !info.Mode().IsRegular() || info.Size() == 0 {
		return "", 0, hashEmpty
	}

	if info.Size() > streamThreshold {
		digest, err := utils.DigestFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return "", 0, hashVanished
			}
			log.WithError(err).WithField("path", path).Warn("cannot read file, skipping")
			return "", 0, hashUnreadable
		}
		return digest, info.Size(), hashOK
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", 0, hashVanished
		}
		log.WithError(err).WithField("path", path).Warn("cannot read file, skipping")
		return "", 0, hashUnreadable
	}
	if len(data) == 0 {
		return "", 0, hashEmpty
	}

	return utils.Digest(data), int64(len(data)), hashOK
}
