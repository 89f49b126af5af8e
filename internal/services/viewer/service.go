// Package viewer runs the model loading pipeline: format resolution, parsing,
// normalization, camera framing, and history recording, with last-requested-
// wins semantics when loads overlap.
package viewer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync/atomic"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prism/internal/common"
	"github.com/ternarybob/prism/internal/formats"
	"github.com/ternarybob/prism/internal/interfaces"
	"github.com/ternarybob/prism/internal/loaders"
	"github.com/ternarybob/prism/internal/models"
	"github.com/ternarybob/prism/internal/services/history"
	"github.com/ternarybob/prism/internal/services/scene"
)

// DefaultMaxFileSize caps uploads at 100 MB when no limit is configured.
const DefaultMaxFileSize = 100 << 20

// Result is delivered to OnModelLoad when a load completes.
type Result struct {
	Asset     *models.Asset
	Placement models.NormalizedPlacement
	Pose      models.CameraPose
	Entry     *models.HistoryEntry
}

// Callbacks receive pipeline notifications. Every load invokes exactly one
// of OnModelLoad or OnError, plus zero or more OnProgress calls before that.
// A load superseded by a newer request invokes neither. Nil callbacks are
// skipped.
type Callbacks struct {
	OnProgress  func(models.LoadingProgress)
	OnModelLoad func(Result)
	OnError     func(error)
}

// Options tunes the viewer pipeline.
type Options struct {
	MaxFileSize int64
	FOV         float64
}

// Service coordinates the loading pipeline.
type Service struct {
	registry   *loaders.Registry
	normalizer *scene.Normalizer
	history    *history.Service
	opts       Options
	logger     arbor.ILogger

	// generation implements last-requested-wins: each Load takes a ticket
	// and only the holder of the newest ticket may report results.
	generation atomic.Uint64
}

// NewService creates a viewer service. The history service may be nil, in
// which case loads are not recorded.
func NewService(registry *loaders.Registry, normalizer *scene.Normalizer, hist *history.Service, opts Options, logger arbor.ILogger) *Service {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Service{
		registry:   registry,
		normalizer: normalizer,
		history:    hist,
		opts:       opts,
		logger:     logger,
	}
}

// Load runs the full pipeline for the named source. Validation failures
// surface before any bytes are read: an unsupported extension yields
// UnsupportedFormatError and an oversized source yields FileTooLargeError.
// The loaded asset is normalized, framed, and recorded in history before
// OnModelLoad fires. History failures are logged, never fatal.
func (s *Service) Load(ctx context.Context, name string, src io.Reader, size int64, cb Callbacks) {
	ticket := s.generation.Add(1)

	desc, err := formats.Resolve(name)
	if err != nil {
		s.report(ticket, cb, nil, err)
		return
	}
	if size > s.opts.MaxFileSize {
		s.report(ticket, cb, nil, &models.FileTooLargeError{Size: size, Limit: s.opts.MaxFileSize})
		return
	}

	s.logger.Info().Str("name", name).Str("format", desc.Extension).Msg("Loading model")

	var data []byte
	asset, err := s.registry.LoadCapture(ctx, src, size, desc, func(p models.LoadingProgress) {
		if s.generation.Load() == ticket && cb.OnProgress != nil {
			cb.OnProgress(p)
		}
	}, &data)
	if err != nil {
		s.report(ticket, cb, nil, err)
		return
	}
	asset.Name = name

	placement := s.normalizer.Place(asset)
	pose := s.normalizer.Frame(asset, s.opts.FOV)

	result := &Result{
		Asset:     asset,
		Placement: placement,
		Pose:      pose,
	}

	if s.history != nil {
		entry, err := s.history.Add(ctx, asset, name, data)
		if err != nil {
			s.logger.Warn().Err(err).Str("name", name).Msg("Failed to record history entry")
		} else {
			result.Entry = entry
		}
	}

	s.report(ticket, cb, result, nil)
}

// Restore reloads a model from a history entry. Entries persisted by the
// key-value fallback have no model bytes and cannot be restored; that case
// yields a ReadError naming the entry.
func (s *Service) Restore(ctx context.Context, id string, cb Callbacks) {
	if s.history == nil {
		s.report(s.generation.Add(1), cb, nil, interfaces.ErrEntryNotFound)
		return
	}
	entry, err := s.history.Get(ctx, id)
	if err != nil {
		s.report(s.generation.Add(1), cb, nil, err)
		return
	}
	if len(entry.Data) == 0 {
		s.report(s.generation.Add(1), cb, nil, &models.ReadError{
			Name: entry.Name,
			Err:  errEntryDataUnavailable,
		})
		return
	}
	s.Load(ctx, entry.Name, bytes.NewReader(entry.Data), int64(len(entry.Data)), cb)
}

var errEntryDataUnavailable = errors.New("entry has no stored model data")

// report delivers the terminal callback if this load is still the newest.
func (s *Service) report(ticket uint64, cb Callbacks, result *Result, err error) {
	if s.generation.Load() != ticket {
		s.logger.Debug().Msg("Discarding superseded load result")
		return
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("Model load failed")
		if cb.OnError != nil {
			cb.OnError(err)
		}
		return
	}
	if cb.OnModelLoad != nil {
		cb.OnModelLoad(*result)
	}
}
