// Package loaders parses raw model bytes into renderable assets. One parsing
// strategy exists per loader kind; the registry dispatches over the closed
// kind set with an exhaustive switch, so adding a format is a compile-visible
// change rather than a runtime map mutation.
package loaders

import (
	"context"
	"io"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prism/internal/models"
)

// ProgressFunc receives byte-read progress ticks. Progress covers the raw
// read only; parsing is synchronous once bytes are in memory.
type ProgressFunc func(models.LoadingProgress)

// readChunkSize is the granularity of progress reporting.
const readChunkSize = 64 * 1024

// Registry owns the six parsing strategies.
type Registry struct {
	logger arbor.ILogger
}

// NewRegistry creates a loader registry.
func NewRegistry(logger arbor.ILogger) *Registry {
	return &Registry{logger: logger}
}

// Load acquires all bytes from src (reporting monotonic progress), then
// parses them with the strategy mandated by the descriptor. Structural
// failures surface as *models.ParseError; I/O failures as *models.ReadError.
func (r *Registry) Load(ctx context.Context, src io.Reader, size int64, desc models.FormatDescriptor, onProgress ProgressFunc) (*models.Asset, error) {
	return r.LoadCapture(ctx, src, size, desc, onProgress, nil)
}

// LoadCapture behaves like Load and additionally hands the raw bytes back
// through raw when non-nil, so callers can persist the original file without
// a second read.
func (r *Registry) LoadCapture(ctx context.Context, src io.Reader, size int64, desc models.FormatDescriptor, onProgress ProgressFunc, raw *[]byte) (*models.Asset, error) {
	data, err := r.readAll(ctx, src, size, onProgress)
	if err != nil {
		return nil, err
	}
	if raw != nil {
		*raw = data
	}

	var asset *models.Asset
	switch desc.Kind {
	case models.LoaderKindOBJ:
		asset, err = parseOBJ(string(data))
	case models.LoaderKindSTL:
		asset, err = parseSTL(data)
	case models.LoaderKindPLY:
		asset, err = parsePLY(data)
	case models.LoaderKindGLTF:
		asset, err = parseGLTF(data)
	case models.LoaderKindCollada:
		asset, err = parseCollada(data)
	case models.LoaderKindFBX:
		asset, err = parseFBX(data)
	default:
		return nil, &models.UnsupportedFormatError{Extension: desc.Extension}
	}
	if err != nil {
		r.logger.Warn().Str("kind", string(desc.Kind)).Err(err).Msg("Model parse failed")
		return nil, err
	}

	asset.Format = desc.Extension
	r.logger.Debug().
		Str("kind", string(desc.Kind)).
		Int("triangles", asset.TriangleCount()).
		Msg("Model parsed")
	return asset, nil
}

// readAll drains src, invoking onProgress after every chunk. Loaded is
// strictly monotonic within one call.
func (r *Registry) readAll(ctx context.Context, src io.Reader, size int64, onProgress ProgressFunc) ([]byte, error) {
	var data []byte
	if size > 0 {
		data = make([]byte, 0, size)
	}
	buf := make([]byte, readChunkSize)
	var loaded int64
	for {
		if err := ctx.Err(); err != nil {
			return nil, &models.ReadError{Name: "input", Err: err}
		}
		n, err := src.Read(buf)
		if n > 0 {
			data = append(data, buf[:n]...)
			loaded += int64(n)
			if onProgress != nil {
				onProgress(models.NewLoadingProgress(loaded, size))
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &models.ReadError{Name: "input", Err: err}
		}
	}
	return data, nil
}
