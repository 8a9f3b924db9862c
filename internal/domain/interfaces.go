package domain

import "context"

// BlobStore is content-addressable storage for opaque byte payloads. Upload
// returns a fetchable URL for the stored object.
type BlobStore interface {
	Upload(ctx context.Context, path string, data []byte, contentType, token string) (string, error)
	Fetch(ctx context.Context, path, token string) ([]byte, error)
}

// ExtractionClient is the opaque remote call that turns document bytes into
// structured content. A transport or validation failure is returned as an
// error whose message is surfaced verbatim to the user; a successful but
// incomplete response yields an empty (not nil) result.
type ExtractionClient interface {
	Extract(ctx context.Context, data []byte, mimeType string) (*ExtractionResult, error)
}

// PageRasterizer converts PDF bytes into one raster image per page, in page
// order, at a fixed rendering scale.
type PageRasterizer interface {
	RasterizePDF(ctx context.Context, pdf []byte) ([][]byte, error)
	PageCount(pdf []byte) (int, error)
}

// TaskTracker runs detached background work. The production implementation
// is fire-and-forget; tests substitute one whose Wait blocks until every
// tracked task has finished.
type TaskTracker interface {
	Go(fn func())
	Wait()
}

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetLogLevel() string
	GetMaxFileSize() int64
	GetMaxPageCount() int
	GetRasterScale() float64
	GetSupabaseURL() string
	GetSupabaseKey() string
	GetStorageBucket() string
	GetVertexProjectID() string
	GetVertexLocation() string
}
