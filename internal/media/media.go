// AngelaMos | 2026
// media.go

package media

import (
	"context"
	"io"
)

// Media is a fetched stream plus the metadata the pipeline records.
// ContentType may be empty when the source does not advertise one.
type Media struct {
	Title       string
	ContentType string
	Body        io.ReadCloser
}

type Fetcher interface {
	FetchVideo(ctx context.Context, url string) (*Media, error)
	FetchAudio(ctx context.Context, url string) (*Media, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader) (string, error)
}

// ArtifactStore archives completed downloads.
type ArtifactStore interface {
	Put(
		ctx context.Context,
		key string,
		body io.Reader,
		size int64,
		contentType string,
	) error
}
