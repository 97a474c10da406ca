// AngelaMos | 2026
// youtube.go

package media

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kkdai/youtube/v2"
)

var ErrNoFormat = errors.New("no suitable stream format")

// YouTubeFetcher resolves watch URLs to progressive mp4 video or
// audio-only streams.
type YouTubeFetcher struct {
	client *youtube.Client
}

func NewYouTubeFetcher(httpClient *http.Client) *YouTubeFetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &YouTubeFetcher{
		client: &youtube.Client{HTTPClient: httpClient},
	}
}

func (f *YouTubeFetcher) FetchVideo(ctx context.Context, url string) (*Media, error) {
	video, err := f.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch video metadata: %w", err)
	}

	format := bestProgressive(video.Formats)
	if format == nil {
		return nil, fmt.Errorf("fetch video %q: %w", video.ID, ErrNoFormat)
	}

	return f.open(ctx, video, format)
}

func (f *YouTubeFetcher) FetchAudio(ctx context.Context, url string) (*Media, error) {
	video, err := f.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch video metadata: %w", err)
	}

	audio := video.Formats.Type("audio")
	if len(audio) == 0 {
		return nil, fmt.Errorf("fetch audio %q: %w", video.ID, ErrNoFormat)
	}

	return f.open(ctx, video, &audio[0])
}

func (f *YouTubeFetcher) open(
	ctx context.Context,
	video *youtube.Video,
	format *youtube.Format,
) (*Media, error) {
	stream, _, err := f.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}

	return &Media{
		Title:       video.Title,
		ContentType: mimeBase(format.MimeType),
		Body:        stream,
	}, nil
}

// bestProgressive picks the highest resolution mp4 that carries both video
// and audio.
func bestProgressive(formats youtube.FormatList) *youtube.Format {
	var best *youtube.Format
	for i := range formats {
		f := &formats[i]
		if f.AudioChannels == 0 || f.Height == 0 {
			continue
		}
		if !strings.HasPrefix(f.MimeType, "video/mp4") {
			continue
		}
		if best == nil || f.Height > best.Height ||
			(f.Height == best.Height && f.Bitrate > best.Bitrate) {
			best = f
		}
	}
	return best
}

func mimeBase(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	return strings.TrimSpace(base)
}
