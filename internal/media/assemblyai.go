// AngelaMos | 2026
// assemblyai.go

package media

import (
	"context"
	"errors"
	"fmt"
	"io"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"

	"github.com/carterperez-dev/videoflow/internal/config"
)

//nolint:staticcheck // ST1005: message is returned to clients as is
var ErrTranscriptionFailed = errors.New("Transcription failed")

// AssemblyAITranscriber uploads audio and waits for the finished transcript.
type AssemblyAITranscriber struct {
	client *aai.Client
}

func NewAssemblyAITranscriber(cfg config.TranscriptionConfig) *AssemblyAITranscriber {
	opts := []aai.ClientOption{aai.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, aai.WithBaseURL(cfg.BaseURL))
	}

	return &AssemblyAITranscriber{
		client: aai.NewClientWithOptions(opts...),
	}
}

func (t *AssemblyAITranscriber) Transcribe(
	ctx context.Context,
	audio io.Reader,
) (string, error) {
	transcript, err := t.client.Transcripts.TranscribeFromReader(ctx, audio, nil)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}

	if transcript.Status == aai.TranscriptStatusError {
		return "", fmt.Errorf(
			"%w: %s",
			ErrTranscriptionFailed,
			aai.ToString(transcript.Error),
		)
	}

	return aai.ToString(transcript.Text), nil
}
