package youtube

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	ytdl "github.com/kkdai/youtube/v2"
)

// AudioFormat describes one audio-only stream of a video.
type AudioFormat struct {
	ItagNo        int
	MimeType      string // "audio/mp4", "audio/webm"
	Bitrate       int    // bps
	ContentLength int64  // bytes
}

// Extension returns the file extension matching the stream's container.
func (f *AudioFormat) Extension() string {
	if strings.Contains(f.MimeType, "mp4") {
		return ".m4a"
	}
	if strings.Contains(f.MimeType, "webm") {
		return ".webm"
	}
	return ".audio"
}

// AudioFormats lists the audio-only formats of a video, best bitrate first.
func (c *Client) AudioFormats(ctx context.Context, videoURL string) ([]AudioFormat, error) {
	video, err := c.client.GetVideoContext(ctx, videoURL)
	if err != nil {
		return nil, err
	}

	var formats []AudioFormat
	for _, f := range video.Formats {
		if !strings.HasPrefix(f.MimeType, "audio/") {
			continue
		}
		formats = append(formats, AudioFormat{
			ItagNo:        f.ItagNo,
			MimeType:      f.MimeType,
			Bitrate:       f.Bitrate,
			ContentLength: f.ContentLength,
		})
	}

	sort.Slice(formats, func(i, j int) bool {
		return formats[i].Bitrate > formats[j].Bitrate
	})

	return formats, nil
}

// DownloadAudio saves the lowest-bitrate audio stream of the video to
// outputPath. Speech-to-text backends cap upload size, so the smallest
// stream is the right default, not the best-sounding one.
func (c *Client) DownloadAudio(ctx context.Context, videoURL, outputPath string) (int64, error) {
	video, err := c.client.GetVideoContext(ctx, videoURL)
	if err != nil {
		return 0, fmt.Errorf("get video: %w", err)
	}

	var target *ytdl.Format
	for i := range video.Formats {
		f := &video.Formats[i]
		if !strings.HasPrefix(f.MimeType, "audio/") {
			continue
		}
		if target == nil || f.Bitrate < target.Bitrate {
			target = f
		}
	}
	if target == nil {
		return 0, fmt.Errorf("no audio-only formats available")
	}

	stream, _, err := c.client.GetStreamContext(ctx, video, target)
	if err != nil {
		return 0, fmt.Errorf("get audio stream: %w", err)
	}
	defer stream.Close()

	file, err := os.Create(outputPath)
	if err != nil {
		return 0, fmt.Errorf("create audio file: %w", err)
	}
	defer file.Close()

	written, err := copyContext(ctx, file, stream)
	if err != nil {
		os.Remove(outputPath)
		return 0, fmt.Errorf("download audio: %w", err)
	}

	return written, nil
}

// copyContext copies src to dst, aborting when ctx is cancelled.
func copyContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, 32*1024)
	var written int64

	for {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		default:
		}

		nr, err := src.Read(buf)
		if nr > 0 {
			nw, ew := dst.Write(buf[:nr])
			written += int64(nw)
			if ew != nil {
				return written, ew
			}
		}
		if err != nil {
			if err == io.EOF {
				return written, nil
			}
			return written, err
		}
	}
}
