package decode

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// DefaultAudioFormat is assumed when the client does not name its container.
const DefaultAudioFormat = "m4a"

// Transcoder converts an audio file on disk to mono 16 kHz PCM16LE.
type Transcoder func(ctx context.Context, path string) ([]byte, error)

// AudioDecoder turns uploaded audio into PCM for the speech engine.
// WAV is parsed natively; everything else goes through ffmpeg.
type AudioDecoder struct {
	FFmpegPath string
	TempDir    string
	Transcode  Transcoder
}

// NewAudioDecoder returns a decoder that shells out to ffmpegPath.
func NewAudioDecoder(ffmpegPath string) *AudioDecoder {
	if strings.TrimSpace(ffmpegPath) == "" {
		ffmpegPath = "ffmpeg"
	}
	d := &AudioDecoder{FFmpegPath: ffmpegPath}
	d.Transcode = d.ffmpeg
	return d
}

// Decode converts data in sourceFormat (e.g. "m4a", "wav") to PCM.
func (d *AudioDecoder) Decode(ctx context.Context, data []byte, sourceFormat string) (PCM, error) {
	if len(data) == 0 {
		return PCM{}, newError(KindInvalidAudio, "empty audio payload")
	}
	format := normalizeFormat(sourceFormat)

	if format == "wav" || isWAV(data) {
		pcm, ok, err := nativeWAV(data)
		if err != nil && format == "wav" && !isWAV(data) {
			return PCM{}, &Error{Kind: KindInvalidAudio, Err: err}
		}
		if err == nil && ok {
			if len(pcm.Data) == 0 {
				return PCM{}, newError(KindInvalidAudio, "no audio samples")
			}
			return pcm, nil
		}
		format = "wav"
	}

	return d.transcode(ctx, data, format)
}

func (d *AudioDecoder) transcode(ctx context.Context, data []byte, format string) (PCM, error) {
	tmp, err := os.CreateTemp(d.TempDir, "upload-*."+format)
	if err != nil {
		return PCM{}, fmt.Errorf("create temp audio file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return PCM{}, fmt.Errorf("write temp audio file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return PCM{}, fmt.Errorf("close temp audio file: %w", err)
	}

	run := d.Transcode
	if run == nil {
		run = d.ffmpeg
	}
	raw, err := run(ctx, tmp.Name())
	if err != nil {
		if ctx.Err() != nil {
			return PCM{}, ctx.Err()
		}
		return PCM{}, &Error{Kind: KindInvalidAudio, Err: err}
	}
	if len(raw) < 2 {
		return PCM{}, newError(KindInvalidAudio, "transcoder produced no audio")
	}
	return PCM{Data: raw[:len(raw)&^1], SampleRate: TargetSampleRate}, nil
}

func (d *AudioDecoder) ffmpeg(ctx context.Context, path string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, d.FFmpegPath,
		"-hide_banner", "-loglevel", "error",
		"-i", path,
		"-ac", "1",
		"-ar", fmt.Sprint(TargetSampleRate),
		"-f", "s16le",
		"pipe:1",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("ffmpeg: %w", err)
		}
		return nil, fmt.Errorf("ffmpeg: %w: %s", err, msg)
	}
	return stdout.Bytes(), nil
}

func normalizeFormat(format string) string {
	f := strings.ToLower(strings.TrimSpace(format))
	f = strings.TrimPrefix(f, ".")
	if i := strings.LastIndex(f, "/"); i >= 0 {
		// MIME type such as audio/x-m4a.
		f = strings.TrimPrefix(f[i+1:], "x-")
	}
	switch f {
	case "":
		return DefaultAudioFormat
	case "wave", "vnd.wave":
		return "wav"
	case "mpeg":
		return "mp3"
	case "mp4", "aac":
		return "m4a"
	}
	for _, r := range f {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return DefaultAudioFormat
		}
	}
	return f
}
