package decode

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// TargetSampleRate is the sample rate handed to the speech engine.
const TargetSampleRate = 16000

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// PCM is mono signed 16-bit little-endian audio.
type PCM struct {
	Data       []byte
	SampleRate int
}

// Duration returns the length of the audio in seconds.
func (p PCM) Duration() float64 {
	if p.SampleRate <= 0 {
		return 0
	}
	return float64(len(p.Data)/2) / float64(p.SampleRate)
}

// WAV wraps the samples in a RIFF/WAVE container.
func (p PCM) WAV() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeWAV(&buf, p.Data, p.SampleRate); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeWAV(out io.Writer, pcm []byte, sampleRate int) error {
	const (
		numChannels   = 1
		bitsPerSample = 16
	)
	if sampleRate <= 0 {
		sampleRate = TargetSampleRate
	}

	dataSize := uint32(len(pcm))
	w := bufio.NewWriter(out)

	fields := []any{
		[]byte("RIFF"), uint32(36) + dataSize, []byte("WAVE"),
		[]byte("fmt "), uint32(16), uint16(wavFormatPCM), uint16(numChannels),
		uint32(sampleRate), uint32(sampleRate * numChannels * bitsPerSample / 8),
		uint16(numChannels * bitsPerSample / 8), uint16(bitsPerSample),
		[]byte("data"), dataSize,
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	if _, err := w.Write(pcm); err != nil {
		return err
	}
	return w.Flush()
}

type wavFormat struct {
	audioFormat   uint16
	channels      int
	sampleRate    int
	bitsPerSample int
}

// isWAV reports whether data starts with a RIFF/WAVE header.
func isWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

// parseWAV walks the RIFF chunks and returns the format plus the raw data chunk.
func parseWAV(data []byte) (wavFormat, []byte, error) {
	if !isWAV(data) {
		return wavFormat{}, nil, fmt.Errorf("not a RIFF/WAVE stream")
	}
	var (
		format  wavFormat
		haveFmt bool
		samples []byte
	)
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		end := body + size
		if size < 0 || end > len(data) {
			// Streamed WAVs often carry a bogus data size; take what is there.
			end = len(data)
		}
		switch id {
		case "fmt ":
			if end-body < 16 {
				return wavFormat{}, nil, fmt.Errorf("short fmt chunk")
			}
			chunk := data[body:end]
			format = wavFormat{
				audioFormat:   binary.LittleEndian.Uint16(chunk[0:2]),
				channels:      int(binary.LittleEndian.Uint16(chunk[2:4])),
				sampleRate:    int(binary.LittleEndian.Uint32(chunk[4:8])),
				bitsPerSample: int(binary.LittleEndian.Uint16(chunk[14:16])),
			}
			haveFmt = true
		case "data":
			samples = data[body:end]
		}
		pos = end + (end-body)%2
		if samples != nil && haveFmt {
			break
		}
	}
	if !haveFmt {
		return wavFormat{}, nil, fmt.Errorf("missing fmt chunk")
	}
	if samples == nil {
		return wavFormat{}, nil, fmt.Errorf("missing data chunk")
	}
	return format, samples, nil
}

// nativeWAV converts 16-bit PCM WAV data to mono 16 kHz. ok is false when the
// encoding needs the external transcoder.
func nativeWAV(data []byte) (PCM, bool, error) {
	format, samples, err := parseWAV(data)
	if err != nil {
		return PCM{}, false, err
	}
	if (format.audioFormat != wavFormatPCM && format.audioFormat != wavFormatExtensible) || format.bitsPerSample != 16 {
		return PCM{}, false, nil
	}
	if format.channels <= 0 || format.sampleRate <= 0 {
		return PCM{}, false, fmt.Errorf("invalid wav format: channels=%d rate=%d", format.channels, format.sampleRate)
	}
	mono := downmix(samples, format.channels)
	return PCM{Data: resample(mono, format.sampleRate, TargetSampleRate), SampleRate: TargetSampleRate}, true, nil
}

// downmix averages interleaved 16-bit frames to a single channel.
func downmix(samples []byte, channels int) []int16 {
	frameBytes := 2 * channels
	frames := len(samples) / frameBytes
	out := make([]int16, frames)
	for i := 0; i < frames; i++ {
		var sum int32
		for ch := 0; ch < channels; ch++ {
			off := i*frameBytes + ch*2
			sum += int32(int16(binary.LittleEndian.Uint16(samples[off : off+2])))
		}
		out[i] = int16(sum / int32(channels))
	}
	return out
}

// resample linearly interpolates mono samples from one rate to another and
// returns little-endian bytes.
func resample(in []int16, from, to int) []byte {
	if from == to || len(in) == 0 {
		return int16sToBytes(in)
	}
	n := int(int64(len(in)) * int64(to) / int64(from))
	out := make([]int16, n)
	step := float64(from) / float64(to)
	for i := range out {
		pos := float64(i) * step
		idx := int(pos)
		if idx >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = int16(float64(in[idx])*(1-frac) + float64(in[idx+1])*frac)
	}
	return int16sToBytes(out)
}

func int16sToBytes(in []int16) []byte {
	out := make([]byte, len(in)*2)
	for i, s := range in {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}
