package analysis

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/soundbits/internal/models"
	"github.com/desertthunder/soundbits/internal/shared"
	"github.com/hajimehoshi/go-mp3"
)

// go-mp3 always decodes to 16-bit little-endian stereo.
const bytesPerFrame = 4

// Probe decodes an MP3 file and reports its duration, sample rate and normalized RMS energy.
func Probe(path string) (models.Probe, error) {
	if !strings.EqualFold(filepath.Ext(path), ".mp3") {
		return models.Probe{}, fmt.Errorf("%w: %s", shared.ErrUnsupportedFormat, filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return models.Probe{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return models.Probe{}, fmt.Errorf("%w: decode failed: %v", shared.ErrUnsupportedFormat, err)
	}

	energy, err := RMSEnergy(decoder)
	if err != nil {
		return models.Probe{}, err
	}

	rate := decoder.SampleRate()
	var duration time.Duration
	if rate > 0 {
		frames := decoder.Length() / bytesPerFrame
		duration = time.Duration(float64(frames) / float64(rate) * float64(time.Second))
	}

	return models.Probe{
		Duration:   duration,
		SampleRate: rate,
		RMSEnergy:  energy,
	}, nil
}

// RMSEnergy reads 16-bit little-endian PCM from r and returns its RMS level scaled to [0, 1].
func RMSEnergy(r io.Reader) (float64, error) {
	buf := make([]byte, 4096)
	var sumSquares float64
	var count float64
	var carry []byte

	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := append(carry, buf[:n]...)
			i := 0
			for ; i+1 < len(chunk); i += 2 {
				sample := int16(chunk[i]) | int16(chunk[i+1])<<8
				val := float64(sample)
				sumSquares += val * val
				count++
			}
			carry = append(carry[:0], chunk[i:]...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, fmt.Errorf("%w: read failed: %v", shared.ErrAnalysisFailed, err)
		}
	}

	if count == 0 {
		return 0, fmt.Errorf("%w: no samples", shared.ErrAnalysisFailed)
	}

	energy := math.Sqrt(sumSquares/count) / 32768.0
	return math.Min(math.Max(energy, 0), 1), nil
}
