package library

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
	"github.com/tcolgate/mp3"
)

// tagDuration reads the ID3 length frame (milliseconds).
func tagDuration(raw map[string]interface{}) *int {
	for _, key := range []string{"TLEN", "TLE"} {
		v, ok := raw[key].(string)
		if !ok {
			continue
		}
		ms, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil || ms <= 0 {
			continue
		}
		secs := int((ms + 500) / 1000)
		return &secs
	}
	return nil
}

// fileDuration decodes the length of an mp3, flac or wav file. Other
// formats and undecodable files give nil.
func fileDuration(path string) *int {
	var (
		d   time.Duration
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		d, err = mp3Duration(path)
	case ".flac":
		d, err = flacDuration(path)
	case ".wav":
		d, err = wavDuration(path)
	default:
		return nil
	}
	if err != nil || d <= 0 {
		return nil
	}
	secs := int(d.Round(time.Second) / time.Second)
	return &secs
}

// mp3Duration sums the frame durations. A file whose first frame fails to
// decode is an error; a later failure keeps what was decoded so far.
func mp3Duration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := mp3.NewDecoder(f)
	var (
		total   time.Duration
		frame   mp3.Frame
		skipped int
		frames  int
	)
	for {
		if err := dec.Decode(&frame, &skipped); err != nil {
			if errors.Is(err, io.EOF) || frames > 0 {
				break
			}
			return 0, err
		}
		total += frame.Duration()
		frames++
	}
	return total, nil
}

func flacDuration(path string) (time.Duration, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return 0, err
	}
	defer stream.Close()
	info := stream.Info
	if info.NSamples == 0 || info.SampleRate == 0 {
		return 0, errors.New("flac: missing sample count")
	}
	return time.Duration(float64(info.NSamples) / float64(info.SampleRate) * float64(time.Second)), nil
}

// wavDuration derives the length from the header and the file size.
func wavDuration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, errors.New("wav: invalid file")
	}
	frameSize := int64(dec.BitDepth/8) * int64(dec.NumChans)
	if dec.SampleRate == 0 || frameSize <= 0 {
		return 0, errors.New("wav: invalid header")
	}
	st, err := f.Stat()
	if err != nil {
		return 0, err
	}
	const headerSize = 44
	pcm := max(st.Size()-headerSize, 0)
	frames := pcm / frameSize
	return time.Duration(float64(frames) / float64(dec.SampleRate) * float64(time.Second)), nil
}
