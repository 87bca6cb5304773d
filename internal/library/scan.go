package library

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
)

var allowedExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".m4a":  true,
	".ogg":  true,
	".wav":  true,
	".opus": true,
}

// ProgressFunc is called after each indexed file.
type ProgressFunc func(count int, path string)

// Scan rebuilds the song index from the audio files below roots and returns
// the number of indexed songs. Unreadable files and tags are skipped.
// Analysed features are kept.
func (s *Store) Scan(ctx context.Context, roots []string, progress ProgressFunc) (int, error) {
	if s.db == nil {
		return 0, ErrNotOpen
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM songs`); err != nil {
		return 0, fmt.Errorf("clear songs: %w", err)
	}
	insert, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO songs(path,title,artist,album_artist,album,genre,tag_bpm,duration_sec,file_size,file_mtime,format) VALUES(?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer insert.Close()

	count := 0
	for _, root := range roots {
		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil || d.IsDir() {
				return nil
			}
			if !allowedExtensions[strings.ToLower(filepath.Ext(path))] {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			song, format := readSong(path)
			if _, err := insert.ExecContext(ctx, song.Path, song.Title, song.Artist, song.AlbumArtist, song.Album, song.Genre,
				nullFloat(song.BPM), nullInt(song.DurationSec), info.Size(), info.ModTime().Unix(), format); err != nil {
				return fmt.Errorf("insert %s: %w", path, err)
			}
			count++
			if progress != nil {
				progress(count, path)
			}
			return nil
		})
		if walkErr != nil {
			return 0, walkErr
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit scan: %w", err)
	}
	return count, nil
}

// readSong builds a Song from the file's tags, falling back to the file and
// directory names when tags are missing. The duration comes from the length
// tag or else from decoding the file.
func readSong(path string) (Song, string) {
	song := Song{Path: path}
	format := ""
	if f, err := os.Open(path); err == nil {
		defer f.Close()
		if meta, err := tag.ReadFrom(f); err == nil {
			song.Title = strings.TrimSpace(meta.Title())
			song.Artist = strings.TrimSpace(meta.Artist())
			song.AlbumArtist = strings.TrimSpace(meta.AlbumArtist())
			song.Album = strings.TrimSpace(meta.Album())
			song.Genre = strings.TrimSpace(meta.Genre())
			song.BPM = rawBPM(meta.Raw())
			song.DurationSec = tagDuration(meta.Raw())
			format = fmt.Sprint(meta.Format())
		}
	}
	if song.DurationSec == nil {
		song.DurationSec = fileDuration(path)
	}
	if song.Artist == "" {
		song.Artist = "Unknown Artist"
	}
	if song.Album == "" {
		song.Album = filepath.Base(filepath.Dir(path))
		if song.Album == "." || song.Album == "/" {
			song.Album = "Unknown Album"
		}
	}
	if song.Title == "" {
		song.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return song, format
}

// bpmKeys covers ID3v2.3/2.4, ID3v2.2, Vorbis comments and MP4 atoms.
var bpmKeys = []string{"TBPM", "TBP", "bpm", "BPM", "tmpo"}

func rawBPM(raw map[string]interface{}) *float64 {
	for _, key := range bpmKeys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		var bpm float64
		switch x := v.(type) {
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
			if err != nil {
				continue
			}
			bpm = f
		case int:
			bpm = float64(x)
		case int64:
			bpm = float64(x)
		case float64:
			bpm = x
		default:
			continue
		}
		if bpm > 0 {
			return Float(bpm)
		}
	}
	return nil
}
