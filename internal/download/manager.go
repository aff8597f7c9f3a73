package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tooplick/qqmusic-web/internal/audio"
	"github.com/tooplick/qqmusic-web/internal/config"
	ioutils "github.com/tooplick/qqmusic-web/internal/io"
	"github.com/tooplick/qqmusic-web/internal/model"
	"github.com/tooplick/qqmusic-web/internal/qqmusic"
	"golang.org/x/sync/errgroup"
)

// ErrNotFound is returned when every quality tier of a track failed.
var ErrNotFound = errors.New("download: track not available in any quality")

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a download progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// Fetcher downloads stream content. *http.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, url string, onProgress func(written, total int64)) ([]byte, error)
}

// Catalog resolves stream URLs. *qqmusic.Client satisfies it.
type Catalog interface {
	TrackURL(ctx context.Context, mid string, q model.Quality, cred *qqmusic.Credential) (string, error)
}

// Credentials hands out the current credential. *credential.Manager
// satisfies it.
type Credentials interface {
	Get(ctx context.Context) *qqmusic.Credential
	Renew(ctx context.Context, cred *qqmusic.Credential) (*qqmusic.Credential, error)
}

// Hook post-processes a freshly downloaded file. *audio.MetadataHook
// satisfies it.
type Hook interface {
	Process(ctx context.Context, track *model.Track, result *model.DownloadResult) (bool, error)
}

// Dependencies are the collaborators of a Manager. Hook and Logger may be nil.
type Dependencies struct {
	Fetcher     Fetcher
	Catalog     Catalog
	Credentials Credentials
	Hook        Hook
	Logger      *slog.Logger
}

// Options are the per-call download switches.
type Options struct {
	// PreferFLAC starts the attempt sequence at lossless.
	PreferFLAC bool

	// EmbedMetadata runs the post-processing hook after a fresh download.
	EmbedMetadata bool
}

// OptionsFrom returns the options configured in settings.
func OptionsFrom(settings *config.Settings) Options {
	return Options{
		PreferFLAC:    settings.PreferFLAC,
		EmbedMetadata: settings.EmbedMetadata,
	}
}

// BatchResult is the outcome of one track of DownloadTracks.
type BatchResult struct {
	Track  *model.Track
	Result *model.DownloadResult
	Err    error
}

// Manager coordinates track downloads.
type Manager struct {
	settings    *config.Settings
	musicDir    string
	fetcher     Fetcher
	catalog     Catalog
	credentials Credentials
	hook        Hook
	playlist    *audio.PlaylistCreator
	logger      *slog.Logger

	receivedBytes   int64
	totalFiles      int32
	downloadedFiles int32
	failedFiles     int32

	onProgress func(ProgressEvent)
}

// NewManager creates a new download Manager.
func NewManager(settings *config.Settings, deps Dependencies, onProgress func(ProgressEvent)) *Manager {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	musicDir := settings.MusicDir
	if abs, err := filepath.Abs(musicDir); err == nil {
		musicDir = abs
	}
	return &Manager{
		settings:    settings,
		musicDir:    musicDir,
		fetcher:     deps.Fetcher,
		catalog:     deps.Catalog,
		credentials: deps.Credentials,
		hook:        deps.Hook,
		playlist:    audio.NewPlaylistCreator(settings.ToPlaylistFormat(), settings.Playlist.M3UExtended),
		logger:      logger,
		onProgress:  onProgress,
	}
}

// baseName is the file name of track without extension. Tracks whose name
// sanitizes to nothing are named after their MID.
func (m *Manager) baseName(track *model.Track) string {
	if base := ioutils.SanitizeFileName(track.DisplayName(), m.settings.MaxFilenameLength); base != "" {
		return base
	}
	return ioutils.SanitizeFileName(track.MID, m.settings.MaxFilenameLength)
}

// DownloadTrack stores one track in the music directory.
//
// Quality tiers are tried strictly in order and the first success wins. A file
// already present for a tier is returned as cached without any network call.
// When every tier fails, DownloadTrack returns ErrNotFound and writes
// nothing.
func (m *Manager) DownloadTrack(ctx context.Context, track *model.Track, opts Options) (*model.DownloadResult, error) {
	if err := track.Validate(); err != nil {
		return nil, err
	}

	if m.settings.TrackTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.settings.TrackTimeout)
		defer cancel()
	}

	requestID := uuid.NewString()
	logger := m.logger.With("request_id", requestID, "mid", track.MID)

	cred, seq := m.resolveCredential(ctx, track, model.Sequence(opts.PreferFLAC), logger)
	base := m.baseName(track)

	for _, q := range seq {
		if err := ctx.Err(); err != nil {
			logger.Warn("download cancelled", "error", err)
			return nil, err
		}

		filename := base + q.Extension()
		path := filepath.Join(m.musicDir, filename)
		result := &model.DownloadResult{
			Filename:       filename,
			Quality:        q,
			QualityName:    q.String(),
			Path:           path,
			UsedCredential: cred != nil,
			RequestID:      requestID,
		}

		if ioutils.FileExists(path) {
			result.Cached = true
			logger.Info("using cached file", "quality", q.String(), "path", path)
			m.progress(ProgressEvent{Message: fmt.Sprintf("Cached: %s", filename), Level: LevelVerbose})
			return result, nil
		}

		url, err := m.catalog.TrackURL(ctx, track.MID, q, cred)
		if err != nil {
			logger.Warn("failed to resolve stream url", "quality", q.String(), "error", err)
			continue
		}
		if url == "" {
			logger.Info("no stream url for quality", "quality", q.String())
			continue
		}

		data, err := m.fetch(ctx, url)
		if err != nil {
			logger.Warn("failed to fetch stream", "quality", q.String(), "error", err)
			m.progress(ProgressEvent{Message: fmt.Sprintf("%s unavailable for %s: %v", q, track.DisplayName(), err), Level: LevelVerbose})
			continue
		}

		if err := ioutils.EnsureDir(m.musicDir); err != nil {
			return nil, err
		}
		if err := ioutils.WriteFileAtomic(path, data, 0644); err != nil {
			return nil, fmt.Errorf("failed to store %s: %w", filename, err)
		}
		result.Size = int64(len(data))
		logger.Info("track downloaded", "quality", q.String(), "path", path, "size", result.Size, "used_credential", result.UsedCredential)

		if opts.EmbedMetadata && m.hook != nil {
			added, err := m.hook.Process(ctx, track, result)
			if err != nil {
				logger.Warn("failed to add metadata", "error", err)
			}
			result.MetadataAdded = added && err == nil
		}

		m.progress(ProgressEvent{Message: fmt.Sprintf("Downloaded: %s (%s)", filename, q), Level: LevelVerbose})
		return result, nil
	}

	logger.Warn("track not available", "tried", len(seq))
	return nil, fmt.Errorf("%w: %s", ErrNotFound, track.MID)
}

// resolveCredential decides which credential the attempts of one call use
// and which tiers they may try.
//
// Restricted tracks need a usable credential for anything above 128kbps, so
// a missing or unrenewable credential collapses the sequence. Other tracks
// keep a stale credential and the full sequence when renewal fails.
func (m *Manager) resolveCredential(ctx context.Context, track *model.Track, seq []model.Quality, logger *slog.Logger) (*qqmusic.Credential, []model.Quality) {
	if m.credentials == nil {
		if track.VIP {
			return nil, model.AnonymousSequence()
		}
		return nil, seq
	}

	cred := m.credentials.Get(ctx)

	if !track.VIP {
		if cred == nil {
			return nil, seq
		}
		renewed, err := m.credentials.Renew(ctx, cred)
		if renewed == nil {
			if err != nil {
				logger.Debug("keeping stale credential", "error", err)
			}
			return cred, seq
		}
		return renewed, seq
	}

	if cred == nil {
		logger.Info("restricted track without credential, limiting to 128kbps")
		return nil, model.AnonymousSequence()
	}

	renewed, err := m.credentials.Renew(ctx, cred)
	if renewed == nil {
		logger.Warn("credential unusable, limiting to 128kbps", "error", err)
		return nil, model.AnonymousSequence()
	}
	return renewed, seq
}

func (m *Manager) fetch(ctx context.Context, url string) ([]byte, error) {
	var last int64
	return m.fetcher.Fetch(ctx, url, func(written, _ int64) {
		atomic.AddInt64(&m.receivedBytes, written-last)
		last = written
	})
}

// DownloadTracks downloads tracks concurrently, at most
// MaxConcurrentTracks at a time. Results keep the order of tracks.
//
// A failed track does not stop the others. When playlist creation is
// enabled, a playlist of the successful tracks is written to the music
// directory.
func (m *Manager) DownloadTracks(ctx context.Context, tracks []*model.Track, opts Options) []BatchResult {
	atomic.AddInt32(&m.totalFiles, int32(len(tracks)))
	results := make([]BatchResult, len(tracks))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(m.settings.MaxConcurrentTracks, 1))

	for i, track := range tracks {
		g.Go(func() error {
			res, err := m.DownloadTrack(ctx, track, opts)
			results[i] = BatchResult{Track: track, Result: res, Err: err}
			if err != nil {
				atomic.AddInt32(&m.failedFiles, 1)
				m.progress(ProgressEvent{Message: fmt.Sprintf("Error downloading %s: %v", trackLabel(track), err), Level: LevelError})
				return nil // Continue with other tracks
			}
			atomic.AddInt32(&m.downloadedFiles, 1)
			m.progress(ProgressEvent{Message: fmt.Sprintf("Done: %s [%s]", res.Filename, describe(res)), Level: LevelSuccess})
			return nil
		})
	}
	_ = g.Wait()

	if m.settings.Playlist.Create {
		path, err := m.WritePlaylist(results)
		if err != nil {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Error creating playlist: %v", err), Level: LevelWarning})
		} else if path != "" {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Created playlist %s", filepath.Base(path)), Level: LevelSuccess})
		}
	}

	return results
}

// WritePlaylist writes a playlist of the successful results into the music
// directory and returns its path. Nothing is written when no track
// succeeded.
func (m *Manager) WritePlaylist(results []BatchResult) (string, error) {
	items := make([]audio.PlaylistItem, 0, len(results))
	for _, r := range results {
		if r.Err == nil && r.Result != nil {
			items = append(items, audio.PlaylistItem{Track: r.Track, Result: r.Result})
		}
	}
	if len(items) == 0 {
		return "", nil
	}

	title := fmt.Sprintf("QQMusic %s", time.Now().Format("2006-01-02 150405"))
	path := filepath.Join(m.musicDir, title+m.playlist.Extension())
	content := m.playlist.CreatePlaylist(title, items)
	if err := ioutils.WriteFileAtomic(path, []byte(content), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// GetProgress returns current download progress.
func (m *Manager) GetProgress() (received int64, filesDone, filesFailed, filesTotal int32) {
	return atomic.LoadInt64(&m.receivedBytes),
		atomic.LoadInt32(&m.downloadedFiles),
		atomic.LoadInt32(&m.failedFiles),
		atomic.LoadInt32(&m.totalFiles)
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}

func trackLabel(t *model.Track) string {
	if t == nil {
		return "<nil>"
	}
	if t.Name == "" {
		return t.MID
	}
	return t.DisplayName()
}

func describe(r *model.DownloadResult) string {
	switch {
	case r.Cached:
		return r.QualityName + ", cached"
	case r.MetadataAdded:
		return r.QualityName + ", tagged"
	default:
		return r.QualityName
	}
}
