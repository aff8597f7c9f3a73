package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tooplick/qqmusic-web/internal/audio"
	"github.com/tooplick/qqmusic-web/internal/config"
	"github.com/tooplick/qqmusic-web/internal/credential"
	"github.com/tooplick/qqmusic-web/internal/download"
	apphttp "github.com/tooplick/qqmusic-web/internal/http"
	"github.com/tooplick/qqmusic-web/internal/model"
	"github.com/tooplick/qqmusic-web/internal/qqmusic"
	"golang.org/x/sync/errgroup"
)

// App holds the long-lived services shared by the command line and the TUI.
type App struct {
	Settings    *config.Settings
	Logger      *slog.Logger
	HTTP        *apphttp.Client
	Catalog     *qqmusic.Client
	Store       credential.Store
	Credentials *credential.Manager
	Hook        *audio.MetadataHook
}

// New wires the services described by settings. logger may be nil.
func New(ctx context.Context, settings *config.Settings, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = config.NullLogger()
	}

	httpClient := apphttp.NewClient(settings.ToHTTPOptions())

	catalog := qqmusic.NewClient(httpClient, qqmusic.Options{
		APIURL: settings.Catalog.APIURL,
		Logger: logger.With("component", "catalog"),
	})

	store, err := credential.OpenStore(ctx, settings.ToStoreConfig())
	if err != nil {
		httpClient.Close()
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	credentials := credential.NewManager(store, catalog, logger.With("component", "credential"))

	hook := audio.NewMetadataHook(
		catalog,
		httpClient,
		audio.NewTagger(audio.DefaultTagConfig()),
		settings.ToHookConfig(),
		logger.With("component", "metadata"),
	)

	return &App{
		Settings:    settings,
		Logger:      logger,
		HTTP:        httpClient,
		Catalog:     catalog,
		Store:       store,
		Credentials: credentials,
		Hook:        hook,
	}, nil
}

// Downloader returns a download manager using the app's services.
func (a *App) Downloader(onProgress func(download.ProgressEvent)) *download.Manager {
	return download.NewManager(a.Settings, download.Dependencies{
		Fetcher:     a.HTTP,
		Catalog:     a.Catalog,
		Credentials: a.Credentials,
		Hook:        a.Hook,
		Logger:      a.Logger.With("component", "download"),
	}, onProgress)
}

// ResolveTracks looks up catalog descriptors for track ids.
//
// Ids the catalog cannot describe still yield a descriptor named after the
// id, so they can be attempted anyway.
func (a *App) ResolveTracks(ctx context.Context, mids []string) []*model.Track {
	tracks := make([]*model.Track, len(mids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(a.Settings.MaxConcurrentTracks, 1))
	for i, mid := range mids {
		g.Go(func() error {
			track, err := a.Catalog.TrackInfo(ctx, mid)
			if err != nil {
				a.Logger.Warn("failed to look up track", "mid", mid, "error", err)
				track = &model.Track{MID: mid, Name: mid}
			}
			tracks[i] = track
			return nil
		})
	}
	_ = g.Wait()

	return tracks
}

// CredentialStatus validates the stored credential and reports the outcome.
func (a *App) CredentialStatus(ctx context.Context) credential.Status {
	a.Credentials.Validate(ctx)
	return a.Credentials.Status()
}

// Close releases the connection pool and the credential store.
func (a *App) Close() error {
	a.HTTP.Close()
	return a.Store.Close()
}
