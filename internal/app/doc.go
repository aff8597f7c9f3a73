// Package app wires the downloader's services from settings.
//
//	a, err := app.New(ctx, settings, logger)
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	a.CredentialStatus(ctx)
//	tracks := a.ResolveTracks(ctx, []string{"0039MnYb0qxYhV"})
//	results := a.Downloader(onProgress).DownloadTracks(ctx, tracks, download.OptionsFrom(settings))
package app
