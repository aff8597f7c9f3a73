// Package download provides the download orchestration logic for
// fetching QQ Music tracks into a local music directory.
//
// # Manager
//
// The Manager handles one track at a time:
//
//  1. Build the quality sequence ([FLAC, 320kbps, 128kbps] or [320kbps, 128kbps])
//  2. Resolve the credential and, for VIP tracks, shrink the sequence to
//     128kbps when no usable credential exists
//  3. For each tier: return a cached file, or resolve a stream URL, fetch it
//     and store it atomically
//  4. Embed lyrics, cover art and tags (optional)
//
// # Basic Usage
//
//	manager := download.NewManager(settings, download.Dependencies{
//	    Fetcher:     httpClient,
//	    Catalog:     catalog,
//	    Credentials: credentials,
//	    Hook:        hook,
//	}, func(event download.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//
//	result, err := manager.DownloadTrack(ctx, track, download.Options{PreferFLAC: true})
//	if errors.Is(err, download.ErrNotFound) {
//	    // no tier could be fetched
//	}
//
// # Concurrency
//
// DownloadTracks runs independent tracks in parallel, bounded by
// settings.MaxConcurrentTracks. Tiers of one track are always tried
// sequentially.
//
// # Progress Tracking
//
// Progress is reported via a callback function that receives ProgressEvent:
//
//	type ProgressEvent struct {
//	    Message string
//	    Level   ProgressLevel // Info, Verbose, Warning, Error, Success
//	}
//
// Every log line of one DownloadTrack call carries the same request_id,
// which is also stored in the result.
package download
