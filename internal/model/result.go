package model

// DownloadResult describes one successful download call.
//
// A result is produced once per successful call and is not modified after it
// is returned. Cached results never involved a network fetch and never run
// post-processing, so MetadataAdded is always false for them.
type DownloadResult struct {
	// Filename is the sanitized base name plus the tier extension.
	Filename string `json:"filename"`

	// Quality is the tier that produced the file.
	Quality Quality `json:"-"`

	// QualityName is Quality.String(), kept for serialized output.
	QualityName string `json:"quality"`

	// Path is the absolute path of the stored file.
	Path string `json:"filepath"`

	// Cached is true when the file already existed and nothing was fetched.
	Cached bool `json:"cached"`

	// UsedCredential is true when a credential was passed to the catalog for
	// the attempt that produced this result.
	UsedCredential bool `json:"used_credential"`

	// MetadataAdded reports whether tags and lyrics were embedded.
	MetadataAdded bool `json:"metadata_added"`

	// Size is the number of bytes written (0 for cached results).
	Size int64 `json:"size"`

	// RequestID correlates the result with log lines of the call.
	RequestID string `json:"request_id"`
}
