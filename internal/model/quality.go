package model

// Quality is an audio quality tier offered by the catalog.
//
// Tiers are ordered from best to worst. Each tier maps to a catalog file
// prefix and a local file extension:
//
//	QualityFLAC -> F000 ... .flac
//	Quality320  -> M800 ... .mp3
//	Quality128  -> M500 ... .mp3
type Quality int

const (
	// QualityFLAC is lossless FLAC.
	QualityFLAC Quality = iota

	// Quality320 is 320kbps MP3.
	Quality320

	// Quality128 is 128kbps MP3, the tier available without entitlement.
	Quality128
)

// String returns the display name of the tier ("FLAC", "320kbps", "128kbps").
func (q Quality) String() string {
	switch q {
	case QualityFLAC:
		return "FLAC"
	case Quality320:
		return "320kbps"
	case Quality128:
		return "128kbps"
	default:
		return "unknown"
	}
}

// Extension returns the local file extension including the dot.
func (q Quality) Extension() string {
	if q == QualityFLAC {
		return ".flac"
	}
	return ".mp3"
}

// Prefix returns the catalog file-name prefix for the tier.
func (q Quality) Prefix() string {
	switch q {
	case QualityFLAC:
		return "F000"
	case Quality320:
		return "M800"
	default:
		return "M500"
	}
}

// Sequence returns the tiers to attempt, best first.
//
// With preferFLAC the sequence is [FLAC, 320kbps, 128kbps]; otherwise it is
// [320kbps, 128kbps]. A fresh slice is returned on every call.
func Sequence(preferFLAC bool) []Quality {
	if preferFLAC {
		return []Quality{QualityFLAC, Quality320, Quality128}
	}
	return []Quality{Quality320, Quality128}
}

// AnonymousSequence is the sequence used when restricted content has no
// usable credential.
func AnonymousSequence() []Quality {
	return []Quality{Quality128}
}
