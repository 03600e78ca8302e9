package util

import (
	"github.com/rs/zerolog/log"
)

// RecordMissingAccess logs a request for a media file that does not exist.
// The recorder may simply not have produced it yet, so this stays at info.
func RecordMissingAccess(name string) {
	log.Info().Str("component", "media").Str("file", name).Msg("access to non-existent file recorded")
}
