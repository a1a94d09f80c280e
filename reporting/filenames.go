package reporting

import (
	"fmt"
	"time"
)

// filenameTimestamp renders as YYYY-MM-DD-HH-mm-ss
const filenameTimestamp = "2006-01-02-15-04-05"

// FilenameResolver decides the output filename for each format
type FilenameResolver struct {
	overrides map[Format]string
	suffixRun bool
}

// NewFilenameResolver creates a resolver. Overrides take precedence over the
// timestamped default for the formats they name.
func NewFilenameResolver(overrides map[Format]string) *FilenameResolver {
	o := make(map[Format]string, len(overrides))
	for f, name := range overrides {
		if name != "" {
			o[f] = name
		}
	}
	return &FilenameResolver{overrides: o}
}

// WithRunSuffix appends the first 8 characters of the run ID to default
// filenames, so reports generated in the same second do not collide.
func (fr *FilenameResolver) WithRunSuffix(enabled bool) *FilenameResolver {
	fr.suffixRun = enabled
	return fr
}

// Resolve returns the filename for the format, stamped with the report's
// generation time in that time's location.
func (fr *FilenameResolver) Resolve(format Format, data *ReportData) string {
	if name, ok := fr.overrides[format]; ok {
		return name
	}
	if fr.suffixRun && data.RunID != "" {
		stamp := data.Timestamp.Format(filenameTimestamp)
		return fmt.Sprintf("report-%s-%s.%s", stamp, shortID(data.RunID), format.Extension())
	}
	return DefaultFilename(format, data.Timestamp)
}

// DefaultFilename returns the timestamped filename for a format
func DefaultFilename(format Format, at time.Time) string {
	return fmt.Sprintf("report-%s.%s", at.Format(filenameTimestamp), format.Extension())
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
