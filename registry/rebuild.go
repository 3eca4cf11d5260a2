package registry

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/jonwraymond/toolsandbox/discover"
	"github.com/jonwraymond/toolsandbox/manifest"
)

// Report summarizes one discovery pass. Discovery-time failures are
// recovered locally: they appear here and in the log, and never abort the
// pass.
type Report struct {
	// Registered is the number of tools in the new generation.
	Registered int

	// Warnings are incomplete candidate directories.
	Warnings []discover.Warning

	// Invalid are candidates whose manifest failed validation.
	Invalid []InvalidBundle

	// Duplicates are candidates rejected for name collisions.
	Duplicates []*DuplicateError
}

// InvalidBundle records a candidate excluded for a bad manifest.
type InvalidBundle struct {
	// Path is the candidate's manifest file.
	Path string

	// Err is the validation failure.
	Err error
}

// Rebuild runs one full discovery pass over the skills root and returns
// the resulting generation. The caller decides when to Publish it.
func Rebuild(root string, logger zerolog.Logger) (*Snapshot, Report) {
	candidates, warnings := discover.Scan(root)
	report := Report{Warnings: warnings}

	for _, w := range warnings {
		logger.Warn().Str("path", w.Path).Str("reason", w.Reason).Msg("skipping tool candidate")
	}

	builder := NewBuilder()
	for _, c := range candidates {
		m, err := manifest.Load(c.ManifestPath)
		if err != nil {
			report.Invalid = append(report.Invalid, InvalidBundle{Path: c.ManifestPath, Err: err})
			logger.Warn().Str("path", c.ManifestPath).Err(err).Msg("skipping tool: bad manifest")
			continue
		}

		err = builder.Add(Bundle{Manifest: m, ModulePath: c.ModulePath, Source: c.Dir})
		if err != nil {
			var dup *DuplicateError
			if errors.As(err, &dup) {
				report.Duplicates = append(report.Duplicates, dup)
				logger.Warn().Str("name", dup.Name).Str("existing", dup.Existing).
					Str("rejected", dup.Rejected).Msg("skipping tool: duplicate name")
				continue
			}
			report.Invalid = append(report.Invalid, InvalidBundle{Path: c.ManifestPath, Err: err})
			continue
		}
		logger.Debug().Str("name", m.Name).Str("module", c.ModulePath).Msg("registered tool")
	}

	snap := builder.Snapshot()
	report.Registered = snap.Len()
	return snap, report
}
