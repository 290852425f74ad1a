package internal

import (
	"log/slog"

	"github.com/starford/fileexpo/internal/models"
)

// capabilityReport explains each feature flag for the startup log.
type capabilityReport struct {
	caps    models.Capabilities
	reasons map[string]string
}

func (r *capabilityReport) set(feature string, ok bool, reason string) {
	switch feature {
	case "voice":
		r.caps.Voice = ok
	case "ai":
		r.caps.AI = ok
	case "qr":
		r.caps.QR = ok
	case "search":
		r.caps.Search = ok
	case "metrics":
		r.caps.Metrics = ok
	}
	r.reasons[feature] = reason
}

func newCapabilityReport() *capabilityReport {
	return &capabilityReport{reasons: make(map[string]string)}
}

// log writes one line per feature, warning about the disabled ones.
func (r *capabilityReport) log(logger *slog.Logger) {
	for _, f := range []struct {
		name string
		ok   bool
	}{
		{"voice", r.caps.Voice},
		{"ai", r.caps.AI},
		{"qr", r.caps.QR},
		{"search", r.caps.Search},
		{"metrics", r.caps.Metrics},
	} {
		if f.ok {
			logger.Info("capabilities: available", slog.String("feature", f.name), slog.String("detail", r.reasons[f.name]))
		} else {
			logger.Warn("capabilities: unavailable", slog.String("feature", f.name), slog.String("reason", r.reasons[f.name]))
		}
	}
}
