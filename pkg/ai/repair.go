package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var repairOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "gradewise",
	Subsystem: "ai",
	Name:      "json_repairs_total",
	Help:      "Number of JSON repair passes by outcome",
}, []string{"outcome"})

var (
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
	// Naive on purpose: quotes any bare word before a colon and can corrupt
	// values that themselves contain a colon. Acceptable only as the final
	// fallback before giving up.
	bareKey = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
)

// Repairer recovers unparsable JSON from model responses: first by re-asking
// the model with the broken text and the parser error, then by a
// deterministic cleanup pass. It never fabricates data; when every pass
// fails the caller gets a typed error and must fall back per unit.
type Repairer struct {
	client ModelClient
	logger zerolog.Logger
}

// NewRepairer builds a repairer. A nil client skips the model-assisted pass
// and goes straight to the deterministic cleanup.
func NewRepairer(client ModelClient, logger zerolog.Logger) *Repairer {
	return &Repairer{
		client: client,
		logger: logger.With().Str("component", "json_repairer").Logger(),
	}
}

// Repair returns a parsable JSON document recovered from broken text, or
// ErrRepairFailed when neither the model nor the cleanup pass could fix it.
func (r *Repairer) Repair(ctx context.Context, broken string, parseErr error, shape JSONShape) (string, error) {
	parserMessage := ""
	if parseErr != nil {
		parserMessage = parseErr.Error()
	}

	if r.client != nil {
		fixed, err := r.client.Generate(ctx, BuildRepairPrompt(broken, parserMessage))
		if err != nil {
			r.logger.Warn().Err(err).Msg("model-assisted repair call failed")
		} else {
			candidate := ExtractJSON(fixed, shape)
			if json.Valid([]byte(candidate)) {
				repairOutcomes.WithLabelValues("model").Inc()
				return candidate, nil
			}
			r.logger.Warn().Msg("model-assisted repair returned unparsable json")
		}
	}

	cleaned := CleanJSON(broken)
	if json.Valid([]byte(cleaned)) {
		repairOutcomes.WithLabelValues("deterministic").Inc()
		return cleaned, nil
	}

	repairOutcomes.WithLabelValues("failed").Inc()
	return "", fmt.Errorf("%w: %s", ErrRepairFailed, parserMessage)
}

// CleanJSON applies the deterministic last-resort fixups: strip control
// characters, drop trailing commas before closing braces, and quote bare
// object keys.
func CleanJSON(input string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, input)

	cleaned = trailingComma.ReplaceAllString(cleaned, "$1")
	cleaned = bareKey.ReplaceAllString(cleaned, `$1"$2":`)

	return strings.TrimSpace(cleaned)
}
