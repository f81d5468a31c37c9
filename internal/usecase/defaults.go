package usecase

import (
	"bytes"
	"encoding/json"
	"fmt"

	"adintel/internal/domain"
	"adintel/internal/engine"
	"adintel/pkg/config"
)

// Defaults is what a request falls back to when it carries no session or
// pivot and the user has nothing saved.
type Defaults struct {
	Session domain.Session
	Pivot   domain.PivotSpec
}

// BuildDefaults validates a report config file through the persisted-config
// decoders. A nil rd yields the built-in defaults.
func BuildDefaults(rd *config.ReportDefaults) (Defaults, []string) {
	d := Defaults{Session: engine.DefaultSession(), Pivot: engine.DefaultPivotSpec()}
	if rd == nil {
		return d, nil
	}

	var issues []string
	var more []string

	d.Session.Mappings, more = engine.DecodeMappings(rd.Mappings)
	issues = append(issues, more...)

	d.Session.Dimensions, more = engine.DecodeDimensions(rd.Dimensions)
	issues = append(issues, more...)

	d.Session.Formulas, more = engine.DecodeFormulas(rd.Formulas, engine.BaseKeys(d.Session))
	issues = append(issues, more...)

	if len(rd.Pivot) > 0 {
		pivot := engine.DefaultPivotSpec()
		if err := json.Unmarshal(rd.Pivot, &pivot); err != nil {
			issues = append(issues, fmt.Sprintf("pivot: %v, using defaults", err))
		} else {
			d.Pivot = pivot
		}
	}

	return d, issues
}

// InlineSession is a session sent with a request. Sections stay raw so they
// pass through the same decoders as stored config; an absent section uses
// the defaults.
type InlineSession struct {
	Mappings   json.RawMessage `json:"mappings,omitempty"`
	Dimensions json.RawMessage `json:"dimensions,omitempty"`
	Formulas   json.RawMessage `json:"formulas,omitempty"`
}

// decodeInline validates an inline session section by section. Issues are
// keyed by the config kind of the section they came from.
func decodeInline(in InlineSession, d domain.Session) (domain.Session, map[domain.ConfigKind][]string) {
	sess := d
	issues := make(map[domain.ConfigKind][]string)

	if !absent(in.Mappings) {
		sess.Mappings, issues[domain.ConfigMetrics] = engine.DecodeMappings(in.Mappings)
	}
	if !absent(in.Dimensions) {
		sess.Dimensions, issues[domain.ConfigDimensions] = engine.DecodeDimensions(in.Dimensions)
	}
	if !absent(in.Formulas) {
		sess.Formulas, issues[domain.ConfigFormulas] = engine.DecodeFormulas(in.Formulas, engine.BaseKeys(sess))
	}
	return sess, issues
}

func absent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
