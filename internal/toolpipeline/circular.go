package toolpipeline

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/coreflux/agentturn/pkg/models"
)

// fingerprint returns the (name, args) hash used for circular-call
// detection: md5(lower(name) + ":" + strip(argsJSON)) (spec §4.3 step 4).
func fingerprint(name, argsJSON string) string {
	sum := md5.Sum([]byte(strings.ToLower(name) + ":" + strings.TrimSpace(argsJSON)))
	return hex.EncodeToString(sum[:])
}

// circularDetector tracks the consecutive run of identical calls and scans
// the full previous-call history for near-duplicates by argument
// similarity. It is rebuilt fresh at the start of every pipeline Execute
// call from SessionState.PreviousToolCalls (invariant I6: that slice is
// append-only and owned by the session, not the detector).
type circularDetector struct {
	cfg  *Config
	last string
	runs int
}

func newCircularDetector(cfg *Config, history []models.PreviousToolCall) *circularDetector {
	d := &circularDetector{cfg: cfg}
	for _, call := range history {
		fp := fingerprint(call.Name, call.Args)
		if fp == d.last {
			d.runs++
		} else {
			d.last = fp
			d.runs = 1
		}
	}
	return d
}

// Check reports whether calling name with argsJSON would exceed the
// circular-call budget, consulting both the consecutive-run counter and a
// global similarity scan against every prior call (spec §4.3 step 4: "not
// just consecutive calls").
func (d *circularDetector) Check(name, argsJSON string, history []models.PreviousToolCall) bool {
	fp := fingerprint(name, argsJSON)

	runs := d.runs
	if fp == d.last {
		runs++
	} else {
		runs = 1
	}
	if runs > d.cfg.MaxSimilarToolCalls {
		return true
	}

	similar := 0
	for _, call := range history {
		if !strings.EqualFold(call.Name, name) {
			continue
		}
		if argsSimilar(d.cfg, call.Args, argsJSON) {
			similar++
		}
	}
	return similar >= d.cfg.MaxSimilarToolCalls-1
}

// argsSimilar applies the empty-args special case: both empty counts as
// similar, one empty and one non-empty never does (spec §4.3 step 4).
func argsSimilar(cfg *Config, a, b string) bool {
	aEmpty := strings.TrimSpace(a) == ""
	bEmpty := strings.TrimSpace(b) == ""
	if aEmpty && bEmpty {
		return true
	}
	if aEmpty != bEmpty {
		return false
	}
	return similarityRatio(a, b) >= cfg.SimilarityThreshold
}

// Record updates the consecutive-run counter after a call has been allowed
// to execute.
func (d *circularDetector) Record(name, argsJSON string) {
	fp := fingerprint(name, argsJSON)
	if fp == d.last {
		d.runs++
	} else {
		d.last = fp
		d.runs = 1
	}
}
