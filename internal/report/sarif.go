package report

import (
	"encoding/json"
	"io"

	"github.com/accrava/textgate/internal/rules"
	"github.com/accrava/textgate/internal/types"
)

const (
	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
	sarifVersion = "2.1.0"
)

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool       sarifTool      `json:"tool"`
	Results    []sarifResult  `json:"results"`
	Properties map[string]any `json:"properties,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version,omitempty"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           int               `json:"ruleIndex"`
	Level               string            `json:"level"`
	Message             sarifMessage      `json:"message"`
	Locations           []sarifLocation   `json:"locations"`
	PartialFingerprints map[string]string `json:"partialFingerprints"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysical `json:"physicalLocation"`
}

type sarifPhysical struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
	Region           sarifRegion   `json:"region"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn,omitempty"`
}

// SARIFOptions describes the producing tool. Counts land in run.properties.
type SARIFOptions struct {
	ToolVersion  string
	FilesScanned int
	FilesSkipped int
}

// WriteSARIF emits a SARIF 2.1.0 log for code-scanning upload. Every rule in
// set is listed, matched or not.
func WriteSARIF(w io.Writer, r types.Report, set rules.Set, opts SARIFOptions) error {
	index := make(map[string]int, len(set))
	sr := make([]sarifRule, 0, len(set))
	for i, rule := range set {
		index[rule.ID()] = i
		desc := rule.Description()
		if desc == "" {
			desc = "forbidden " + string(rule.Kind()) + " pattern: " + rule.Pattern()
		}
		sr = append(sr, sarifRule{ID: rule.ID(), ShortDescription: sarifMessage{Text: desc}})
	}

	results := make([]sarifResult, 0, len(r.Violations))
	for _, v := range r.Violations {
		fp := v.Fingerprint
		if fp == "" {
			fp = Fingerprint(v)
		}
		results = append(results, sarifResult{
			RuleID:    v.Rule,
			RuleIndex: index[v.Rule],
			Level:     "error",
			Message:   sarifMessage{Text: "forbidden content: " + v.Match},
			Locations: []sarifLocation{{PhysicalLocation: sarifPhysical{
				ArtifactLocation: sarifArtifact{URI: v.Path},
				Region:           sarifRegion{StartLine: v.Line, StartColumn: v.Column},
			}}},
			PartialFingerprints: map[string]string{"textgate/v1": fp},
		})
	}

	doc := sarifLog{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:           "textgate",
				Version:        opts.ToolVersion,
				InformationURI: "https://github.com/accrava/textgate",
				Rules:          sr,
			}},
			Results: results,
			Properties: map[string]any{
				"verdict":      r.Verdict,
				"filesScanned": opts.FilesScanned,
				"filesSkipped": opts.FilesSkipped,
			},
		}},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
