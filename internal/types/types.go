package types

// Severity of a rule. Every rule blocks the gate; there is no warning tier.
type Severity string

const SevBlocking Severity = "blocking"

// Verdict is the outcome of one scan.
type Verdict string

const (
	VerdictPass Verdict = "pass"
	VerdictFail Verdict = "fail"
)

// Violation records one rule matching one line of one file. Path is relative
// to the scan root and always uses forward slashes.
type Violation struct {
	Path        string `json:"path"`
	Line        int    `json:"line"`
	Column      int    `json:"column"`
	Rule        string `json:"rule"`
	Match       string `json:"match"`
	Text        string `json:"text"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// Report is the terminal artifact of a scan.
type Report struct {
	Verdict    Verdict     `json:"verdict"`
	Violations []Violation `json:"violations"`
}
