package models

// ParsedComponent is one labeled run of an address.
type ParsedComponent struct {
	Label string `json:"label" bson:"label"`
	Value string `json:"value" bson:"value"`
}

// LabeledToken is one input token with its label ("null" for whitespace
// and punctuation).
type LabeledToken struct {
	Text  string `json:"text" bson:"text"`
	Label string `json:"label" bson:"label"`
}

// LanguageScore is one classified language.
type LanguageScore struct {
	Language string  `json:"language" bson:"language"`
	Score    float64 `json:"score" bson:"score"`
}

// AddressResult is the outcome of one operation on one address.
type AddressResult struct {
	Raw          string            `json:"raw" bson:"raw"`
	Fingerprint  string            `json:"fingerprint" bson:"fingerprint"`
	Operation    string            `json:"operation" bson:"operation"`
	Languages    []LanguageScore   `json:"languages,omitempty" bson:"languages,omitempty"`
	Tokens       []LabeledToken    `json:"tokens,omitempty" bson:"tokens,omitempty"`
	Components   []ParsedComponent `json:"components,omitempty" bson:"components,omitempty"`
	ComponentMap map[string]string `json:"component_map,omitempty" bson:"component_map,omitempty"`
	Expansions   []string          `json:"expansions,omitempty" bson:"expansions,omitempty"`
	Status       string            `json:"status" bson:"status"`
	Error        string            `json:"error,omitempty" bson:"error,omitempty"`
}

// Operations
const (
	OperationParse    = "parse"
	OperationExpand   = "expand"
	OperationClassify = "classify"
)

// Status values
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// IsValidStatus reports whether Status is a known value.
func (ar *AddressResult) IsValidStatus() bool {
	return ar.Status == StatusOK || ar.Status == StatusFailed
}

// Component returns the value of the first component with label.
func (ar *AddressResult) Component(label string) (string, bool) {
	for _, c := range ar.Components {
		if c.Label == label {
			return c.Value, true
		}
	}
	return "", false
}
