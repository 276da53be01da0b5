package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AgentResultKind tags the AgentResult union.
type AgentResultKind int

const (
	AgentResultUnstructured AgentResultKind = iota
	AgentResultStructured
)

// AgentResult is the qualification agent's analysis: either a mapping or plain text.
type AgentResult struct {
	Kind       AgentResultKind
	Structured map[string]interface{}
	Text       string
}

// StructuredResult builds a mapping-valued AgentResult.
func StructuredResult(m map[string]interface{}) AgentResult {
	return AgentResult{Kind: AgentResultStructured, Structured: m}
}

// UnstructuredResult builds a text-valued AgentResult.
func UnstructuredResult(text string) AgentResult {
	return AgentResult{Kind: AgentResultUnstructured, Text: text}
}

// ParseAgentResult tags a raw agent reply. A JSON object is Structured,
// a JSON string is Unstructured with the decoded text, anything else is
// Unstructured with the raw body.
func ParseAgentResult(raw []byte) AgentResult {
	trimmed := strings.TrimSpace(string(raw))

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &obj); err == nil && obj != nil {
		return StructuredResult(obj)
	}

	var text string
	if err := json.Unmarshal([]byte(trimmed), &text); err == nil {
		return UnstructuredResult(text)
	}

	return UnstructuredResult(trimmed)
}

// OverallSummary returns the overall_summary field of a Structured result
// rendered as text ("" when absent), or the whole text of an Unstructured one.
func (r AgentResult) OverallSummary() string {
	switch r.Kind {
	case AgentResultStructured:
		v, ok := r.Structured["overall_summary"]
		if !ok || v == nil {
			return ""
		}
		if s, ok := v.(string); ok {
			return s
		}
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	default:
		return r.Text
	}
}

// Payload is the handler data for this result: the mapping or the text.
func (r AgentResult) Payload() interface{} {
	switch r.Kind {
	case AgentResultStructured:
		return r.Structured
	default:
		return r.Text
	}
}
