// Package snippet extracts inline interactive directives from work-item
// bodies.
//
// A directive has the form
//
//	::type[label]{key=value, key="quoted value"}
//
// The attribute block is optional. Parsing walks the markdown document
// and matches directives left to right, non-overlapping, skipping
// anything inside code spans or code blocks. Each match is replaced in
// the rendered output by an opaque placeholder token carrying the
// snippet id, so a downstream renderer can substitute a widget without
// re-parsing.
package snippet

import (
	"strings"

	"github.com/google/uuid"
)

// Snippet types. The set is closed; unknown types still parse but carry
// no action (see Snippet.Known).
const (
	TypeTask               = "task"
	TypeAgent              = "agent"
	TypeTeam               = "team"
	TypeWorktreeSuggestion = "worktree-suggestion"
	TypeTaskSuggestion     = "task-suggestion"
	TypeSmartSection       = "smart-section"
	TypeClaimWorktree      = "claim-worktree"
	TypeRelatedTask        = "related-task"
	TypeChatSuggestion     = "chat-suggestion"
	TypeMetric             = "metric"
	TypeAddAgent           = "add-agent"
	TypeInviteMember       = "invite-member"
)

// actions maps every known snippet type to its action. The mapping is
// total over the closed type set so Action is never ambiguous.
var actions = map[string]string{
	TypeTask:               "create-task",
	TypeAgent:              "add-agent",
	TypeTeam:               "create-team",
	TypeWorktreeSuggestion: "suggest-worktree",
	TypeTaskSuggestion:     "suggest-task",
	TypeSmartSection:       "render-smart-section",
	TypeClaimWorktree:      "claim-worktree",
	TypeRelatedTask:        "open-related-task",
	TypeChatSuggestion:     "suggest-chat",
	TypeMetric:             "show-metric",
	TypeAddAgent:           "add-agent",
	TypeInviteMember:       "invite-member",
}

// ActionFor returns the action for a snippet type and whether the type
// is in the closed set.
func ActionFor(snippetType string) (string, bool) {
	action, ok := actions[snippetType]

	return action, ok
}

// Attr is one key=value attribute. Order is preserved from the source.
type Attr struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Snippet is one parsed directive.
type Snippet struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Text   string `json:"text"`
	Attrs  []Attr `json:"attributes,omitempty"`
	Action string `json:"action,omitempty"`

	// Prompt and Body are lifted from the attribute list for
	// smart-section snippets; empty otherwise.
	Prompt string `json:"prompt,omitempty"`
	Body   string `json:"body,omitempty"`
}

// Known reports whether the snippet's type is in the closed set.
func (s *Snippet) Known() bool {
	_, ok := actions[s.Type]

	return ok
}

// Attr returns the value for an attribute key, or "".
func (s *Snippet) Attr(key string) string {
	for _, attr := range s.Attrs {
		if attr.Key == key {
			return attr.Value
		}
	}

	return ""
}

// Document is the result of a parse pass.
type Document struct {
	// Rendered is the input with every matched directive span replaced
	// by a placeholder token. Placeholder ids correspond exactly to the
	// ids in Snippets.
	Rendered string
	Snippets []Snippet
}

// Placeholder delimiters for rendered snippet tokens.
const (
	placeholderOpen  = "{{snippet:"
	placeholderClose = "}}"
)

// Placeholder returns the rendered placeholder token for a snippet id.
func Placeholder(id string) string {
	return placeholderOpen + id + placeholderClose
}

// newID generates a snippet id. Ids embed the type so the degraded
// placeholder-extraction path can still guess an action from them.
func newID(snippetType string) string {
	return snippetType + "-" + uuid.NewString()
}

// Serialize renders a snippet back into directive source form. It is
// the inverse of parsing for the export path.
func Serialize(s *Snippet) string {
	var builder strings.Builder

	builder.WriteString("::")
	builder.WriteString(s.Type)
	builder.WriteString("[")
	builder.WriteString(s.Text)
	builder.WriteString("]")

	if len(s.Attrs) == 0 {
		return builder.String()
	}

	builder.WriteString("{")

	for idx, attr := range s.Attrs {
		if idx > 0 {
			builder.WriteString(", ")
		}

		builder.WriteString(attr.Key)
		builder.WriteString("=")

		if needsQuoting(attr.Value) {
			builder.WriteString(`"` + attr.Value + `"`)
		} else {
			builder.WriteString(attr.Value)
		}
	}

	builder.WriteString("}")

	return builder.String()
}

func needsQuoting(value string) bool {
	if value == "" {
		return true
	}

	return strings.ContainsAny(value, " \t,}{=\"")
}
