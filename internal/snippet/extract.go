package snippet

import "strings"

// actionHeuristics maps id substrings to a guessed type and action for
// the degraded extraction path. Checked in order; first hit wins.
var actionHeuristics = []struct {
	substring string
	guessType string
	action    string
}{
	{"worktree", TypeClaimWorktree, "claim-worktree"},
	{"section", TypeSmartSection, "render-smart-section"},
	{"metric", TypeMetric, "show-metric"},
	{"invite", TypeInviteMember, "invite-member"},
	{"chat", TypeChatSuggestion, "suggest-chat"},
	{"team", TypeTeam, "create-team"},
	{"agent", TypeAgent, "add-agent"},
	{"task", TypeTask, "create-task"},
}

// ExtractFromRendered recovers snippets from text that already contains
// rendered placeholder markers, typically produced by an external
// generator whose structured metadata was lost.
//
// This is a best-effort fallback: the action is inferred by substring
// heuristics on the placeholder id and defaults to create-task. Use
// Parse whenever the directive source is available.
func ExtractFromRendered(rendered string) []Snippet {
	var snippets []Snippet

	idx := 0

	for {
		open := strings.Index(rendered[idx:], placeholderOpen)
		if open == -1 {
			return snippets
		}

		idStart := idx + open + len(placeholderOpen)

		closeRel := strings.Index(rendered[idStart:], placeholderClose)
		if closeRel == -1 {
			return snippets
		}

		id := rendered[idStart : idStart+closeRel]
		idx = idStart + closeRel + len(placeholderClose)

		if id == "" || strings.ContainsAny(id, " \n") {
			continue
		}

		guessType, action := guessFromID(id)
		snippets = append(snippets, Snippet{
			ID:     id,
			Type:   guessType,
			Action: action,
		})
	}
}

func guessFromID(id string) (string, string) {
	lower := strings.ToLower(id)

	for _, h := range actionHeuristics {
		if strings.Contains(lower, h.substring) {
			return h.guessType, h.action
		}
	}

	// Nothing matched; degrade to the most common affordance.
	return TypeTask, "create-task"
}
