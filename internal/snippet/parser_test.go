package snippet_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/boardfile-dev/boardfile/internal/snippet"
)

func Test_Parse_Extracts_Snippet_When_Directive_Has_Quoted_Attr(t *testing.T) {
	t.Parallel()

	doc := snippet.Parse(`Fix the bug ::task[Patch auth check]{priority="high"}`)

	if len(doc.Snippets) != 1 {
		t.Fatalf("snippets = %d, want 1", len(doc.Snippets))
	}

	snip := doc.Snippets[0]

	if snip.Type != snippet.TypeTask || snip.Text != "Patch auth check" || snip.Action != "create-task" {
		t.Fatalf("snippet = %+v", snip)
	}

	wantAttrs := []snippet.Attr{{Key: "priority", Value: "high"}}
	if diff := cmp.Diff(wantAttrs, snip.Attrs); diff != "" {
		t.Fatalf("attrs mismatch (-want +got):\n%s", diff)
	}

	wantRendered := "Fix the bug " + snippet.Placeholder(snip.ID)
	if doc.Rendered != wantRendered {
		t.Fatalf("rendered = %q, want %q", doc.Rendered, wantRendered)
	}
}

func Test_Parse_Extracts_All_When_Directives_Are_Adjacent(t *testing.T) {
	t.Parallel()

	doc := snippet.Parse("::task[One]::agent[Two]{model=opus}")

	if len(doc.Snippets) != 2 {
		t.Fatalf("snippets = %d, want 2", len(doc.Snippets))
	}

	if doc.Snippets[0].Text != "One" || doc.Snippets[1].Text != "Two" {
		t.Fatalf("labels = %q, %q", doc.Snippets[0].Text, doc.Snippets[1].Text)
	}

	want := snippet.Placeholder(doc.Snippets[0].ID) + snippet.Placeholder(doc.Snippets[1].ID)
	if doc.Rendered != want {
		t.Fatalf("rendered = %q", doc.Rendered)
	}
}

func Test_Parse_Stops_Label_At_First_Closing_Bracket(t *testing.T) {
	t.Parallel()

	doc := snippet.Parse("::task[outer [inner] rest")

	if len(doc.Snippets) != 1 {
		t.Fatalf("snippets = %d, want 1", len(doc.Snippets))
	}

	if doc.Snippets[0].Text != "outer [inner" {
		t.Fatalf("label = %q, want %q", doc.Snippets[0].Text, "outer [inner")
	}

	if !strings.HasSuffix(doc.Rendered, " rest") {
		t.Fatalf("rendered = %q", doc.Rendered)
	}
}

func Test_Parse_Yields_Empty_Attrs_When_Braces_Are_Empty_Or_Absent(t *testing.T) {
	t.Parallel()

	for name, input := range map[string]string{
		"empty braces": "::task[A]{}",
		"no braces":    "::task[A]",
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			doc := snippet.Parse(input)

			if len(doc.Snippets) != 1 {
				t.Fatalf("snippets = %d, want 1", len(doc.Snippets))
			}

			if len(doc.Snippets[0].Attrs) != 0 {
				t.Fatalf("attrs = %+v, want empty", doc.Snippets[0].Attrs)
			}
		})
	}
}

func Test_Parse_Keeps_Snippet_When_Type_Is_Unknown(t *testing.T) {
	t.Parallel()

	doc := snippet.Parse("::frobnicate[X]{a=b}")

	if len(doc.Snippets) != 1 {
		t.Fatalf("snippets = %d, want 1", len(doc.Snippets))
	}

	snip := doc.Snippets[0]
	if snip.Known() || snip.Action != "" || snip.Type != "frobnicate" {
		t.Fatalf("unknown-type snippet = %+v", snip)
	}
}

func Test_Parse_Parses_Mixed_Attr_Styles_In_Order(t *testing.T) {
	t.Parallel()

	doc := snippet.Parse(`::smart-section[Rollup]{prompt="summarize, briefly", body=raw, depth=2}`)

	if len(doc.Snippets) != 1 {
		t.Fatalf("snippets = %d, want 1", len(doc.Snippets))
	}

	snip := doc.Snippets[0]

	want := []snippet.Attr{
		{Key: "prompt", Value: "summarize, briefly"},
		{Key: "body", Value: "raw"},
		{Key: "depth", Value: "2"},
	}
	if diff := cmp.Diff(want, snip.Attrs); diff != "" {
		t.Fatalf("attrs mismatch (-want +got):\n%s", diff)
	}

	if snip.Prompt != "summarize, briefly" || snip.Body != "raw" {
		t.Fatalf("smart-section fields = %q, %q", snip.Prompt, snip.Body)
	}
}

func Test_Parse_Generates_Unique_IDs_When_Directives_Repeat(t *testing.T) {
	t.Parallel()

	doc := snippet.Parse("::task[A] ::task[A] ::task[A] ::task[A]")

	seen := make(map[string]bool)

	for _, snip := range doc.Snippets {
		if seen[snip.ID] {
			t.Fatalf("duplicate snippet id %q", snip.ID)
		}

		seen[snip.ID] = true
	}

	if len(seen) != 4 {
		t.Fatalf("ids = %d, want 4", len(seen))
	}
}

func Test_Parse_Skips_Directives_When_Inside_Code(t *testing.T) {
	t.Parallel()

	input := "Before ::task[Real]\n\n```\n::task[Fenced]\n```\n\nInline `::task[Span]` after.\n"

	doc := snippet.Parse(input)

	if len(doc.Snippets) != 1 {
		t.Fatalf("snippets = %d, want 1 (code regions must be skipped)", len(doc.Snippets))
	}

	if doc.Snippets[0].Text != "Real" {
		t.Fatalf("label = %q", doc.Snippets[0].Text)
	}

	if !strings.Contains(doc.Rendered, "::task[Fenced]") || !strings.Contains(doc.Rendered, "::task[Span]") {
		t.Fatalf("code content was rewritten: %q", doc.Rendered)
	}
}

func Test_Parse_Leaves_Text_Alone_When_Marker_Is_Not_A_Directive(t *testing.T) {
	t.Parallel()

	input := "std::vector is not a directive, nor is :: alone."

	doc := snippet.Parse(input)

	if len(doc.Snippets) != 0 {
		t.Fatalf("snippets = %+v, want none", doc.Snippets)
	}

	if doc.Rendered != input {
		t.Fatalf("rendered = %q, want unchanged input", doc.Rendered)
	}
}

func Test_ActionFor_Is_Total_Over_Known_Types(t *testing.T) {
	t.Parallel()

	known := []string{
		snippet.TypeTask, snippet.TypeAgent, snippet.TypeTeam,
		snippet.TypeWorktreeSuggestion, snippet.TypeTaskSuggestion,
		snippet.TypeSmartSection, snippet.TypeClaimWorktree,
		snippet.TypeRelatedTask, snippet.TypeChatSuggestion,
		snippet.TypeMetric, snippet.TypeAddAgent, snippet.TypeInviteMember,
	}

	for _, snippetType := range known {
		action, ok := snippet.ActionFor(snippetType)
		if !ok || action == "" {
			t.Fatalf("type %q has no action", snippetType)
		}
	}

	if _, ok := snippet.ActionFor("nonsense"); ok {
		t.Fatal("unknown type reported as known")
	}
}

func Test_Serialize_Round_Trips_When_Reparsed(t *testing.T) {
	t.Parallel()

	original := `::task[Ship it]{priority=high, assignee="a b"}`

	doc := snippet.Parse(original)
	if len(doc.Snippets) != 1 {
		t.Fatalf("snippets = %d, want 1", len(doc.Snippets))
	}

	serialized := snippet.Serialize(&doc.Snippets[0])

	redoc := snippet.Parse(serialized)
	if len(redoc.Snippets) != 1 {
		t.Fatalf("reparse snippets = %d, want 1", len(redoc.Snippets))
	}

	if diff := cmp.Diff(doc.Snippets[0].Attrs, redoc.Snippets[0].Attrs); diff != "" {
		t.Fatalf("attrs changed across serialize/parse (-want +got):\n%s", diff)
	}

	// Serialization is a fixed point: serializing the reparsed snippet
	// yields the same text.
	if again := snippet.Serialize(&redoc.Snippets[0]); again != serialized {
		t.Fatalf("serialize not stable: %q vs %q", again, serialized)
	}
}
