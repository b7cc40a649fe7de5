package cliui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/papercomputeco/ragline/pkg/generation"
	"github.com/papercomputeco/ragline/pkg/retrieval"
	"github.com/papercomputeco/ragline/pkg/utils"
)

const previewRunes = 160

var (
	rankStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	titleStyle    = lipgloss.NewStyle().Bold(true)
	scoreStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	categoryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

// RenderResult writes the ranked candidates of a retrieval result.
func RenderResult(w io.Writer, result *retrieval.Result) {
	fmt.Fprintf(w, "%s %s\n\n",
		StepStyle.Render("category:"),
		categoryStyle.Render(string(result.Category)),
	)

	if len(result.Candidates) == 0 {
		fmt.Fprintln(w, StepStyle.Render(generation.NoContextAnswer))
		return
	}

	for i, c := range result.Candidates {
		fmt.Fprintf(w, "%s %s %s %s\n",
			rankStyle.Render(fmt.Sprintf("%2d.", i+1)),
			titleStyle.Render(c.Chunk.Title),
			StepStyle.Render(fmt.Sprintf("[%s#%d]", c.Chunk.DocumentID, c.Chunk.ChunkIndex)),
			scoreStyle.Render(fmt.Sprintf("%.3f", c.Similarity)),
		)
		fmt.Fprintf(w, "    %s\n", Preview(c.Chunk.Content, previewRunes))
	}
}

// Preview flattens whitespace and truncates s to n runes.
func Preview(s string, n int) string {
	return utils.Truncate(utils.Flatten(s), n)
}

// AnswerMarkdown formats a structured answer as markdown, one section per
// schema field in schema order. Empty fields are skipped.
func AnswerMarkdown(answer *generation.Answer) (string, error) {
	if answer.NoContext {
		return "_" + answer.Message + "_\n", nil
	}

	raw, err := json.Marshal(answer.Data)
	if err != nil {
		return "", fmt.Errorf("encoding answer: %w", err)
	}

	var values map[string]any
	if err := json.Unmarshal(raw, &values); err != nil {
		return "", fmt.Errorf("decoding answer: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", answer.Schema)

	for _, f := range answer.Schema.Fields() {
		switch v := values[f.Name].(type) {
		case string:
			if v == "" {
				continue
			}
			fmt.Fprintf(&b, "**%s**: %s\n\n", label(f.Name), v)
		case []any:
			if len(v) == 0 {
				continue
			}
			fmt.Fprintf(&b, "**%s**\n\n", label(f.Name))
			for _, item := range v {
				fmt.Fprintf(&b, "- %v\n", item)
			}
			b.WriteString("\n")
		}
	}

	return b.String(), nil
}

// label turns a snake_case key into a heading.
func label(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
