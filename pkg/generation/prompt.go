package generation

import (
	"fmt"
	"strings"
)

// BuildPrompt renders the instruction sent to the model: the context
// documents in rank order followed by the question and the JSON keys the
// answer must use.
func BuildPrompt(req Request) string {
	var b strings.Builder

	b.WriteString("Answer the question using only the documents below. ")
	b.WriteString("If the documents do not contain the answer, leave the fields empty.\n\n")

	for i, doc := range req.Context {
		fmt.Fprintf(&b, "Document %d: %s\n%s\n\n", i+1, doc.Title, strings.TrimSpace(doc.Content))
	}

	fmt.Fprintf(&b, "Question: %s\n\n", req.Query)
	b.WriteString("Respond with a single JSON object with these keys:\n")
	for _, f := range req.Schema.Fields() {
		kind := "string"
		if f.List {
			kind = "list of strings"
		}
		fmt.Fprintf(&b, "- %q (%s): %s\n", f.Name, kind, f.Description)
	}

	return b.String()
}
