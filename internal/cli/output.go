package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/yungbote/accord-backend/internal/domain/decision"
	"github.com/yungbote/accord-backend/internal/pkg/pointers"
)

type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Print writes v as indented JSON, or as text via the text callback.
func (f *OutputFormatter) Print(v any, text func(w io.Writer)) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(f.Writer)
	return nil
}

func writeDecisionLine(w io.Writer, d *decision.Decision) {
	status := "active"
	if d.IsSuperseded {
		status = "superseded"
	}
	fmt.Fprintf(w, "%s  %s  %-10s  %s\n", d.ID, d.CreatedAt.UTC().Format(time.RFC3339), status, oneLine(d.DecisionText))
}

func writeDecisionDetail(w io.Writer, d *decision.Decision) {
	fmt.Fprintf(w, "ID:          %s\n", d.ID)
	fmt.Fprintf(w, "Decision:    %s\n", d.DecisionText)
	if r := pointers.Deref(d.Rationale); r != "" {
		fmt.Fprintf(w, "Rationale:   %s\n", r)
	}
	fmt.Fprintf(w, "Author:      %s\n", d.UserID)
	fmt.Fprintf(w, "Created:     %s\n", d.CreatedAt.UTC().Format(time.RFC3339))
	if p := pointers.Deref(d.SourcePlatform); p != "" {
		fmt.Fprintf(w, "Source:      %s\n", p)
	}
	if l := pointers.Deref(d.SourceLink); l != "" {
		fmt.Fprintf(w, "Link:        %s\n", l)
	}
	fmt.Fprintf(w, "Superseded:  %t\n", d.IsSuperseded)
	if d.SupersedesDecisionID != nil {
		fmt.Fprintf(w, "Supersedes:  %s\n", *d.SupersedesDecisionID)
	}
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 80 {
		return s[:77] + "..."
	}
	return s
}
