package report

import (
	"fmt"
	"strings"

	"MarketBriefing/internal/domain"
)

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// Digest renders the global highlights as a short Telegram Markdown message.
func Digest(b domain.Briefing) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*Pre-market briefing* %s\n", markdownEscaper.Replace(Header(b.GeneratedAt)))
	fmt.Fprintf(&sb, "mode=%s | %s\n", markdownEscaper.Replace(b.Mode), markdownEscaper.Replace(b.WindowLabel))
	fmt.Fprintf(&sb, "%d pos / %d neg / %d neutral\n\n",
		b.Totals.Get(domain.Positive),
		b.Totals.Get(domain.Negative),
		b.Totals.Get(domain.Neutral),
	)

	if len(b.Highlights) == 0 {
		sb.WriteString("No headlines returned.\n")
		return sb.String()
	}
	for i, h := range b.Highlights {
		fmt.Fprintf(&sb, "%d. %s %.2f %s: %s\n%s\n",
			i+1,
			h.Label,
			h.Confidence,
			markdownEscaper.Replace(strings.ToUpper(h.Topic)),
			markdownEscaper.Replace(h.Title),
			markdownEscaper.Replace(h.Link),
		)
	}
	return sb.String()
}
