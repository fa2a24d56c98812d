// Package report turns an assembled briefing into operator-facing text.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"MarketBriefing/internal/domain"
	"MarketBriefing/internal/usecase"
)

const (
	ruleWidth     = 88
	unknownAuthor = "Unknown"
)

var rule = strings.Repeat("=", ruleWidth)

// Render writes the plain-text briefing. topK bounds each topic block.
func Render(w io.Writer, b domain.Briefing, topK int) error {
	_, err := io.WriteString(w, Format(b, topK))
	return err
}

// Format returns the plain-text briefing.
func Format(b domain.Briefing, topK int) string {
	var sb strings.Builder
	loc := b.GeneratedAt.Location()

	sb.WriteString(rule + "\n")
	fmt.Fprintf(&sb, "PRE-MARKET BRIEFING - %s | mode=%s | %s\n", Header(b.GeneratedAt), b.Mode, b.WindowLabel)
	sb.WriteString(rule + "\n")
	if b.ClassifierMode != "" {
		fmt.Fprintf(&sb, "sentiment: %s\n", b.ClassifierMode)
	}

	sb.WriteString("\nHEADLINES BY TOPIC\n")
	for _, t := range b.Topics {
		writeTopic(&sb, t, topK, loc)
	}

	sb.WriteString(rule + "\n")
	sb.WriteString("KEY METRICS\n")
	fmt.Fprintf(&sb, "- Overall: %d items | Sentiment totals: %d pos / %d neg / %d neutral\n",
		b.ItemCount(),
		b.Totals.Get(domain.Positive),
		b.Totals.Get(domain.Negative),
		b.Totals.Get(domain.Neutral),
	)
	for _, t := range b.Topics {
		fmt.Fprintf(&sb, "- %-6s: %d items\n", strings.ToUpper(t.Topic), len(t.Ranked))
	}

	sb.WriteString("\nTOP HIGHLIGHTS (global)\n")
	if len(b.Highlights) == 0 {
		sb.WriteString("(No headlines returned - your feeds may be blocked, or your time window is too tight.)\n")
	} else {
		for i, h := range b.Highlights {
			writeItem(&sb, i+1, h, loc, false)
		}
	}

	writeInsiders(&sb, b.Insiders)
	writePoliticians(&sb, b.Politicians)
	sb.WriteString("\n")

	return sb.String()
}

// Header formats the generation time as "mon jan 5 2026 1:31am ET".
func Header(t time.Time) string {
	return strings.ToLower(t.Format("Mon Jan 2 2006 3:04pm")) + " " + usecase.ZoneLabel(t)
}

// Meta formats the author and publication time of a headline in loc.
func Meta(h domain.ScoredHeadline, loc *time.Location) string {
	who := strings.TrimSpace(h.Author)
	if who == "" {
		who = unknownAuthor
	}
	if h.PublishedAt != nil {
		t := h.PublishedAt.In(loc)
		return fmt.Sprintf("%s %s %s %s", who, t.Format("3:04pm"), t.Format("01/02/06"), usecase.ZoneLabel(t))
	}
	if raw := strings.TrimSpace(h.PublishedRaw); raw != "" {
		return who + " " + raw
	}
	return who + " Unknown time"
}

func writeTopic(sb *strings.Builder, t domain.TopicReport, topK int, loc *time.Location) {
	n := max(min(topK, len(t.Ranked)), 0)
	fmt.Fprintf(sb, "\n%s - top %d\n\n", strings.ToUpper(t.Topic), n)
	if n == 0 {
		sb.WriteString("(none)\n\n")
		return
	}
	for i, h := range t.Ranked[:n] {
		writeItem(sb, i+1, h, loc, true)
	}
}

func writeItem(sb *strings.Builder, rank int, h domain.ScoredHeadline, loc *time.Location, spaced bool) {
	fmt.Fprintf(sb, "%d. [%s] conf %.2f %s | %s\n", rank, h.Label, h.Confidence, h.Source, Meta(h, loc))
	fmt.Fprintf(sb, "   %s\n", h.Title)
	fmt.Fprintf(sb, "   %s\n", h.Link)
	if spaced {
		sb.WriteString("\n")
	}
}

func writeInsiders(sb *strings.Builder, s domain.DisclosureSection[domain.InsiderFiling]) {
	sb.WriteString("\nINSIDERS (SEC Form 4) - recent filings\n")
	if !s.Available() {
		writeNotice(sb, s.Notice)
		return
	}
	if len(s.Items) == 0 {
		sb.WriteString("(none)\n")
		return
	}
	for _, f := range s.Items {
		fmt.Fprintf(sb, "- %-6s %-5s %s %s\n", strings.ToUpper(f.Topic), f.Ticker, f.FilingDate, f.URL)
	}
}

func writePoliticians(sb *strings.Builder, s domain.DisclosureSection[domain.CongressTrade]) {
	sb.WriteString("\nPOLITICIANS (Stock Act) - disclosures\n")
	if !s.Available() {
		writeNotice(sb, s.Notice)
		return
	}
	if len(s.Items) == 0 {
		sb.WriteString("(none)\n")
		return
	}
	for _, tr := range s.Items {
		topic := strings.ToUpper(tr.Topic)
		if topic == "" {
			topic = "-"
		}
		fmt.Fprintf(sb, "- %-6s %-5s %s %s %s %s\n", topic, tr.Ticker, tr.Politician, tr.Transaction, tr.Date, tr.Amount)
	}
}

func writeNotice(sb *strings.Builder, lines []string) {
	for i, l := range lines {
		if i == 0 {
			sb.WriteString("- " + l + "\n")
			continue
		}
		sb.WriteString("  " + l + "\n")
	}
}
