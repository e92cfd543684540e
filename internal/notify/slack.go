// Package notify posts budget alerts and usage digests to Slack. Every
// entry point is a no-op when Slack is not configured, so callers never
// need to guard.
package notify

import (
	"fmt"
	"log"
	"strings"

	"github.com/slack-go/slack"

	"docforge/internal/ledger"
)

// Notifier posts run notifications to one channel.
type Notifier struct {
	api       *slack.Client
	channelID string
}

// New builds a notifier. Empty token or channel returns a disabled one.
func New(botToken, channelID string) *Notifier {
	if strings.TrimSpace(botToken) == "" || strings.TrimSpace(channelID) == "" {
		return &Notifier{}
	}
	return &Notifier{api: slack.New(botToken), channelID: channelID}
}

// Enabled reports whether messages will actually be sent.
func (n *Notifier) Enabled() bool {
	return n.api != nil
}

// PostRunSummary announces a completed generation run.
func (n *Notifier) PostRunSummary(documentTitle string, sum ledger.Summary, rep ledger.Report) {
	var b strings.Builder
	fmt.Fprintf(&b, "Document run complete: %s\n", documentTitle)
	fmt.Fprintf(&b, "Sections: %d | Tokens: %d in / %d out | Cost: %s (target %s)\n",
		sum.Writer.SectionCount, sum.Total.InputTokens, sum.Total.OutputTokens,
		ledger.FormatUSD(sum.Total.Cost), ledger.FormatUSD(rep.CostTarget))
	for _, s := range rep.Suggestions {
		fmt.Fprintf(&b, "• %s\n", s.Message)
	}
	n.post(b.String())
}

// PostBudgetAlert fires only when the run exceeded its cost target.
func (n *Notifier) PostBudgetAlert(documentTitle string, rep ledger.Report) {
	if rep.WithinTarget {
		return
	}
	n.post(fmt.Sprintf(":warning: Budget exceeded for %s: %s against a %s target",
		documentTitle, ledger.FormatUSD(rep.TotalCost), ledger.FormatUSD(rep.CostTarget)))
}

func (n *Notifier) post(text string) {
	if !n.Enabled() {
		return
	}
	if _, _, err := n.api.PostMessage(n.channelID, slack.MsgOptionText(text, false)); err != nil {
		log.Printf("slack post error: %v", err)
	}
}
