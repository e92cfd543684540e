package notify

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"docforge/internal/ledger"
	"docforge/internal/storage/sqlite"
)

// StartDigestScheduler posts a periodic cost digest of archived runs and
// prunes the archive past the retention window. The schedule is a
// standard 5-field cron expression (minute hour day-of-month month
// day-of-week). Examples: "0 9 * * *" (daily 9am), "0 9 * * 1" (Mondays 9am).
func StartDigestScheduler(schedule string, db *sql.DB, n *Notifier, retentionDays int) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		log.Println("Usage digest disabled (digest_schedule not set)")
		return
	}
	if !n.Enabled() {
		log.Println("Usage digest disabled: Slack is not configured")
		return
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		log.Printf("Invalid digest_schedule '%s': %v (digest disabled)", schedule, err)
		return
	}

	log.Printf("Usage digest scheduled (cron: %s), retention %d days", schedule, retentionDays)

	go func() {
		prev := time.Now()
		for {
			now := time.Now()
			next := sched.Next(now)
			wait := next.Sub(now)
			log.Printf("Next usage digest at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

			time.Sleep(wait)

			n.post(buildDigest(db, prev))
			prev = time.Now()

			cutoff := time.Now().AddDate(0, 0, -retentionDays)
			if pruned, pruneErr := sqlite.PruneRuns(db, cutoff); pruneErr != nil {
				log.Printf("archive prune error: %v", pruneErr)
			} else if pruned > 0 {
				log.Printf("archive pruned runs=%d cutoff=%s", pruned, cutoff.Format("2006-01-02"))
			}
		}
	}()
}

// buildDigest aggregates runs archived since the previous digest.
func buildDigest(db *sql.DB, since time.Time) string {
	runs, err := sqlite.RunsSince(db, since)
	if err != nil {
		log.Printf("digest query error: %v", err)
		return "Usage digest: archive query failed, see logs"
	}
	if len(runs) == 0 {
		return fmt.Sprintf("Usage digest: no document runs since %s", since.Format("Jan 2 15:04"))
	}

	var totalCost float64
	var inTokens, outTokens int64
	var sections int
	for _, r := range runs {
		totalCost += r.TotalCost
		inTokens += r.InputTokens
		outTokens += r.OutputTokens
		sections += r.SectionCount
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Usage digest since %s: %d run(s), %d sections, %d in / %d out tokens, total %s\n",
		since.Format("Jan 2 15:04"), len(runs), sections, inTokens, outTokens, ledger.FormatUSD(totalCost))
	for _, r := range runs {
		fmt.Fprintf(&b, "• %s: %d sections, %s", r.DocumentTitle, r.SectionCount, ledger.FormatUSD(r.TotalCost))
		if r.ProMode {
			b.WriteString(" (pro)")
		}
		b.WriteString("\n")
	}
	return b.String()
}
