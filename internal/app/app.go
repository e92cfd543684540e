package app

import (
	"context"
	"log"
	"os"
	"time"

	"docforge/internal/config"
	"docforge/internal/httpx"
	"docforge/internal/imagery"
	"docforge/internal/integrations/imagesearch"
	"docforge/internal/integrations/llm"
	"docforge/internal/integrations/photos"
	"docforge/internal/ledger"
	"docforge/internal/notify"
	"docforge/internal/report"
	"docforge/internal/router"
	"docforge/internal/storage/sqlite"
)

func Main() {
	cfg := config.LoadConfig()
	appliedHTTPTimeout := httpx.ConfigureExternalHTTPClient(cfg.ExternalHTTPTimeoutSeconds)
	log.Printf(
		"Config loaded. Document=%q Sections=%d ProMode=%v ImageSearch=%v Photos=%v Slack=%v ImageTimeout=%ds CostTarget=%s ExternalHTTPTimeout=%s",
		cfg.DocumentTitle,
		len(cfg.Sections),
		cfg.ProMode,
		cfg.ImageSearchConfigured(),
		cfg.PhotosConfigured(),
		cfg.SlackConfigured(),
		cfg.ImageTimeoutSeconds,
		ledger.FormatUSD(cfg.CostTargetUSD),
		appliedHTTPTimeout,
	)

	db, err := sqlite.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init database: %v", err)
	}
	log.Printf("Database initialized at %s", cfg.DBPath)
	defer db.Close()

	os.MkdirAll(cfg.OutputDir, 0755)
	log.Printf("Document output dir: %s", cfg.OutputDir)

	notifier := notify.New(cfg.SlackBotToken, cfg.SlackChannelID)
	notify.StartDigestScheduler(cfg.DigestSchedule, db, notifier, cfg.RetentionDays)

	rt := router.New(nil, router.KeywordSets{})
	led := ledger.New(rt)
	agent := llm.NewAnthropicAgent(cfg.AnthropicAPIKey)

	pipeline := imagery.NewPipeline(
		imagesearch.NewClient(cfg.SerpAPIKey),
		agent,
		rt,
		led,
		time.Duration(cfg.ImageTimeoutSeconds)*time.Second,
	)
	fallback := imagery.NewFallback(photos.NewClient(cfg.PexelsAPIKey))

	gen := &Generator{
		Title:    cfg.DocumentTitle,
		Sections: cfg.Sections,
		ProMode:  cfg.ProMode,
		Router:   rt,
		Ledger:   led,
		Agent:    agent,
		Pipeline: pipeline,
		Fallback: fallback,
	}

	log.Printf("Starting document run title=%q", cfg.DocumentTitle)
	doc, err := gen.Run(context.Background())
	if err != nil {
		log.Fatalf("Document run failed: %v", err)
	}

	sum := led.Summary()
	rep := led.Report(cfg.CostTargetUSD)
	now := time.Now()

	docPath, err := report.WriteDocumentFile(doc, cfg.OutputDir, cfg.DocumentTitle, now)
	if err != nil {
		log.Fatalf("Writing document: %v", err)
	}
	usagePath, err := report.WriteUsageFile(sum, rep, cfg.OutputDir, cfg.DocumentTitle, now)
	if err != nil {
		log.Fatalf("Writing usage report: %v", err)
	}
	log.Printf("Run complete document=%s usage=%s sections=%d cost=%s elapsed=%.1fs",
		docPath, usagePath, sum.Writer.SectionCount, ledger.FormatUSD(sum.Total.Cost), sum.ElapsedSeconds)

	if _, err := sqlite.SaveRun(db, sqlite.RunRecord{
		DocumentTitle:    cfg.DocumentTitle,
		ProMode:          cfg.ProMode,
		StartedAt:        led.StartedAt(),
		ElapsedSeconds:   sum.ElapsedSeconds,
		SectionCount:     sum.Writer.SectionCount,
		InputTokens:      sum.Total.InputTokens,
		OutputTokens:     sum.Total.OutputTokens,
		WriterCost:       sum.Writer.Cost,
		ArchitectCost:    sum.Architect.Cost,
		ImageCuratorCost: sum.ImageCurator.Cost,
		ReviewerCost:     sum.Reviewer.Cost,
		TotalCost:        sum.Total.Cost,
	}); err != nil {
		log.Printf("Archiving run failed (non-fatal): %v", err)
	}

	notifier.PostRunSummary(cfg.DocumentTitle, sum, rep)
	notifier.PostBudgetAlert(cfg.DocumentTitle, rep)

	// With a digest schedule the process stays up to keep posting them.
	if cfg.DigestSchedule != "" && notifier.Enabled() {
		log.Println("Staying alive for scheduled digests...")
		select {}
	}
}
