// Command matchctl runs the interactive matching engine against a
// DocumentBase loaded from disk, asking questions on stdin/stdout.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/wannadb/matchengine/internal/config"
	"github.com/wannadb/matchengine/internal/distance"
	"github.com/wannadb/matchengine/internal/embedder"
	"github.com/wannadb/matchengine/internal/feedback"
	"github.com/wannadb/matchengine/internal/interaction"
	"github.com/wannadb/matchengine/internal/persistence"
	"github.com/wannadb/matchengine/internal/pipeline"
	"github.com/wannadb/matchengine/internal/resources/audit"
	"github.com/wannadb/matchengine/internal/signal"
	"github.com/wannadb/matchengine/internal/statistics"
)

// #region main

func main() {
	basePath := flag.String("base", "", "path to a persisted DocumentBase")
	pipelinePath := flag.String("pipeline", "", "path to a pipeline configuration YAML file; default pipeline if empty")
	auditPath := flag.String("audit", envOr("MATCHCTL_AUDIT_DB", "matchctl-audit.db"), "path to the audit trail SQLite database")
	embedderURL := flag.String("embedder-url", envOr("MATCHCTL_EMBEDDER_URL", embedder.DefaultBaseURL), "base URL of the embedding server")
	flag.Parse()

	if *basePath == "" {
		log.Fatal("matchctl: -base is required")
	}

	base, err := persistence.LoadFile(*basePath)
	if err != nil {
		log.Fatalf("matchctl: load base: %v", err)
	}

	prov := embedder.NewHTTPProvider(embedder.WithBaseURL(*embedderURL))
	rec, err := audit.Open(*auditPath)
	if err != nil {
		log.Fatalf("matchctl: open audit trail: %v", err)
	}
	defer rec.Close()

	dist := distance.CosineLabelDistance{Embedder: prov}
	tau := feedback.DefaultConfig().Threshold.DefaultTau

	doc := config.Default()
	if *pipelinePath != "" {
		doc, err = config.Load(*pipelinePath)
		if err != nil {
			log.Fatalf("matchctl: load pipeline config: %v", err)
		}
	}
	stages, err := config.Build(doc, config.BuildDeps{
		Embedder:       prov,
		Distance:       dist,
		Tau:            tau,
		FeedbackConfig: feedback.DefaultConfig(),
	})
	if err != nil {
		log.Fatalf("matchctl: build pipeline: %v", err)
	}

	p := pipeline.New(pipeline.Config{Stages: stages})
	stats := statistics.NewRoot("matchctl")

	cb := terminalCallback(rec)
	status := func(stage string, progress float64, message string) {
		fmt.Printf("[%s %.0f%%] %s\n", stage, progress*100, message)
	}

	if err := p.Run(context.Background(), base, cb, status, stats); err != nil {
		log.Fatalf("matchctl: pipeline failed: %v", err)
	}

	registry := signal.NewRegistry()
	if *basePath != "" {
		if err := persistence.SaveFile(*basePath, base, registry); err != nil {
			log.Fatalf("matchctl: save base: %v", err)
		}
	}
	fmt.Println("matchctl: done")
}

// #endregion main

// #region helpers

func terminalCallback(rec audit.Recorder) interaction.Callback {
	reader := bufio.NewScanner(os.Stdin)
	return func(ctx context.Context, req interaction.Request) (interaction.Answer, error) {
		fmt.Printf("\n--- %s / %s ---\n", req.AttributeName, req.DocumentName)
		fmt.Printf("%s\n", highlight(req.DocumentText, req.Start, req.End))
		fmt.Printf("distance=%.4f  [c]onfirm [r]eject [n]o-match [s]top [custom start:end]: ", req.Distance)

		if !reader.Scan() {
			return interaction.Answer{Kind: interaction.Stop}, nil
		}
		line := strings.TrimSpace(reader.Text())
		answer := parseAnswer(line, req)
		if rec != nil {
			_ = rec.RecordAnswer(req.AttributeName, req.DocumentName, answerKindName(answer.Kind), req.Distance, 0)
		}
		return answer, nil
	}
}

func parseAnswer(line string, req interaction.Request) interaction.Answer {
	switch strings.ToLower(line) {
	case "c", "confirm", "":
		return interaction.Answer{Kind: interaction.Confirm}
	case "r", "reject":
		return interaction.Answer{Kind: interaction.Reject}
	case "n", "no-match":
		return interaction.Answer{Kind: interaction.NoMatchInDocument}
	case "s", "stop":
		return interaction.Answer{Kind: interaction.Stop}
	}
	if start, end, ok := parseRange(line); ok {
		return interaction.Answer{Kind: interaction.CustomSpan, CustomStart: start, CustomEnd: end}
	}
	return interaction.Answer{Kind: interaction.Reject}
}

func parseRange(s string) (int, int, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	start, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	end, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return start, end, true
}

func highlight(text string, start, end int) string {
	if start < 0 || end > len(text) || start >= end {
		return text
	}
	return text[:start] + "[" + text[start:end] + "]" + text[end:]
}

func answerKindName(k interaction.AnswerKind) string {
	switch k {
	case interaction.Confirm:
		return "confirm"
	case interaction.Reject:
		return "reject"
	case interaction.CustomSpan:
		return "custom-span"
	case interaction.NoMatchInDocument:
		return "no-match"
	case interaction.Stop:
		return "stop"
	default:
		return "unknown"
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
