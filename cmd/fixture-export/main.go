// Command fixture-export converts a persisted DocumentBase plus a
// recorded answer sequence (from the audit trail) into a replay.Fixture
// JSON file, so a real run can be turned into a regression fixture.
package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/wannadb/matchengine/internal/persistence"
	"github.com/wannadb/matchengine/internal/replay"
	"github.com/wannadb/matchengine/internal/resources/audit"
)

func main() {
	basePath := flag.String("base", "", "path to a persisted DocumentBase")
	auditPath := flag.String("audit", "", "path to the audit trail SQLite database")
	attrName := flag.String("attribute", "", "attribute name to export a fixture for")
	outPath := flag.String("out", "fixture.json", "output path for the fixture JSON")
	flag.Parse()

	if *basePath == "" || *auditPath == "" || *attrName == "" {
		log.Fatal("fixture-export: -base, -audit and -attribute are all required")
	}

	base, err := persistence.LoadFile(*basePath)
	if err != nil {
		log.Fatalf("fixture-export: load base: %v", err)
	}
	attr := base.AttributeByName(*attrName)
	if attr == nil {
		log.Fatalf("fixture-export: no attribute named %q", *attrName)
	}

	store, err := audit.Open(*auditPath)
	if err != nil {
		log.Fatalf("fixture-export: open audit trail: %v", err)
	}
	defer store.Close()

	answers, err := loadAnswers(store.DB(), *attrName)
	if err != nil {
		log.Fatalf("fixture-export: load answers: %v", err)
	}

	label, _ := attr.Get("label")
	f := replay.Fixture{
		Description: "exported from " + *basePath,
		Attribute:   replay.FixtureAttribute{Name: attr.Name, Label: label.String},
		Answers:     answers,
		Config:      replay.FixtureConfig{DefaultTau: 0.35, AdjustThreshold: true},
	}
	for _, doc := range base.Documents {
		f.Documents = append(f.Documents, replay.FixtureDocument{Name: doc.Name, Text: doc.Text})
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		log.Fatalf("fixture-export: marshal: %v", err)
	}
	if err := os.WriteFile(*outPath, data, 0o644); err != nil {
		log.Fatalf("fixture-export: write %s: %v", *outPath, err)
	}
}

func loadAnswers(db *sql.DB, attribute string) ([]replay.FixtureAnswer, error) {
	rows, err := db.Query(
		`SELECT document, answer_kind FROM feedback_log WHERE attribute = ? ORDER BY id ASC`,
		attribute,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []replay.FixtureAnswer
	for rows.Next() {
		var doc, kind string
		if err := rows.Scan(&doc, &kind); err != nil {
			return nil, err
		}
		answers = append(answers, replay.FixtureAnswer{DocumentName: doc, Kind: kind})
	}
	return answers, rows.Err()
}
