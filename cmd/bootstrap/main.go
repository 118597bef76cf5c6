// Command bootstrap synthesizes a DocumentBase from a directory of plain
// text files using the deterministic fake extractor, and an attribute list
// supplied as repeated name=label pairs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/wannadb/matchengine/internal/extractor"
	"github.com/wannadb/matchengine/internal/model"
	"github.com/wannadb/matchengine/internal/persistence"
	"github.com/wannadb/matchengine/internal/signal"
)

func main() {
	docsDir := flag.String("docs", "", "directory of .txt files, one document per file")
	outPath := flag.String("out", "base.bin", "output path for the encoded DocumentBase")
	var attrFlags multiFlag
	flag.Var(&attrFlags, "attribute", "name=label pair, may be repeated")
	flag.Parse()

	if *docsDir == "" {
		log.Fatal("bootstrap: -docs is required")
	}
	if len(attrFlags) == 0 {
		log.Fatal("bootstrap: at least one -attribute name=label is required")
	}

	base := model.NewDocumentBase()
	for _, spec := range attrFlags {
		name, label, ok := strings.Cut(spec, "=")
		if !ok {
			log.Fatalf("bootstrap: invalid -attribute %q, want name=label", spec)
		}
		if err := base.AddAttribute(model.NewAttribute(name, label)); err != nil {
			log.Fatalf("bootstrap: %v", err)
		}
	}

	entries, err := os.ReadDir(*docsDir)
	if err != nil {
		log.Fatalf("bootstrap: read %s: %v", *docsDir, err)
	}

	ex := extractor.Fake{}
	ctx := context.Background()
	count := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(*docsDir, entry.Name()))
		if err != nil {
			log.Fatalf("bootstrap: read %s: %v", entry.Name(), err)
		}
		doc := model.NewDocument(strings.TrimSuffix(entry.Name(), ".txt"), string(data))
		if err := extractor.Apply(ctx, ex, doc); err != nil {
			log.Fatalf("bootstrap: extract %s: %v", entry.Name(), err)
		}
		if err := base.AddDocument(doc); err != nil {
			log.Fatalf("bootstrap: %v", err)
		}
		count++
	}

	if err := base.Validate(); err != nil {
		log.Fatalf("bootstrap: validate: %v", err)
	}
	if err := persistence.SaveFile(*outPath, base, signal.NewRegistry()); err != nil {
		log.Fatalf("bootstrap: save: %v", err)
	}
	fmt.Printf("bootstrap: wrote %d documents, %d attributes to %s\n", count, len(base.Attributes), *outPath)
}

type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }
func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}
