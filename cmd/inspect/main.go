// Command inspect prints a human-readable JSON view of a persisted
// DocumentBase, for debugging.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/wannadb/matchengine/internal/persistence"
	"github.com/wannadb/matchengine/internal/signal"
)

func main() {
	basePath := flag.String("base", "", "path to a persisted DocumentBase")
	summary := flag.Bool("summary", false, "print a one-line-per-document summary instead of full JSON")
	flag.Parse()

	if *basePath == "" {
		log.Fatal("inspect: -base is required")
	}

	base, err := persistence.LoadFile(*basePath)
	if err != nil {
		log.Fatalf("inspect: load: %v", err)
	}

	if *summary {
		for _, doc := range base.Documents {
			state := "unmatched"
			if v, ok := doc.Get("confirmed-match"); ok && v.NuggetRef.NuggetIndex >= 0 {
				n := doc.Nuggets()[v.NuggetRef.NuggetIndex]
				state = fmt.Sprintf("matched %q", n.Text())
			}
			fmt.Printf("%s: %d nuggets, %s\n", doc.Name, len(doc.Nuggets()), state)
		}
		return
	}

	data, err := persistence.EncodeJSON(base, signal.NewRegistry())
	if err != nil {
		log.Fatalf("inspect: encode: %v", err)
	}
	os.Stdout.Write(data)
	fmt.Println()
}
