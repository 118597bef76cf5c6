// Command replay runs a JSON fixture through the feedback driver without
// any human in the loop, printing the final threshold and confirmed
// matches. Used to check in a scenario as a regression fixture.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/wannadb/matchengine/internal/replay"
)

func main() {
	fixturePath := flag.String("fixture", "", "path to a replay fixture JSON file")
	flag.Parse()

	if *fixturePath == "" {
		log.Fatal("replay: -fixture is required")
	}

	f, err := replay.LoadFixture(*fixturePath)
	if err != nil {
		log.Fatalf("replay: %v", err)
	}

	res, err := replay.Run(context.Background(), f)
	if err != nil {
		log.Fatalf("replay: run: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		log.Fatalf("replay: encode result: %v", err)
	}
	fmt.Fprintf(os.Stderr, "replay: %s: tau=%.4f confirmed=%d/%d\n", f.Description, res.FinalTau, len(res.Confirmed), len(f.Documents))
}
