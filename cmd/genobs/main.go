// Command genobs generates a synthetic observation CSV for local runs and
// demos. The output mimics a collar export for the default Svalbard zone-33
// window: most rows carry valid coordinates, a few fall outside the
// plausible window, and a few have missing cells so the validation stage has
// something to drop.
//
// Usage:
//
//	go run ./cmd/genobs -out observations.csv -n 50
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

var startDate = time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "observations.csv", "output CSV path")
	n := flag.Int("n", 50, "number of rows to generate")
	seed := flag.Uint64("seed", 1, "random seed for reproducible output")
	flag.Parse()

	if *n <= 0 {
		return fmt.Errorf("invalid -n %d: want a positive row count", *n)
	}

	rng := rand.New(rand.NewPCG(*seed, 0))

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create %s: %w", *out, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"utm_easting", "utm_northing", "date", "sex", "age"}); err != nil {
		return err
	}
	for i := 0; i < *n; i++ {
		if err := w.Write(row(rng, i)); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	log.Printf("wrote %d rows to %s", *n, *out)
	return nil
}

func row(rng *rand.Rand, i int) []string {
	easting := 430000 + rng.Float64()*120000
	northing := 8650000 + rng.Float64()*150000
	date := startDate.AddDate(0, 0, i/4).Format("2006-01-02")
	sex := pick(rng, []string{"male", "female", "male", "female", ""})
	age := pick(rng, []string{"adult", "adult", "yearling", "calf", ""})

	eastingCell := strconv.FormatFloat(easting, 'f', 1, 64)
	northingCell := strconv.FormatFloat(northing, 'f', 1, 64)
	switch rng.IntN(20) {
	case 0:
		// Collar dropout: no fix at all.
		eastingCell, northingCell = "", ""
	case 1:
		// Corrupt fix outside the plausible window.
		eastingCell = "999999.0"
	}

	return []string{eastingCell, northingCell, date, sex, age}
}

func pick(rng *rand.Rand, options []string) string {
	return options[rng.IntN(len(options))]
}
