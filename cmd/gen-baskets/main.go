// Dev helper that writes a synthetic transaction CSV in the Online
// Retail column layout, with an optional planted correlation so the
// rule metrics have something to find.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strconv"
)

var catalog = []string{
	"WHITE HANGING HEART T-LIGHT HOLDER",
	"JUMBO BAG RED RETROSPOT",
	"REGENCY CAKESTAND 3 TIER",
	"PARTY BUNTING",
	"LUNCH BAG RED RETROSPOT",
	"ASSORTED COLOUR BIRD ORNAMENT",
	"SET OF 3 CAKE TINS PANTRY DESIGN",
	"PACK OF 72 RETROSPOT CAKE CASES",
	"NATURAL SLATE HEART CHALKBOARD",
	"HAND WARMER UNION JACK",
	"JAM MAKING SET WITH JARS",
	"RECIPE BOX PANTRY YELLOW DESIGN",
}

func main() {
	var (
		out       = flag.String("out", "baskets.csv", "output CSV path")
		baskets   = flag.Int("baskets", 500, "number of baskets to generate")
		seed      = flag.Int64("seed", 42, "random seed")
		pairProb  = flag.Float64("pair-prob", 0.3, "probability a basket gets the planted pair")
		plantFrom = flag.String("plant-from", "JAM MAKING SET WITH JARS", "planted antecedent item")
		plantTo   = flag.String("plant-to", "RECIPE BOX PANTRY YELLOW DESIGN", "planted consequent item")
	)
	flag.Parse()

	if err := run(*out, *baskets, *seed, *pairProb, *plantFrom, *plantTo); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Wrote %d baskets to %s\n", *baskets, *out)
}

func run(out string, baskets int, seed int64, pairProb float64, plantFrom, plantTo string) error {
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"InvoiceNo", "Description", "Quantity", "Country"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	rng := rand.New(rand.NewSource(seed))

	for i := 0; i < baskets; i++ {
		invoice := strconv.Itoa(536365 + i)

		items := make(map[string]bool)
		// 2-6 independent items per basket
		for n := 2 + rng.Intn(5); n > 0; n-- {
			items[catalog[rng.Intn(len(catalog))]] = true
		}

		// Plant the correlated pair: whenever the antecedent lands in a
		// basket, the consequent follows.
		if rng.Float64() < pairProb {
			items[plantFrom] = true
			items[plantTo] = true
		}

		// Sorted rows keep the output reproducible for a given seed.
		names := make([]string, 0, len(items))
		for item := range items {
			names = append(names, item)
		}
		sort.Strings(names)

		for _, item := range names {
			qty := strconv.Itoa(1 + rng.Intn(12))
			if err := w.Write([]string{invoice, item, qty, "United Kingdom"}); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
	}

	w.Flush()
	return w.Error()
}
