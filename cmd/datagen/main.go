package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"ballmatro-service/internal/model"
	"ballmatro-service/internal/service/dataset"
	"ballmatro-service/internal/service/game"

	"github.com/pterm/pterm"
)

func main() {
	var (
		algorithm = flag.String("alg", dataset.AlgorithmExhaustive, "generation algorithm: exhaustive or random")
		handSize  = flag.Int("len", 1, "hand size (maximum hand size for random)")
		n         = flag.Int("n", 100, "number of hands for random")
		seed      = flag.Int64("seed", 42, "random seed for generation and the train/test split")
		jokerRate = flag.Float64("jokerRate", 0, "probability of a joker in each random slot")
		workers   = flag.Int("workers", 4, "optimizer workers")
		out       = flag.String("out", "data", "output directory")
		samples   = flag.Int("samples", 5, "sample rows to print")
	)
	flag.Parse()

	engine := game.NewEngine(nil, *workers)

	var hands [][]game.Card
	switch *algorithm {
	case dataset.AlgorithmExhaustive:
		for hand := range dataset.Exhaustive(*handSize) {
			hands = append(hands, hand)
		}
	case dataset.AlgorithmRandom:
		hands = dataset.Random(engine.Registry(), *handSize, *n, *seed, *jokerRate)
	default:
		pterm.Fatal.Printfln("unknown algorithm %q", *algorithm)
	}

	spinner, _ := pterm.DefaultSpinner.Start(fmt.Sprintf("Solving %d hands...", len(hands)))
	start := time.Now()
	infos, err := dataset.Solve(context.Background(), engine, hands, *workers)
	if err != nil {
		spinner.Fail(err.Error())
		os.Exit(1)
	}
	spinner.Success(fmt.Sprintf("Solved %d hands in %s", len(infos), time.Since(start).Round(time.Millisecond)))

	rows := make([]dataset.Row, len(infos))
	for i, info := range infos {
		rows[i] = dataset.ToRow(info)
	}
	splits := dataset.SplitIndexes(len(rows), *seed)

	dir := filepath.Join(*out, fmt.Sprintf("%s-%d", *algorithm, *handSize))
	if err := writeSplits(dir, rows, splits); err != nil {
		pterm.Fatal.Printfln("write dataset: %v", err)
	}
	pterm.Success.Printfln("Dataset written to %s", dir)

	renderHandTable(rows)
	renderSamples(rows, *samples)
}

func writeSplits(dir string, rows []dataset.Row, splits []string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	encoders := make(map[string]*json.Encoder, 2)
	for _, split := range []string{model.SplitTrain, model.SplitTest} {
		f, err := os.Create(filepath.Join(dir, split+".jsonl"))
		if err != nil {
			return err
		}
		defer f.Close()
		enc := json.NewEncoder(f)
		enc.SetEscapeHTML(false)
		encoders[split] = enc
	}
	for i, row := range rows {
		if err := encoders[splits[i]].Encode(row); err != nil {
			return err
		}
	}
	return nil
}

func renderHandTable(rows []dataset.Row) {
	counts := make(map[string]int)
	for _, row := range rows {
		counts[row.Hand]++
	}
	kinds := make([]string, 0, len(counts))
	for kind := range counts {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool {
		if counts[kinds[i]] != counts[kinds[j]] {
			return counts[kinds[i]] > counts[kinds[j]]
		}
		return kinds[i] < kinds[j]
	})

	data := pterm.TableData{{"Hand", "Count", "Share"}}
	for _, kind := range kinds {
		share := float64(counts[kind]) / float64(len(rows)) * 100
		data = append(data, []string{kind, fmt.Sprint(counts[kind]), fmt.Sprintf("%.1f%%", share)})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func renderSamples(rows []dataset.Row, n int) {
	if n > len(rows) {
		n = len(rows)
	}
	if n <= 0 {
		return
	}
	data := pterm.TableData{{"Input", "Output", "Hand", "Score"}}
	for _, row := range rows[:n] {
		data = append(data, []string{row.Input, row.Output, row.Hand, fmt.Sprint(row.Score)})
	}
	pterm.DefaultSection.Println("Sample rows")
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
