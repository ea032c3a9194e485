// ABOUTME: Command-line runner for the retrieval benchmarks
// ABOUTME: Executes the synthetic scenarios and writes JSON results

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/harper/vidchat/benchmarks/retrieval"
	"github.com/harper/vidchat/internal/logging"
)

func main() {
	scenarioID := flag.String("test", "", "Run one scenario (frame_lookup, transcript_recall, video_isolation). If empty, runs all.")
	outputPath := flag.String("output", "benchmark_results.json", "Output path for JSON results")
	dimension := flag.Int("dimension", retrieval.DefaultDimension, "Hash embedder dimension")
	chunkWords := flag.Int("chunk-words", retrieval.DefaultChunkWords, "Transcript chunk size in words")
	verbose := flag.Bool("verbose", false, "Enable verbose output")
	flag.Parse()

	logging.Setup(*verbose, !*verbose)
	logger := logging.For("benchmark")

	fmt.Println("========================================")
	fmt.Println("vidchat Retrieval Benchmarks")
	fmt.Println("========================================")

	scenarios := retrieval.GetAllScenarios()
	if *scenarioID != "" {
		var selected []retrieval.Scenario
		for _, s := range scenarios {
			if s.ID == *scenarioID {
				selected = append(selected, s)
			}
		}
		if len(selected) == 0 {
			logger.Fatal("unknown scenario", "test", *scenarioID)
		}
		scenarios = selected
	}

	runner := retrieval.NewRunner(*dimension, *chunkWords, os.Stdout, *verbose)
	results := runner.RunAll(context.Background(), scenarios)

	fmt.Println("\n========================================")
	fmt.Println("BENCHMARK SUMMARY")
	fmt.Println("========================================")

	failed := 0
	for _, result := range results {
		fmt.Printf("\n%s: %s\n", result.ScenarioID, result.ScenarioName)
		fmt.Printf("  Frame hit rate:    %.2f\n", result.FrameHitRate)
		fmt.Printf("  Transcript recall: %.2f\n", result.TranscriptRecall)
		fmt.Printf("  Isolation:         %.2f\n", result.IsolationRate)
		fmt.Printf("  Status: %s\n", result.Status)
		if result.ErrorMessage != "" {
			fmt.Printf("  Error: %s\n", result.ErrorMessage)
		}
		if result.Status != "PASS" {
			failed++
		}
	}

	fmt.Println("\n========================================")
	fmt.Printf("Total Tests: %d\n", len(results))
	fmt.Printf("Passed: %d\n", len(results)-failed)
	fmt.Printf("Failed: %d\n", failed)
	fmt.Println("========================================")

	if err := runner.ExportResults(results, *outputPath); err != nil {
		logger.Fatal("failed to export results", "err", err)
	}
	fmt.Printf("Results exported to: %s\n", *outputPath)

	if failed > 0 {
		os.Exit(1)
	}
}
