// loggen writes synthetic scheduler export logs, either as inbox files or as
// POST /ingest requests, at a paced rate.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

var jobTypes = []string{"SNSI", "STDV", "STRV", "PSTR", "FSTR"}

const maxJobID = 67

func main() {
	outDir := flag.String("out", "logs", "Directory receiving generated files (ignored with -url)")
	targetURL := flag.String("url", "", "POST files to this ingest URL instead of writing them")
	days := flag.Int("days", 7, "Number of run dates ending today")
	runs := flag.Int("runs", 200, "Job runs per run date")
	noise := flag.Float64("noise", 0.1, "Fraction of extra non-export lines")
	concurrency := flag.Int("c", 4, "Number of concurrent workers")
	fps := flag.Float64("fps", 5, "Files per second limit")
	seed := flag.Uint64("seed", 0, "Random seed (0 picks one from the clock)")
	flag.Parse()

	if *seed == 0 {
		*seed = uint64(time.Now().UnixNano())
	}
	if *targetURL == "" {
		if err := os.MkdirAll(*outDir, 0755); err != nil {
			log.Fatalf("Failed to create %s: %v", *outDir, err)
		}
	}
	log.Printf("Generating %d days x %d runs (seed %d)", *days, *runs, *seed)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	dates := make(chan time.Time)
	go func() {
		defer close(dates)
		for d := *days - 1; d >= 0; d-- {
			dates <- today.AddDate(0, 0, -d)
		}
	}()

	var wg sync.WaitGroup
	var written, failed atomic.Int64
	limiter := rate.NewLimiter(rate.Limit(*fps), 1)
	client := &http.Client{Timeout: 30 * time.Second}
	ctx := context.Background()

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			rng := rand.New(rand.NewPCG(*seed, uint64(workerID)))
			for runDate := range dates {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
				body := strings.Join(generate(rng, runDate, *runs, *noise), "\n") + "\n"

				var err error
				if *targetURL != "" {
					err = post(ctx, client, *targetURL, body)
				} else {
					name := fmt.Sprintf("%s_%s.txt", runDate.Format("2006-01-02"), uuid.NewString()[:8])
					err = os.WriteFile(filepath.Join(*outDir, name), []byte(body), 0644)
				}
				if err != nil {
					log.Printf("Worker %d: %s: %v", workerID, runDate.Format("2006-01-02"), err)
					failed.Add(1)
					continue
				}
				written.Add(1)
			}
		}(i)
	}

	wg.Wait()
	log.Printf("Done. Files: %d, Errors: %d", written.Load(), failed.Load())
	if failed.Load() > 0 {
		os.Exit(1)
	}
}

// generate returns the lines of one run date: n export lines in timestamp
// order, with noise lines mixed in. Some jobs repeat within the day.
func generate(rng *rand.Rand, runDate time.Time, n int, noise float64) []string {
	riskDate := runDate.AddDate(0, 0, -3)
	offsets := make([]int, n)
	for i := range offsets {
		offsets[i] = rng.IntN(24 * 3600 * 1000)
	}
	slices.Sort(offsets)

	lines := make([]string, 0, n+int(float64(n)*noise)+1)
	for _, ms := range offsets {
		ts := runDate.Add(time.Duration(ms) * time.Millisecond)
		typ := jobTypes[rng.IntN(len(jobTypes))]
		id := 1 + rng.IntN(maxJobID)
		duration := 30 + rng.IntN(2*3600)
		lines = append(lines, exportLine(ts, 1+rng.IntN(500), riskDate, id, typ, runDate, duration))
		if rng.Float64() < noise {
			lines = append(lines, fmt.Sprintf("%s DEBUG scheduler heartbeat queue=%d", ts.Format("2006-01-02 15:04:05,000"), rng.IntN(50)))
		}
	}
	return lines
}

func exportLine(ts time.Time, configs int, riskDate time.Time, id int, typ string, runDate time.Time, duration int) string {
	return fmt.Sprintf("%s INFO Export completed config_count:%d riskdate:%s id:%d type:%s on %s %dh:%dm in duration:%d seconds.",
		ts.Format("2006-01-02 15:04:05,000"), configs, riskDate.Format("2006-01-02"), id, typ,
		runDate.Format("2006-01-02"), ts.Hour(), ts.Minute(), duration)
}

func post(ctx context.Context, client *http.Client, url, body string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}
