// Command watch polls a program record until its summary appears, mirroring
// how a UI client observes pipeline completion: fixed interval, bounded
// attempts, stop on first success, transient read failures ignored.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/precislabs/precis/pkg/polling"
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:8080", "Service base URL")
		program  = flag.Int64("program", 0, "Program id to watch")
		interval = flag.Duration("interval", polling.DefaultInterval, "Poll interval")
		attempts = flag.Int("attempts", polling.DefaultMaxAttempts, "Maximum poll attempts")
	)
	flag.Parse()

	if *program == 0 {
		log.Fatal("program id required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := &http.Client{Timeout: 10 * time.Second}
	url := fmt.Sprintf("%s/api/programs/%d", *baseURL, *program)

	poller := polling.Poller{Interval: *interval, MaxAttempts: *attempts}
	summary, ok := poller.Wait(ctx, func(ctx context.Context) (*string, error) {
		return fetchSummary(ctx, client, url)
	})

	if !ok {
		fmt.Println("no summary available")
		os.Exit(1)
	}
	fmt.Println(summary)
}

func fetchSummary(ctx context.Context, client *http.Client, url string) (*string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var record struct {
		AISummary *string `json:"ai_summary"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, err
	}
	return record.AISummary, nil
}
