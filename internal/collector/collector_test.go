package collector

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"log/slog"

	"github.com/kidoz/clamav-report-go/internal/config"
	"github.com/kidoz/clamav-report-go/internal/inventory"
)

// fakeRunner completes hosts in an order unrelated to submission order and
// fails or hangs specific targets.
type fakeRunner struct {
	delays map[string]time.Duration
	fail   map[string]bool
	hang   map[string]bool
	calls  atomic.Int32
}

func (f *fakeRunner) Name() string { return "fake" }

func (f *fakeRunner) Run(ctx context.Context, target, command string) (string, error) {
	f.calls.Add(1)
	if f.hang[target] {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if d, ok := f.delays[target]; ok {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(d):
		}
	}
	if f.fail[target] {
		return "", fmt.Errorf("connection refused")
	}
	return "output-from-" + target, nil
}

func testCollector(runner *fakeRunner, workers, timeoutSec int) *Collector {
	cfg := config.DefaultConfig()
	cfg.Collect.Workers = workers
	cfg.Collect.Timeout = timeoutSec
	return New(cfg, slog.New(slog.DiscardHandler), runner)
}

func makeHosts(ids ...string) []inventory.Host {
	hosts := make([]inventory.Host, len(ids))
	for i, id := range ids {
		hosts[i] = inventory.Host{ID: id, Name: id}
	}
	return hosts
}

func TestCollect_OrderMatchesEnumeration(t *testing.T) {
	// First host finishes last; order must still match input.
	runner := &fakeRunner{delays: map[string]time.Duration{
		"h1": 60 * time.Millisecond,
		"h2": 30 * time.Millisecond,
		"h3": 0,
	}}
	c := testCollector(runner, 3, 5)

	hosts := makeHosts("h1", "h2", "h3")
	results := c.Collect(context.Background(), hosts)

	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	for i, r := range results {
		if r.Host.ID != hosts[i].ID {
			t.Errorf("results[%d].Host.ID = %q, want %q", i, r.Host.ID, hosts[i].ID)
		}
		if !r.Succeeded {
			t.Errorf("results[%d] should have succeeded: %s", i, r.ErrorDetail)
		}
		if r.Stdout != "output-from-"+hosts[i].ID {
			t.Errorf("results[%d].Stdout = %q", i, r.Stdout)
		}
	}
}

func TestCollect_FailureDoesNotAbortBatch(t *testing.T) {
	runner := &fakeRunner{fail: map[string]bool{"bad": true}}
	c := testCollector(runner, 2, 5)

	results := c.Collect(context.Background(), makeHosts("good1", "bad", "good2"))

	if !results[0].Succeeded || !results[2].Succeeded {
		t.Error("healthy hosts should succeed despite a failing peer")
	}
	if results[1].Succeeded {
		t.Error("failing host should be marked unsuccessful")
	}
	if !strings.Contains(results[1].ErrorDetail, "connection refused") {
		t.Errorf("ErrorDetail = %q, want connection refused", results[1].ErrorDetail)
	}
	if got := runner.calls.Load(); got != 3 {
		t.Errorf("runner calls = %d, want 3 (single attempt per host, no retries)", got)
	}
}

func TestCollect_HangingHostTimesOut(t *testing.T) {
	runner := &fakeRunner{hang: map[string]bool{"stuck": true}}
	c := testCollector(runner, 2, 1)

	start := time.Now()
	results := c.Collect(context.Background(), makeHosts("stuck", "fast"))
	elapsed := time.Since(start)

	if results[0].Succeeded {
		t.Error("hung host should fail via its timeout")
	}
	if !results[1].Succeeded {
		t.Errorf("fast host should not be affected: %s", results[1].ErrorDetail)
	}
	if elapsed > 3*time.Second {
		t.Errorf("collection took %v, hung host should be bounded by its 1s timeout", elapsed)
	}
}

func TestCollect_SingleWorkerStillOrdered(t *testing.T) {
	runner := &fakeRunner{}
	c := testCollector(runner, 1, 5)

	hosts := makeHosts("a", "b", "c", "d")
	results := c.Collect(context.Background(), hosts)

	for i, r := range results {
		if r.Host.ID != hosts[i].ID {
			t.Errorf("results[%d].Host.ID = %q, want %q", i, r.Host.ID, hosts[i].ID)
		}
	}
}

func TestCollect_NoHosts(t *testing.T) {
	c := testCollector(&fakeRunner{}, 4, 5)
	results := c.Collect(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("len(results) = %d, want 0", len(results))
	}
}

func TestCollect_CancelledContextPreservesFinishedHosts(t *testing.T) {
	runner := &fakeRunner{hang: map[string]bool{"stuck": true}}
	c := testCollector(runner, 2, 30)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	results := c.Collect(ctx, makeHosts("quick", "stuck"))

	if !results[0].Succeeded {
		t.Errorf("already-finished host must be preserved on interrupt: %s", results[0].ErrorDetail)
	}
	if results[1].Succeeded {
		t.Error("in-flight host should be cancelled")
	}
}
