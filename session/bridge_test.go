package session_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	fmsynth "github.com/ajbucci/rustfmsynth-sub000"
	"github.com/ajbucci/rustfmsynth-sub000/fmsynthtest"
	"github.com/ajbucci/rustfmsynth-sub000/patch"
	"github.com/ajbucci/rustfmsynth-sub000/protocol"
	"github.com/ajbucci/rustfmsynth-sub000/render"
	"github.com/ajbucci/rustfmsynth-sub000/session"
)

func countingFetcher(fails int32, count *atomic.Int32) session.Fetcher {
	return session.FetcherFunc(func(ctx context.Context) ([]byte, error) {
		n := count.Add(1)
		if n <= fails {
			return nil, fmt.Errorf("synthetic fetch failure %d", n)
		}
		return []byte{0x00, 0x61, 0x73, 0x6d}, nil
	})
}

func fakeFactory(fake *fmsynthtest.FakeSynth) render.SynthFactory {
	return func(ctx context.Context, payload []byte, sampleRate float64, blockSize int) (fmsynth.Synth, error) {
		return fake, nil
	}
}

func newBridge(t *testing.T, fetcher session.Fetcher, fake *fmsynthtest.FakeSynth) *session.Bridge {
	t.Helper()
	b := session.New(fetcher, session.Options{
		Factory:    fakeFactory(fake),
		AckTimeout: 2 * time.Second,
	})
	t.Cleanup(func() { b.Close(context.Background()) })
	return b
}

func TestEnsureReadySingleFlight(t *testing.T) {
	var fetches atomic.Int32
	fake := fmsynthtest.NewFakeSynth()
	b := newBridge(t, countingFetcher(0, &fetches), fake)

	const callers = 5
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = b.EnsureReady(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("caller %d: %v", i, err)
		}
	}
	if got := fetches.Load(); got != 1 {
		t.Errorf("fetch count = %d, want 1", got)
	}
}

func TestEnsureReadyIdempotentAfterSuccess(t *testing.T) {
	var fetches atomic.Int32
	fake := fmsynthtest.NewFakeSynth()
	b := newBridge(t, countingFetcher(0, &fetches), fake)

	for i := 0; i < 3; i++ {
		if err := b.EnsureReady(context.Background()); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if got := fetches.Load(); got != 1 {
		t.Errorf("fetch count = %d, want 1", got)
	}
}

func TestEnsureReadyRetriesAfterFailure(t *testing.T) {
	var fetches atomic.Int32
	fake := fmsynthtest.NewFakeSynth()
	b := newBridge(t, countingFetcher(1, &fetches), fake)

	if err := b.EnsureReady(context.Background()); err == nil {
		t.Fatal("first attempt should fail")
	}
	// A second call must re-run the sequence, not replay the stale
	// rejection.
	if err := b.EnsureReady(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if got := fetches.Load(); got != 2 {
		t.Errorf("fetch count = %d, want 2", got)
	}
}

func TestConcurrentFailureRejectsAllWaiters(t *testing.T) {
	var fetches atomic.Int32
	fake := fmsynthtest.NewFakeSynth()
	b := newBridge(t, countingFetcher(100, &fetches), fake)

	const callers = 4
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = b.EnsureReady(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err == nil {
			t.Errorf("caller %d: expected failure", i)
		}
	}
	// All concurrent callers shared attempts; far fewer fetches than
	// callers is the point, exact count depends on interleaving.
	if got := fetches.Load(); got == 0 || got > callers {
		t.Errorf("fetch count = %d, want 1..%d", got, callers)
	}
}

func TestInitFailureSurfacesAndRetries(t *testing.T) {
	var fetches atomic.Int32
	fake := fmsynthtest.NewFakeSynth()
	var factoryCalls atomic.Int32
	factory := func(ctx context.Context, payload []byte, sampleRate float64, blockSize int) (fmsynth.Synth, error) {
		if factoryCalls.Add(1) == 1 {
			return nil, fmt.Errorf("module rejected")
		}
		return fake, nil
	}

	b := session.New(countingFetcher(0, &fetches), session.Options{
		Factory:    factory,
		AckTimeout: 2 * time.Second,
	})
	defer b.Close(context.Background())

	err := b.EnsureReady(context.Background())
	if err == nil {
		t.Fatal("expected init failure")
	}

	if err := b.EnsureReady(context.Background()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if got := fetches.Load(); got != 2 {
		t.Errorf("fetch count = %d, want 2 (fresh fetch per attempt)", got)
	}
}

func TestAckTimeout(t *testing.T) {
	stuck := func(ctx context.Context, payload []byte, sampleRate float64, blockSize int) (fmsynth.Synth, error) {
		select {} // instantiation never finishes
	}
	var fetches atomic.Int32
	b := session.New(countingFetcher(0, &fetches), session.Options{
		Factory:    stuck,
		AckTimeout: 100 * time.Millisecond,
	})
	defer b.Close(context.Background())

	start := time.Now()
	err := b.EnsureReady(context.Background())
	if err == nil {
		t.Fatal("expected timeout")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout took %s", elapsed)
	}
}

func TestPayloadTransferredExactlyOnce(t *testing.T) {
	var fetches atomic.Int32
	fake := fmsynthtest.NewFakeSynth()
	b := newBridge(t, countingFetcher(0, &fetches), fake)

	if err := b.EnsureReady(context.Background()); err != nil {
		t.Fatal(err)
	}

	h := b.Handle()
	if h == nil {
		t.Fatal("no handle after bootstrap")
	}
	if p := h.TakePayload(); p != nil {
		t.Error("payload reference should be nulled after the transfer")
	}
}

func TestSendBeforeReadyOrdering(t *testing.T) {
	var fetches atomic.Int32
	fake := fmsynthtest.NewFakeSynth()
	b := newBridge(t, countingFetcher(0, &fetches), fake)

	// Queued before bootstrap even starts: must not reach the engine
	// until after the initial configuration flush.
	b.Send(protocol.NoteOn{Note: 60, Velocity: 100})

	if err := b.EnsureReady(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Give the block clock time to drain the flush and the queue.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		names := fake.CallNames()
		if contains(names, "note_on") {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	names := fake.CallNames()
	noteIdx := index(names, "note_on")
	if noteIdx < 0 {
		t.Fatalf("note_on never reached the engine: %v", names)
	}

	algoIdx := index(names, "set_algorithm")
	if algoIdx < 0 {
		t.Fatalf("set_algorithm missing from flush: %v", names)
	}
	volIdx := index(names, "set_master_volume")
	if volIdx < 0 {
		t.Fatalf("set_master_volume missing from flush: %v", names)
	}
	if !(algoIdx < volIdx && volIdx < noteIdx) {
		t.Errorf("order = %v: want set_algorithm < set_master_volume < note_on", names)
	}

	// The flush covers every operator.
	ratioOps := map[any]bool{}
	for _, c := range fake.Calls() {
		if c.Name == "set_operator_ratio" {
			ratioOps[c.Args[0]] = true
		}
	}
	if len(ratioOps) != patch.OperatorCount {
		t.Errorf("flush configured %d operators, want %d", len(ratioOps), patch.OperatorCount)
	}
}

func TestSendAfterReadyDelivers(t *testing.T) {
	var fetches atomic.Int32
	fake := fmsynthtest.NewFakeSynth()
	b := newBridge(t, countingFetcher(0, &fetches), fake)

	if err := b.EnsureReady(context.Background()); err != nil {
		t.Fatal(err)
	}
	b.Send(protocol.NoteOn{Note: 72, Velocity: 80})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if contains(fake.CallNames(), "note_on") {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("note_on never delivered: %v", fake.CallNames())
}

func TestInvalidSendDropped(t *testing.T) {
	var fetches atomic.Int32
	fake := fmsynthtest.NewFakeSynth()
	b := newBridge(t, countingFetcher(0, &fetches), fake)

	if err := b.EnsureReady(context.Background()); err != nil {
		t.Fatal(err)
	}
	b.Send(protocol.SetOperatorRatio{Op: -1, Ratio: 1})

	time.Sleep(50 * time.Millisecond)
	for _, c := range fake.Calls() {
		if c.Name == "set_operator_ratio" && c.Args[0] == -1 {
			t.Error("invalid message reached the engine")
		}
	}
}

func TestHTTPFetcher(t *testing.T) {
	payload := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	f := &session.HTTPFetcher{URL: srv.URL}
	got, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(payload) {
		t.Errorf("payload mismatch: got %v", got)
	}
}

func TestHTTPFetcherStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := &session.HTTPFetcher{URL: srv.URL}
	if _, err := f.Fetch(context.Background()); err == nil {
		t.Fatal("expected error for 404")
	}
}

func contains(names []string, want string) bool {
	return index(names, want) >= 0
}

func index(names []string, want string) int {
	for i, n := range names {
		if n == want {
			return i
		}
	}
	return -1
}
