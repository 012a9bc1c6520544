package radix

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestFindMatchesRepeatedPattern(t *testing.T) {
	data := []byte("abcabcabcabcabcxyz")
	tbl := New(Config{SearchDepth: 64})
	if err := tbl.Build(data); err != nil {
		t.Fatalf("Build: %v", err)
	}
	matches, _ := tbl.FindMatches(9, nil, nil) // pos 9 begins the 4th "abc"
	if len(matches) == 0 {
		t.Fatalf("expected at least one match at pos 9")
	}
	for i, m := range matches {
		if m.Distance == 0 || m.Distance > uint32(9) {
			t.Fatalf("match %d has invalid distance %d", i, m.Distance)
		}
		if m.Length < MinMatchLen {
			t.Fatalf("match %d has length %d < MinMatchLen", i, m.Length)
		}
		end := 9 + int(m.Length)
		if end > len(data) {
			t.Fatalf("match %d extends past end of data: end=%d len=%d", i, end, len(data))
		}
		got := string(data[9 : 9+int(m.Length)])
		want := string(data[9-int(m.Distance) : 9-int(m.Distance)+int(m.Length)])
		if got != want {
			t.Fatalf("match %d does not reproduce source bytes: %q != %q", i, got, want)
		}
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Distance <= matches[i-1].Distance {
			t.Fatalf("matches not in increasing-distance order: %v", matches)
		}
		if matches[i].Length <= matches[i-1].Length {
			t.Fatalf("matches not in increasing-length order: %v", matches)
		}
	}
}

func TestFindMatchesNoMatchAtStart(t *testing.T) {
	data := []byte("zzzzzzzzzz")
	tbl := New(Config{})
	if err := tbl.Build(data); err != nil {
		t.Fatalf("Build: %v", err)
	}
	matches, _ := tbl.FindMatches(0, nil, nil)
	if len(matches) != 0 {
		t.Fatalf("expected no matches at pos 0, got %v", matches)
	}
}

func TestFindMatchesRandomDataConsistency(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	data := make([]byte, 4096)
	// A small alphabet guarantees plenty of repeats to exercise chains.
	for i := range data {
		data[i] = byte('a' + rng.Intn(6))
	}
	tbl := New(Config{SearchDepth: 32})
	if err := tbl.Build(data); err != nil {
		t.Fatalf("Build: %v", err)
	}
	var scratch []uint32
	for pos := 0; pos < len(data)-1; pos += 37 {
		var matches []Match
		matches, scratch = tbl.FindMatches(pos, nil, scratch)
		for _, m := range matches {
			if int(m.Distance) > pos {
				t.Fatalf("pos %d: match distance %d exceeds position", pos, m.Distance)
			}
			src := pos - int(m.Distance)
			for k := uint32(0); k < m.Length; k++ {
				if data[src+int(k)] != data[pos+int(k)] {
					t.Fatalf("pos %d: match (dist=%d,len=%d) mismatches at offset %d", pos, m.Distance, m.Length, k)
				}
			}
		}
	}
}

func TestDivideAndConquerMatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	data := make([]byte, 1<<17+500)
	for i := range data {
		data[i] = byte('a' + rng.Intn(4))
	}

	seq := New(Config{SearchDepth: 16, DivideAndConquer: false})
	if err := seq.Build(data); err != nil {
		t.Fatalf("Build(sequential): %v", err)
	}
	dac := New(Config{SearchDepth: 16, DivideAndConquer: true})
	if err := dac.Build(data); err != nil {
		t.Fatalf("Build(divideAndConquer): %v", err)
	}

	var aScratch, bScratch []uint32
	for pos := 100; pos < len(data)-1; pos += 4096 {
		var a, b []Match
		a, aScratch = seq.FindMatches(pos, nil, aScratch)
		b, bScratch = dac.FindMatches(pos, nil, bScratch)
		if diff := cmp.Diff(a, b); diff != "" {
			t.Fatalf("pos %d: sequential and divideAndConquer diverge:\n%s", pos, diff)
		}
	}
}

func TestFindMatchesRespectsSearchDepth(t *testing.T) {
	// Every position shares the same 2-byte prefix, so the chain at the
	// tail is as long as the block; a depth of 1 must still terminate
	// and return at most one candidate's worth of work.
	data := make([]byte, 2000)
	for i := range data {
		data[i] = 'a'
	}
	tbl := New(Config{SearchDepth: 1})
	if err := tbl.Build(data); err != nil {
		t.Fatalf("Build: %v", err)
	}
	matches, _ := tbl.FindMatches(len(data)-2, nil, nil)
	if len(matches) > 1 {
		t.Fatalf("expected at most 1 match with SearchDepth=1, got %d", len(matches))
	}
}

// TestFindMatchesConcurrentCallersAgreeWithSequential exercises the
// property that makes slice-level parallel encoding safe (§4.4, §5): once
// Build has returned, a Table has no mutable query-time state left, so
// many goroutines can call FindMatches on it at once, each with its own
// out/scratch buffers, and see exactly what a single sequential caller
// would have seen.
func TestFindMatchesConcurrentCallersAgreeWithSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	data := make([]byte, 1<<15)
	for i := range data {
		data[i] = byte('a' + rng.Intn(5))
	}
	tbl := New(Config{SearchDepth: 24})
	if err := tbl.Build(data); err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := make([][]Match, len(data))
	var scratch []uint32
	for pos := 0; pos < len(data)-1; pos++ {
		m, s := tbl.FindMatches(pos, nil, scratch)
		scratch = s
		want[pos] = append([]Match(nil), m...)
	}

	const goroutines = 8
	var wg sync.WaitGroup
	errs := make(chan string, goroutines)
	for g := 0; g < goroutines; g++ {
		g := g
		wg.Add(1)
		go func() {
			defer wg.Done()
			var out []Match
			var s []uint32
			for pos := g; pos < len(data)-1; pos += goroutines {
				out, s = tbl.FindMatches(pos, out, s)
				if diff := cmp.Diff(want[pos], out, cmpopts.EquateEmpty()); diff != "" {
					errs <- diff
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for diff := range errs {
		t.Fatalf("concurrent call diverged from sequential:\n%s", diff)
	}
}
