package testing

import (
	"testing"
	"time"

	"github.com/xtxerr/swath/internal/swath"
)

func TestSurveyPingDeterministic(t *testing.T) {
	a := SurveyPing(3, 32, 32, 64)
	b := SurveyPing(3, 32, 32, 64)

	if a.Dims() != b.Dims() {
		t.Fatalf("Dims() differ: %+v vs %+v", a.Dims(), b.Dims())
	}
	for i := range a.Beams {
		if a.Beams[i] != b.Beams[i] {
			t.Errorf("beam %d differs: %+v vs %+v", i, a.Beams[i], b.Beams[i])
		}
	}
	if !a.Time.Equal(b.Time) {
		t.Errorf("time differs: %v vs %v", a.Time, b.Time)
	}
}

func TestSurveyPingFlags(t *testing.T) {
	p := SurveyPing(0, 22, 0, 0)

	if !p.Beams[6].Flag.IsNull() {
		t.Errorf("beam 6 flag = %v, want null", p.Beams[6].Flag)
	}
	if p.Beams[6].Depth != 0 {
		t.Errorf("null beam depth = %v, want 0", p.Beams[6].Depth)
	}
	if !p.Beams[10].Flag.IsFlagged() {
		t.Errorf("beam 10 flag = %v, want flagged", p.Beams[10].Flag)
	}
	if !p.Beams[0].Flag.IsGood() {
		t.Errorf("beam 0 flag = %v, want good", p.Beams[0].Flag)
	}
}

func TestStream(t *testing.T) {
	pings := Stream(8, 16)

	counts := map[swath.Kind]int{}
	for _, p := range pings {
		counts[p.Kind]++
	}
	if counts[swath.KindComment] != 1 || counts[swath.KindSurvey] != 8 || counts[swath.KindNav] != 2 {
		t.Errorf("kind counts = %v", counts)
	}
}

func TestGoroutineTest(t *testing.T) {
	gt := NewGoroutineTest(t)
	defer gt.Wait()

	for i := 0; i < 4; i++ {
		gt.Go(func() error {
			SurveyPing(i, 8, 8, 8)
			return nil
		})
	}
}

func TestGoroutineTestTimeout(t *testing.T) {
	gt := NewGoroutineTestWithTimeout(t, time.Minute)
	if _, ok := gt.Context().Deadline(); !ok {
		t.Error("context has no deadline")
	}
	gt.Wait()
	if gt.Context().Err() == nil {
		t.Error("context not canceled after Wait")
	}

	gt = NewGoroutineTest(t)
	if _, ok := gt.Context().Deadline(); ok {
		t.Error("zero timeout context has a deadline")
	}
	gt.Wait()
	if gt.Context().Err() == nil {
		t.Error("context not canceled after Wait")
	}
}
