package fn

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"
)

// --- Result ---

func TestOkAndErr(t *testing.T) {
	r := Ok(42)
	if !r.IsOk() || r.IsErr() {
		t.Fatal("Ok should be ok")
	}
	v, err := r.Unwrap()
	if v != 42 || err != nil {
		t.Fatal("wrong unwrap")
	}

	e := Err[int](errors.New("fail"))
	if e.IsOk() || !e.IsErr() {
		t.Fatal("Err should be err")
	}
}

func TestErrf(t *testing.T) {
	r := Errf[string]("code %d", 404)
	_, err := r.Unwrap()
	if err == nil || err.Error() != "code 404" {
		t.Fatal("Errf wrong message")
	}
}

func TestMustPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Must should panic on Err")
		}
	}()
	Err[int](errors.New("boom")).Must()
}

func TestUnwrapOr(t *testing.T) {
	if Ok(1).UnwrapOr(9) != 1 {
		t.Fatal("should return value")
	}
	if Err[int](errors.New("x")).UnwrapOr(9) != 9 {
		t.Fatal("should return fallback")
	}
}

// --- Slice ---

func TestMap(t *testing.T) {
	out := Map([]int{1, 2, 3}, func(v int) int { return v * 2 })
	if len(out) != 3 || out[2] != 6 {
		t.Fatal("Map failed")
	}
	empty := Map([]int{}, func(v int) int { return v })
	if len(empty) != 0 {
		t.Fatal("Map empty failed")
	}
}

func TestFilter(t *testing.T) {
	out := Filter([]int{1, 2, 3, 4}, func(v int) bool { return v%2 == 0 })
	if len(out) != 2 || out[0] != 2 {
		t.Fatal("Filter failed")
	}
}

func TestReduce(t *testing.T) {
	sum := Reduce([]int{1, 2, 3}, 0, func(acc, v int) int { return acc + v })
	if sum != 6 {
		t.Fatal("Reduce failed")
	}
}

func TestUnique(t *testing.T) {
	out := Unique([]int{1, 2, 2, 3, 1})
	if len(out) != 3 || out[0] != 1 || out[1] != 2 || out[2] != 3 {
		t.Fatal("Unique failed")
	}
}

// --- Pipeline ---

func TestThen(t *testing.T) {
	double := Stage[int, int](func(_ context.Context, v int) Result[int] { return Ok(v * 2) })
	addOne := Stage[int, int](func(_ context.Context, v int) Result[int] { return Ok(v + 1) })

	composed := Then(double, addOne)
	r := composed(context.Background(), 5)
	if r.Must() != 11 {
		t.Fatal("Then failed")
	}
}

func TestThenShortCircuits(t *testing.T) {
	fail := Stage[int, int](func(_ context.Context, _ int) Result[int] { return Err[int](errors.New("fail")) })
	called := false
	second := Stage[int, int](func(_ context.Context, v int) Result[int] {
		called = true
		return Ok(v)
	})

	r := Then(fail, second)(context.Background(), 1)
	if r.IsOk() || called {
		t.Fatal("Then should short-circuit")
	}
}

func TestMapStage(t *testing.T) {
	s := MapStage(func(v int) string { return strconv.Itoa(v) })
	r := s(context.Background(), 42)
	if r.Must() != "42" {
		t.Fatal("MapStage failed")
	}
}

func TestTracedStage(t *testing.T) {
	s := TracedStage("test-stage", Stage[int, int](func(_ context.Context, v int) Result[int] { return Ok(v + 1) }))
	r := s(context.Background(), 1)
	if r.Must() != 2 {
		t.Fatal("TracedStage failed")
	}

	// Error case
	e := TracedStage("err-stage", Stage[int, int](func(_ context.Context, _ int) Result[int] { return Err[int](errors.New("x")) }))
	if e(context.Background(), 1).IsOk() {
		t.Fatal("TracedStage error should propagate")
	}
}

// --- Retry ---

func TestRetrySuccess(t *testing.T) {
	attempts := 0
	r := Retry(context.Background(), RetryOpts{MaxAttempts: 3, InitialWait: time.Millisecond, Jitter: false}, func(_ context.Context) Result[int] {
		attempts++
		if attempts < 3 {
			return Err[int](errors.New("not yet"))
		}
		return Ok(42)
	})
	if r.Must() != 42 || attempts != 3 {
		t.Fatal("Retry should succeed on 3rd attempt")
	}
}

func TestRetryZeroOptsStillRuns(t *testing.T) {
	r := Retry(context.Background(), RetryOpts{}, func(_ context.Context) Result[int] {
		return Ok(7)
	})
	if r.Must() != 7 {
		t.Fatal("zero opts should fall back to defaults and run f")
	}
}

func TestRetryExhausted(t *testing.T) {
	r := Retry(context.Background(), RetryOpts{MaxAttempts: 2, InitialWait: time.Millisecond, Jitter: false}, func(_ context.Context) Result[int] {
		return Err[int](errors.New("fail"))
	})
	if r.IsOk() {
		t.Fatal("Retry should fail after exhausting attempts")
	}
}

func TestRetryIfStopsEarly(t *testing.T) {
	fatal := errors.New("fatal")
	attempts := 0
	opts := RetryOpts{
		MaxAttempts: 5,
		InitialWait: time.Millisecond,
		Jitter:      false,
		RetryIf:     func(err error) bool { return !errors.Is(err, fatal) },
	}
	r := Retry(context.Background(), opts, func(_ context.Context) Result[int] {
		attempts++
		return Err[int](fatal)
	})
	if r.IsOk() || attempts != 1 {
		t.Fatalf("RetryIf should stop after first attempt, got %d", attempts)
	}
}

func TestRetryContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()
	r := Retry(ctx, RetryOpts{MaxAttempts: 100, InitialWait: 10 * time.Millisecond, Jitter: false}, func(ctx context.Context) Result[int] {
		return Err[int](errors.New("fail"))
	})
	if r.IsOk() {
		t.Fatal("Retry should fail on context cancel")
	}
	_, err := r.Unwrap()
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}
