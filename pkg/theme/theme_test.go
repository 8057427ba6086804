package theme

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertti/visualcheck/pkg/testutil"
)

// fakeSleep records requested sleeps without waiting and advances a fake clock.
type fakeSleep struct {
	slept []time.Duration
	now   time.Time
}

func (f *fakeSleep) Sleep(ctx context.Context, d time.Duration) error {
	f.slept = append(f.slept, d)
	f.now = f.now.Add(d)
	return ctx.Err()
}

func (f *fakeSleep) Now() time.Time {
	if f.now.IsZero() {
		f.now = time.Unix(1_700_000_000, 0)
	}
	return f.now
}

func (f *fakeSleep) total() time.Duration {
	var sum time.Duration
	for _, d := range f.slept {
		sum += d
	}
	return sum
}

// page returns an evaluator whose style signature is read from samples in order;
// the last sample repeats once exhausted.
func page(theme string, samples ...string) *testutil.MockEvaluator {
	n := 0
	return &testutil.MockEvaluator{
		EvalFunc: func(_ context.Context, js string, args ...any) (string, error) {
			switch js {
			case setScript:
				return fmt.Sprintf("%q", args[1]), nil
			case sampleScript:
				sig := samples[len(samples)-1]
				if n < len(samples) {
					sig = samples[n]
				}
				n++
				return fmt.Sprintf(`{"theme": %q, "signature": %q}`, theme, sig), nil
			}
			return "", errors.New("unexpected script")
		},
	}
}

func TestApply_FixedDelay(t *testing.T) {
	sleeper := &fakeSleep{}
	a := &Applier{Mode: ModeFixed, Sleep: sleeper.Sleep}
	ev := page("dark", "a")

	out, err := a.Apply(context.Background(), ev, "dark")

	require.NoError(t, err)
	assert.True(t, out.Stable)
	assert.Equal(t, []time.Duration{DefaultDelay}, sleeper.slept)
	require.Equal(t, 1, ev.CallCount(), "fixed mode only sets the attribute")
	assert.Equal(t, []any{DefaultAttribute, "dark"}, ev.Calls[0].Args)
}

func TestApply_FixedCustomDelayAndAttribute(t *testing.T) {
	sleeper := &fakeSleep{}
	a := &Applier{Mode: ModeFixed, Delay: time.Second, Attribute: "data-color-scheme", Sleep: sleeper.Sleep}
	ev := page("light", "a")

	_, err := a.Apply(context.Background(), ev, "light")

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{time.Second}, sleeper.slept)
	assert.Equal(t, "data-color-scheme", ev.Calls[0].Args[0])
}

func TestApply_PollSettlesImmediately(t *testing.T) {
	sleeper := &fakeSleep{}
	a := &Applier{Sleep: sleeper.Sleep, Now: sleeper.Now}

	out, err := a.Apply(context.Background(), page("dark", "same"), "dark")

	require.NoError(t, err)
	assert.True(t, out.Stable)
	assert.Equal(t, 2, out.Samples)
	assert.Equal(t, []time.Duration{DefaultInterval}, sleeper.slept)
}

func TestApply_PollWaitsForTransition(t *testing.T) {
	sleeper := &fakeSleep{}
	a := &Applier{Sleep: sleeper.Sleep, Now: sleeper.Now, StableSamples: 3}

	out, err := a.Apply(context.Background(), page("light", "s1", "s2", "s3", "s4", "s4", "s4"), "light")

	require.NoError(t, err)
	assert.True(t, out.Stable)
	assert.Equal(t, 6, out.Samples)
	assert.Equal(t, 5*DefaultInterval, out.Elapsed)
}

func TestApply_PollTimesOutWithoutError(t *testing.T) {
	sleeper := &fakeSleep{}
	a := &Applier{Sleep: sleeper.Sleep, Now: sleeper.Now, Interval: 100 * time.Millisecond, Timeout: 300 * time.Millisecond}

	n := 0
	ev := &testutil.MockEvaluator{
		EvalFunc: func(_ context.Context, js string, args ...any) (string, error) {
			if js == setScript {
				return `"dark"`, nil
			}
			n++
			return fmt.Sprintf(`{"theme": "dark", "signature": "frame-%d"}`, n), nil
		},
	}

	out, err := a.Apply(context.Background(), ev, "dark")

	require.NoError(t, err)
	assert.False(t, out.Stable)
	assert.Equal(t, 4, out.Samples)
	assert.Equal(t, 300*time.Millisecond, sleeper.total())
	assert.Equal(t, 300*time.Millisecond, out.Elapsed)
}

func TestApply_PollTimeoutIncludesSampleTime(t *testing.T) {
	a := &Applier{Interval: 50 * time.Millisecond, Timeout: 300 * time.Millisecond}

	n := 0
	ev := &testutil.MockEvaluator{
		EvalFunc: func(ctx context.Context, js string, _ ...any) (string, error) {
			if js == setScript {
				return `"dark"`, nil
			}
			if err := sleepContext(ctx, 40*time.Millisecond); err != nil {
				return "", err
			}
			n++
			return fmt.Sprintf(`{"theme": "dark", "signature": "frame-%d"}`, n), nil
		},
	}

	start := time.Now()
	out, err := a.Apply(context.Background(), ev, "dark")
	wall := time.Since(start)

	require.NoError(t, err)
	assert.False(t, out.Stable)
	assert.Less(t, wall, 450*time.Millisecond, "wait must stay near Timeout")
	assert.GreaterOrEqual(t, out.Elapsed, 250*time.Millisecond)
	assert.LessOrEqual(t, out.Elapsed, wall)
	assert.LessOrEqual(t, out.Samples, 4)
}

func TestApply_PollAbandonsBlockedSample(t *testing.T) {
	a := &Applier{Interval: 10 * time.Millisecond, Timeout: 50 * time.Millisecond}

	ev := &testutil.MockEvaluator{
		EvalFunc: func(ctx context.Context, js string, _ ...any) (string, error) {
			if js == setScript {
				return `"dark"`, nil
			}
			<-ctx.Done() // animation frames never fire
			return "", ctx.Err()
		},
	}

	done := make(chan struct{})
	var (
		out Outcome
		err error
	)
	go func() {
		defer close(done)
		out, err = a.Apply(context.Background(), ev, "dark")
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Apply blocked on a sample that never resolves")
	}
	require.NoError(t, err)
	assert.False(t, out.Stable)
	assert.Zero(t, out.Samples)
	assert.GreaterOrEqual(t, out.Elapsed, 50*time.Millisecond)
}

func TestApply_PollIgnoresSamplesBeforeAttributeLands(t *testing.T) {
	sleeper := &fakeSleep{}
	a := &Applier{Sleep: sleeper.Sleep, Now: sleeper.Now}

	n := 0
	ev := &testutil.MockEvaluator{
		EvalFunc: func(_ context.Context, js string, args ...any) (string, error) {
			if js == setScript {
				return `"light"`, nil
			}
			n++
			if n <= 2 {
				return `{"theme": "dark", "signature": "x"}`, nil
			}
			return `{"theme": "light", "signature": "x"}`, nil
		},
	}

	out, err := a.Apply(context.Background(), ev, "light")

	require.NoError(t, err)
	assert.True(t, out.Stable)
	assert.Equal(t, 4, out.Samples)
}

func TestApply_Errors(t *testing.T) {
	boom := errors.New("target closed")

	t.Run("set fails", func(t *testing.T) {
		ev := &testutil.MockEvaluator{
			EvalFunc: func(context.Context, string, ...any) (string, error) { return "", boom },
		}
		_, err := (&Applier{}).Apply(context.Background(), ev, "dark")
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), `set data-theme="dark"`)
	})

	t.Run("attribute does not stick", func(t *testing.T) {
		ev := &testutil.MockEvaluator{
			EvalFunc: func(context.Context, string, ...any) (string, error) { return `null`, nil },
		}
		_, err := (&Applier{}).Apply(context.Background(), ev, "dark")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reads back")
	})

	t.Run("sample fails", func(t *testing.T) {
		ev := &testutil.MockEvaluator{
			EvalFunc: func(_ context.Context, js string, _ ...any) (string, error) {
				if js == setScript {
					return `"dark"`, nil
				}
				return "", boom
			},
		}
		_, err := (&Applier{}).Apply(context.Background(), ev, "dark")
		require.ErrorIs(t, err, boom)
	})

	t.Run("canceled during sample", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		ev := &testutil.MockEvaluator{
			EvalFunc: func(evCtx context.Context, js string, _ ...any) (string, error) {
				if js == setScript {
					return `"dark"`, nil
				}
				cancel()
				<-evCtx.Done()
				return "", evCtx.Err()
			},
		}
		_, err := (&Applier{}).Apply(ctx, ev, "dark")
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("invalid mode", func(t *testing.T) {
		_, err := (&Applier{Mode: "blink"}).Apply(context.Background(), page("dark", "a"), "dark")
		require.ErrorIs(t, err, ErrInvalidMode)
	})

	t.Run("canceled during fixed wait", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := (&Applier{Mode: ModeFixed, Delay: time.Hour}).Apply(ctx, page("dark", "a"), "dark")
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestSleepContext(t *testing.T) {
	require.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}
