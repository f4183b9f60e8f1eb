package op

import (
	"context"
	"errors"
	"time"

	"github.com/flowllm/flowllm/internal/flowcontext"
	"github.com/flowllm/flowllm/internal/flowerr"
	"github.com/flowllm/flowllm/internal/opcache"
	"github.com/flowllm/flowllm/internal/scheduler"
	"github.com/flowllm/flowllm/internal/telemetry"
	"github.com/flowllm/flowllm/internal/toolcall"
)

// Pool is the subset of scheduler.WorkerPool the Runtime needs, kept as
// an interface so tests can substitute a fake without pulling in the
// real bounded pool.
type Pool interface {
	Submit(ctx context.Context, fn func() (any, error)) (any, error)
}

// Runtime drives one invocation of one Op through cache-probe,
// before-execute, execute-with-retries, exhaustion, after-execute,
// cache-store and return.
type Runtime struct {
	op        Op
	cache     opcache.Cache
	buildOnce *opcache.BuildOnce
	pool      Pool
}

// NewRuntime builds a Runtime for op. cache may be nil to disable
// caching outright regardless of Config().CacheEnabled; pool may be nil
// to run blocking Ops in-process without worker-pool bounding (used by
// tests and by Ops with no configured pool).
func NewRuntime(o Op, cache opcache.Cache, pool Pool) *Runtime {
	r := &Runtime{op: o, cache: cache, pool: pool}
	if cache != nil {
		r.buildOnce = opcache.NewBuildOnce(cache)
	}
	return r
}

// Call runs the OpRuntime lifecycle for one invocation: cache-probe,
// before-execute, execute-with-retries, exhaustion, after-execute,
// cache-store and return. Go has no separate calling convention for
// cooperative vs blocking code, so Config().Async only selects which
// of Execute/AsyncExecute the execute step invokes. Emits an
// "op.execute" span and the op.duration_ms histogram around the whole
// lifecycle.
//
// The first step binds kwargs: they are merged into fctx under their
// argument names. kwargs also seeds cache fingerprinting and, for Ops
// without a ToolCall, is the input map passed straight to
// Execute/AsyncExecute.
func (r *Runtime) Call(fctx *flowcontext.Context, kwargs map[string]any) (map[string]any, error) {
	fctx.Merge(kwargs)
	ctx, span := telemetry.StartSpan(fctx, "op.execute")
	defer span.End()
	start := time.Now()

	cfg := r.op.Config()
	var output map[string]any
	var err error
	if !cfg.CacheEnabled || r.cache == nil {
		output, _, err = r.executeWithRetries(fctx, kwargs)
	} else {
		output, err = r.callCached(fctx, kwargs, cfg)
	}

	telemetry.RecordOpDuration(ctx, r.op.ShortName(), time.Since(start), err == nil)
	return output, err
}

// defaultOutputErr signals a successful execute-with-retries call that
// exhausted retries with RaiseOnFailure=false: the output is the
// default (empty map) and must not be persisted by opcache.BuildOnce,
// so callCached carries it out of GetOrBuild as an error rather than a
// value.
type defaultOutputErr struct {
	output map[string]any
}

func (e *defaultOutputErr) Error() string { return "op: default output, not cached" }

// callCached routes the cache-probe/build/store lifecycle through
// opcache.BuildOnce, which gives an at-most-once concurrent build per
// fingerprint so concurrent callers requesting the same uncached key
// share one execution.
func (r *Runtime) callCached(fctx *flowcontext.Context, kwargs map[string]any, cfg *Config) (map[string]any, error) {
	key, err := Fingerprint(r.op.ShortName(), cacheAffectingInputs(r.op, kwargs))
	if err != nil {
		return nil, flowerr.New(flowerr.KindDeterministic, err)
	}

	v, _, err := r.buildOnce.GetOrBuild(fctx, key, cfg.CacheExpire, func() (any, error) {
		output, isDefault, err := r.executeWithRetries(fctx, kwargs)
		if err != nil {
			return nil, err
		}
		if isDefault {
			return nil, &defaultOutputErr{output: output}
		}
		return output, nil
	})
	if err != nil {
		var def *defaultOutputErr
		if errors.As(err, &def) {
			return def.output, nil
		}
		return nil, err
	}
	output, _ := v.(map[string]any)
	return output, nil
}

// executeWithRetries runs before-execute and the retry loop around
// execute. The bool return reports whether the output is the
// exhaustion-path default, which callCached uses to skip storing it.
func (r *Runtime) executeWithRetries(fctx *flowcontext.Context, kwargs map[string]any) (map[string]any, bool, error) {
	cfg := r.op.Config()
	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := fctx.Err(); err != nil {
			lastErr = flowerr.New(flowerr.KindCancelled, err)
			break
		}

		output, err := r.attempt(fctx, cfg, kwargs)
		if err == nil {
			r.afterExecute(fctx, cfg.ToolCall, output)
			return output, false, nil
		}

		lastErr = err
		if !flowerr.KindOf(err).Retryable() {
			break
		}
		if attempt+1 >= maxRetries {
			break
		}
		if cfg.RetryDelay > 0 {
			delay := cfg.RetryDelay
			if cfg.RetryBackoff {
				delay = cfg.RetryDelay * time.Duration(attempt+1)
			}
			if sleepErr := scheduler.Sleep(fctx, delay); sleepErr != nil {
				lastErr = sleepErr
				break
			}
		}
	}

	if cfg.RaiseOnFailure {
		return nil, false, lastErr
	}
	output := map[string]any{}
	r.afterExecute(fctx, cfg.ToolCall, output)
	return output, true, nil
}

// attempt runs step 3 (before-execute) and step 4 (one execute
// attempt), submitting to the worker pool for blocking Ops.
func (r *Runtime) attempt(fctx *flowcontext.Context, cfg *Config, kwargs map[string]any) (map[string]any, error) {
	input := kwargs
	if cfg.ToolCall != nil {
		bound, err := cfg.ToolCall.BindInputs(r.op.ShortName(), fctx, fctx.Snapshot())
		if err != nil {
			var missing *toolcall.MissingInputError
			if errors.As(err, &missing) {
				return nil, flowerr.New(flowerr.KindInputValidation, err)
			}
			return nil, flowerr.New(flowerr.KindDeterministic, err)
		}
		input = bound
	}

	if cfg.Async {
		return r.op.AsyncExecute(fctx, input)
	}
	if r.pool == nil {
		return r.op.Execute(fctx, input)
	}
	v, err := r.pool.Submit(fctx, func() (any, error) {
		return r.op.Execute(fctx, input)
	})
	if err != nil {
		return nil, err
	}
	output, _ := v.(map[string]any)
	return output, nil
}

// afterExecute implements step 6: write tool outputs back into the
// Context and, when SaveAnswer is set, populate response.answer.
func (r *Runtime) afterExecute(fctx *flowcontext.Context, tc *toolcall.ToolCall, output map[string]any) {
	if tc == nil {
		return
	}
	tc.WriteOutputs(fctx, output)
	if r.op.Config().SaveAnswer {
		fctx.Response.SetAnswer(tc.AnswerValue(output))
	}
}
