package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/imagescan/internal/model"
)

// Adapter wraps an Analyzer with a time budget and fault isolation.
//
// Run never returns an error and never panics: every fault is converted
// into a typed failure slot of the wrapped analyzer's kind. This is the
// boundary that guarantees one analyzer cannot take down a report.
type Adapter struct {
	analyzer Analyzer
	timeout  time.Duration
	logger   *slog.Logger
}

// NewAdapter wraps the analyzer with the given per-run time budget.
func NewAdapter(a Analyzer, timeout time.Duration, logger *slog.Logger) *Adapter {
	return &Adapter{analyzer: a, timeout: timeout, logger: logger}
}

// Name returns the wrapped analyzer's name.
func (a *Adapter) Name() string {
	return a.analyzer.Name()
}

// Kind returns the wrapped analyzer's report slot kind.
func (a *Adapter) Kind() model.ResultKind {
	return a.analyzer.Kind()
}

// Run executes the analyzer and always produces a settled slot.
func (a *Adapter) Run(ctx context.Context, input *Input) *model.AnalyzerResult {
	runCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	type outcome struct {
		result *model.AnalyzerResult
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("analyzer panicked: %v", r)}
			}
		}()
		result, err := a.analyzer.Analyze(runCtx, input)
		done <- outcome{result: result, err: err}
	}()

	select {
	case <-runCtx.Done():
		a.logger.Warn("analyzer exceeded time budget",
			"analyzer", a.analyzer.Name(), "timeout", a.timeout)
		return model.NewFailureResult(a.analyzer.Kind(), model.FailureTimeout,
			fmt.Sprintf("%s did not complete within %s", a.analyzer.Name(), a.timeout))
	case out := <-done:
		if out.err != nil {
			return a.classify(out.err)
		}
		if out.result == nil {
			return a.classify(errors.New("analyzer returned no result"))
		}
		return out.result
	}
}

// classify maps an analyzer error to its failure kind.
func (a *Adapter) classify(err error) *model.AnalyzerResult {
	kind := model.FailureInferenceError
	switch {
	case errors.Is(err, ErrModelUnavailable):
		kind = model.FailureModelUnavailable
	case errors.Is(err, ErrUnsupportedInput):
		kind = model.FailureUnsupportedInput
	case errors.Is(err, context.DeadlineExceeded):
		kind = model.FailureTimeout
	}

	a.logger.Warn("analyzer failed",
		"analyzer", a.analyzer.Name(), "kind", string(kind), "error", err)
	return model.NewFailureResult(a.analyzer.Kind(), kind, err.Error())
}
