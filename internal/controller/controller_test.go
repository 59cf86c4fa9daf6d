package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"captionline/internal/api"
	"captionline/internal/generate"
)

// call is one invocation seen by scriptedGenerator.
type call struct {
	req     generate.Request
	ctx     context.Context
	release chan struct{}
}

// scriptedGenerator blocks each Invoke until the test releases it, then
// answers with respond. When honorCancel is set a cancelled context ends the
// call early with a CancelledError, like the real client.
type scriptedGenerator struct {
	honorCancel bool
	respond     func(req generate.Request) (generate.Result, error)

	mu      sync.Mutex
	calls   []*call
	started chan *call
}

func newScriptedGenerator(honorCancel bool) *scriptedGenerator {
	return &scriptedGenerator{
		honorCancel: honorCancel,
		started:     make(chan *call, 16),
		respond: func(req generate.Request) (generate.Result, error) {
			return generate.Result{Tool: req.Tool, Lang: req.Lang, Output: "out:" + req.Input}, nil
		},
	}
}

func (g *scriptedGenerator) Invoke(ctx context.Context, req generate.Request) (generate.Result, error) {
	c := &call{req: req, ctx: ctx, release: make(chan struct{})}
	g.mu.Lock()
	g.calls = append(g.calls, c)
	g.mu.Unlock()
	g.started <- c

	if g.honorCancel {
		select {
		case <-c.release:
		case <-ctx.Done():
			return generate.Result{}, &api.CancelledError{Method: "POST", Path: "/ai/hook", Err: ctx.Err()}
		}
	} else {
		<-c.release
	}
	return g.respond(req)
}

func (g *scriptedGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func waitStarted(t *testing.T, g *scriptedGenerator) *call {
	t.Helper()
	select {
	case c := <-g.started:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("generation did not start")
		return nil
	}
}

type runResult struct {
	outcome Outcome
	err     error
}

func startGenerate(c *Controller, input string) <-chan runResult {
	done := make(chan runResult, 1)
	go func() {
		outcome, err := c.Generate(context.Background(), input, generate.LangEnglish)
		done <- runResult{outcome, err}
	}()
	return done
}

func TestGenerateResolves(t *testing.T) {
	gen := newScriptedGenerator(true)
	c := New(generate.ToolHook, gen, zerolog.Nop())

	done := startGenerate(c, "coffee")
	first := waitStarted(t, gen)
	if c.State() != StatePending {
		t.Fatalf("expected pending, got %s", c.State())
	}
	close(first.release)

	res := <-done
	if res.err != nil || res.outcome.Cancelled {
		t.Fatalf("unexpected outcome %+v (%v)", res.outcome, res.err)
	}
	if res.outcome.Result.Output != "out:coffee" {
		t.Fatalf("unexpected result %+v", res.outcome.Result)
	}
	if c.State() != StateResolved {
		t.Fatalf("expected resolved, got %s", c.State())
	}
	current, ok := c.Current()
	if !ok || current.Output != "out:coffee" {
		t.Fatalf("expected current result to be set, got %+v", current)
	}
}

func TestGenerateBlankInputDoesNothing(t *testing.T) {
	gen := newScriptedGenerator(true)
	c := New(generate.ToolHook, gen, zerolog.Nop())

	_, err := c.Generate(context.Background(), "   ", generate.LangEnglish)
	if !errors.Is(err, generate.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if gen.callCount() != 0 {
		t.Fatal("expected no generator calls")
	}
	if c.State() != StateIdle {
		t.Fatalf("expected idle, got %s", c.State())
	}
}

func TestSecondGenerateCancelsFirst(t *testing.T) {
	gen := newScriptedGenerator(true)
	c := New(generate.ToolHook, gen, zerolog.Nop())

	firstDone := startGenerate(c, "first")
	first := waitStarted(t, gen)

	secondDone := startGenerate(c, "second")
	second := waitStarted(t, gen)

	select {
	case <-first.ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("expected first request to be cancelled")
	}

	res := <-firstDone
	if res.err != nil || !res.outcome.Cancelled {
		t.Fatalf("expected silent cancellation, got %+v (%v)", res.outcome, res.err)
	}

	close(second.release)
	res = <-secondDone
	if res.err != nil || res.outcome.Result.Output != "out:second" {
		t.Fatalf("unexpected second outcome %+v (%v)", res.outcome, res.err)
	}
	current, _ := c.Current()
	if current.Output != "out:second" {
		t.Fatalf("expected second result to be current, got %q", current.Output)
	}
}

func TestStaleResultNeverOverwritesNewer(t *testing.T) {
	// The generator ignores cancellation, so the first call completes
	// successfully after the second one.
	gen := newScriptedGenerator(false)
	c := New(generate.ToolIdea, gen, zerolog.Nop())

	firstDone := startGenerate(c, "old")
	first := waitStarted(t, gen)

	secondDone := startGenerate(c, "new")
	second := waitStarted(t, gen)
	close(second.release)
	if res := <-secondDone; res.err != nil || res.outcome.Result.Output != "out:new" {
		t.Fatalf("unexpected second outcome %+v (%v)", res.outcome, res.err)
	}

	close(first.release)
	res := <-firstDone
	if !res.outcome.Cancelled {
		t.Fatalf("expected stale result to be dropped, got %+v", res.outcome)
	}

	current, _ := c.Current()
	if current.Output != "out:new" {
		t.Fatalf("stale result overwrote newer one: %q", current.Output)
	}
	last, _ := c.LastRequest()
	if last.Input != "new" {
		t.Fatalf("expected last request to be the newer one, got %q", last.Input)
	}
}

func TestRegenerateWithoutHistoryUsesFormValues(t *testing.T) {
	gen := newScriptedGenerator(true)
	c := New(generate.ToolCaption, gen, zerolog.Nop())

	done := make(chan runResult, 1)
	go func() {
		outcome, err := c.Regenerate(context.Background(), "form topic", generate.LangIndonesian)
		done <- runResult{outcome, err}
	}()
	started := waitStarted(t, gen)
	close(started.release)
	<-done

	want := generate.Request{Tool: generate.ToolCaption, Input: "form topic", Lang: generate.LangIndonesian}
	if started.req != want {
		t.Fatalf("expected %+v, got %+v", want, started.req)
	}
}

func TestRegenerateReplaysLastSuccessfulRequest(t *testing.T) {
	gen := newScriptedGenerator(true)
	c := New(generate.ToolCaption, gen, zerolog.Nop())

	done := startGenerate(c, "beach sunset")
	close(waitStarted(t, gen).release)
	<-done

	regen := make(chan runResult, 1)
	go func() {
		outcome, err := c.Regenerate(context.Background(), "edited form text", generate.LangIndonesian)
		regen <- runResult{outcome, err}
	}()
	replayed := waitStarted(t, gen)
	close(replayed.release)
	<-regen

	if replayed.req.Input != "beach sunset" || replayed.req.Lang != generate.LangEnglish {
		t.Fatalf("expected replay of last request, got %+v", replayed.req)
	}
}

func TestFailureKeepsPreviousResult(t *testing.T) {
	gen := newScriptedGenerator(true)
	c := New(generate.ToolHashtag, gen, zerolog.Nop())

	done := startGenerate(c, "ok")
	close(waitStarted(t, gen).release)
	<-done

	gen.respond = func(req generate.Request) (generate.Result, error) {
		return generate.Result{}, &api.HTTPStatusError{Method: "POST", Path: "/ai/hashtags", StatusCode: 500, Message: "Model overloaded"}
	}
	done = startGenerate(c, "broken")
	close(waitStarted(t, gen).release)
	res := <-done

	var statusErr *api.HTTPStatusError
	if !errors.As(res.err, &statusErr) {
		t.Fatalf("expected status error, got %v", res.err)
	}
	if c.State() != StateFailed {
		t.Fatalf("expected failed, got %s", c.State())
	}
	if c.LastError() != "Model overloaded" {
		t.Fatalf("unexpected last error %q", c.LastError())
	}
	current, _ := c.Current()
	if current.Output != "out:ok" {
		t.Fatalf("expected previous result to stay, got %q", current.Output)
	}
}

func TestCancelAndClose(t *testing.T) {
	gen := newScriptedGenerator(true)
	c := New(generate.ToolHook, gen, zerolog.Nop())

	if c.Cancel() {
		t.Fatal("expected no cancel when idle")
	}

	done := startGenerate(c, "topic")
	waitStarted(t, gen)
	if !c.Cancel() {
		t.Fatal("expected pending generation to be cancelled")
	}
	res := <-done
	if !res.outcome.Cancelled || res.err != nil {
		t.Fatalf("expected cancelled outcome, got %+v (%v)", res.outcome, res.err)
	}
	if c.State() != StateCancelled {
		t.Fatalf("expected cancelled state, got %s", c.State())
	}

	done = startGenerate(c, "topic")
	waitStarted(t, gen)
	c.Close()
	res = <-done
	if !res.outcome.Cancelled {
		t.Fatalf("expected close to cancel pending work, got %+v", res.outcome)
	}
	if _, ok := c.Current(); ok {
		t.Fatal("expected no result after teardown")
	}

	if _, err := c.Generate(context.Background(), "again", generate.LangEnglish); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestSitesKeepOneControllerPerTool(t *testing.T) {
	gen := newScriptedGenerator(true)
	sites := NewSites(gen, zerolog.Nop())

	hook := sites.For(generate.ToolHook)
	if sites.For(generate.ToolHook) != hook {
		t.Fatal("expected the same controller for the same tool")
	}
	if sites.For(generate.ToolIdea) == hook {
		t.Fatal("expected separate controllers per tool")
	}
	tools := sites.Tools()
	if len(tools) != 2 || tools[0] != generate.ToolHook || tools[1] != generate.ToolIdea {
		t.Fatalf("unexpected tools %v", tools)
	}

	done := startGenerate(hook, "topic")
	waitStarted(t, gen)
	if n := sites.CancelAll(); n != 1 {
		t.Fatalf("expected one cancelled site, got %d", n)
	}
	<-done

	sites.Close()
	if _, err := sites.For(generate.ToolCaption).Generate(context.Background(), "x", ""); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected sites created after close to be closed, got %v", err)
	}
}
