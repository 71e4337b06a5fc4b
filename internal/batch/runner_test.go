package batch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prylatief/latiefads/internal/domain"
)

type fakeGenerator struct {
	calls       []string
	failOnCall  int
	err         error
	lastProduct domain.InlineImage
	sawLogo     bool
	maxInFlight int
	inFlight    int
}

func (f *fakeGenerator) GenerateAdImage(ctx context.Context, product domain.InlineImage, logo *domain.InlineImage, instruction string) (domain.InlineImage, error) {
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	defer func() { f.inFlight-- }()

	f.calls = append(f.calls, instruction)
	f.lastProduct = product
	f.sawLogo = logo != nil
	if f.failOnCall > 0 && len(f.calls) == f.failOnCall {
		return domain.InlineImage{}, f.err
	}
	return domain.InlineImage{MIMEType: "image/png", Data: []byte("png")}, nil
}

func testRequest(ratios []domain.AspectRatio, batchSize int) Request {
	return Request{
		Fields:    domain.AdFields{Headline: "Fresh Coffee", Currency: domain.CurrencyIDR},
		Template:  domain.TemplateHero,
		BrandName: "latiefads",
		Ratios:    ratios,
		BatchSize: batchSize,
		Product:   domain.InlineImage{MIMEType: "image/png", Data: []byte("product")},
	}
}

func TestExpandRepetitionMajorOrder(t *testing.T) {
	tasks := Expand([]domain.AspectRatio{domain.RatioSquare, domain.RatioLandscape}, 2)
	want := []domain.AspectRatio{
		domain.RatioSquare, domain.RatioLandscape,
		domain.RatioSquare, domain.RatioLandscape,
	}
	if len(tasks) != len(want) {
		t.Fatalf("expected %d tasks, got %d", len(want), len(tasks))
	}
	for i, task := range tasks {
		if task.Ratio != want[i] {
			t.Fatalf("task %d: expected ratio %s, got %s", i, want[i], task.Ratio)
		}
	}
}

func TestExpandInvalidInputs(t *testing.T) {
	if tasks := Expand(nil, 2); tasks != nil {
		t.Fatalf("expected nil tasks for empty ratios, got %v", tasks)
	}
	if tasks := Expand([]domain.AspectRatio{domain.RatioSquare}, 0); tasks != nil {
		t.Fatalf("expected nil tasks for zero batch size, got %v", tasks)
	}
}

func TestRunExecutesTasksInOrder(t *testing.T) {
	gen := &fakeGenerator{}
	runner := NewRunner(Options{Generator: gen, Pacing: time.Millisecond})

	req := testRequest([]domain.AspectRatio{domain.RatioSquare, domain.RatioLandscape}, 2)

	var progress []domain.BatchProgress
	var resultRatios []domain.AspectRatio
	results, err := runner.Run(context.Background(), req, Hooks{
		OnProgress: func(p domain.BatchProgress) { progress = append(progress, p) },
		OnResult:   func(r domain.GenerationResult) { resultRatios = append(resultRatios, r.Ratio) },
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	wantRatios := []domain.AspectRatio{
		domain.RatioSquare, domain.RatioLandscape,
		domain.RatioSquare, domain.RatioLandscape,
	}
	for i, ratio := range wantRatios {
		if results[i].Ratio != ratio {
			t.Fatalf("result %d: expected ratio %s, got %s", i, ratio, results[i].Ratio)
		}
		if resultRatios[i] != ratio {
			t.Fatalf("hook result %d: expected ratio %s, got %s", i, ratio, resultRatios[i])
		}
	}

	// One progress report per dispatched task, then the reset.
	if len(progress) != 5 {
		t.Fatalf("expected 5 progress reports, got %d", len(progress))
	}
	for i := 0; i < 4; i++ {
		if progress[i].Done != i+1 || progress[i].Total != 4 {
			t.Fatalf("progress %d: expected (%d, 4), got (%d, %d)", i, i+1, progress[i].Done, progress[i].Total)
		}
	}
	if progress[4] != (domain.BatchProgress{}) {
		t.Fatalf("expected progress reset after success, got (%d, %d)", progress[4].Done, progress[4].Total)
	}

	if gen.maxInFlight != 1 {
		t.Fatalf("expected at most one call in flight, saw %d", gen.maxInFlight)
	}
}

func TestRunStopsOnFirstFailureKeepingPriorResults(t *testing.T) {
	genErr := errors.New("upstream exploded")
	gen := &fakeGenerator{failOnCall: 3, err: genErr}
	runner := NewRunner(Options{Generator: gen, Pacing: time.Millisecond})

	req := testRequest([]domain.AspectRatio{domain.RatioSquare, domain.RatioLandscape}, 2)

	var progress []domain.BatchProgress
	results, err := runner.Run(context.Background(), req, Hooks{
		OnProgress: func(p domain.BatchProgress) { progress = append(progress, p) },
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, genErr) {
		t.Fatalf("expected wrapped generator error, got %v", err)
	}
	if !strings.Contains(err.Error(), "task 3 of 4") {
		t.Fatalf("expected task position in error, got %q", err.Error())
	}
	if len(results) != 2 {
		t.Fatalf("expected the 2 results produced before the failure, got %d", len(results))
	}
	if len(gen.calls) != 3 {
		t.Fatalf("expected dispatching to stop after the failure, got %d calls", len(gen.calls))
	}
	// The failing batch never resets progress to zero.
	last := progress[len(progress)-1]
	if last.Done != 3 || last.Total != 4 {
		t.Fatalf("expected final progress (3, 4), got (%d, %d)", last.Done, last.Total)
	}
}

func TestRunValidatesRequest(t *testing.T) {
	runner := NewRunner(Options{Generator: &fakeGenerator{}, Pacing: time.Millisecond})

	cases := []struct {
		name string
		req  Request
	}{
		{"missing product", Request{Ratios: []domain.AspectRatio{domain.RatioSquare}, BatchSize: 1}},
		{"no ratios", Request{Product: domain.InlineImage{MIMEType: "image/png", Data: []byte("x")}, BatchSize: 1}},
		{"zero batch size", Request{Product: domain.InlineImage{MIMEType: "image/png", Data: []byte("x")}, Ratios: []domain.AspectRatio{domain.RatioSquare}}},
	}
	for _, tc := range cases {
		_, err := runner.Run(context.Background(), tc.req, Hooks{})
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Fatalf("%s: expected ErrInvalidRequest, got %v", tc.name, err)
		}
	}
}

func TestRunPassesLogoAndRatioIntoInstruction(t *testing.T) {
	gen := &fakeGenerator{}
	runner := NewRunner(Options{Generator: gen, Pacing: time.Millisecond})

	req := testRequest([]domain.AspectRatio{domain.RatioStory}, 1)
	req.Logo = &domain.InlineImage{MIMEType: "image/png", Data: []byte("logo")}

	if _, err := runner.Run(context.Background(), req, Hooks{}); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !gen.sawLogo {
		t.Fatal("expected the logo to reach the generator")
	}
	if len(gen.calls) != 1 {
		t.Fatalf("expected one call, got %d", len(gen.calls))
	}
	if !strings.Contains(gen.calls[0], "9:16") {
		t.Fatalf("expected the instruction to name the aspect ratio, got %q", gen.calls[0])
	}
	if !strings.Contains(gen.calls[0], "logo") {
		t.Fatalf("expected the instruction to mention the logo, got %q", gen.calls[0])
	}
}

func TestRunHonorsContextCancellation(t *testing.T) {
	gen := &fakeGenerator{}
	runner := NewRunner(Options{Generator: gen, Pacing: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	req := testRequest([]domain.AspectRatio{domain.RatioSquare}, 3)
	results, err := runner.Run(ctx, req, Hooks{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected the first result to survive cancellation, got %d", len(results))
	}
}
