package batch

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prylatief/latiefads/internal/adprompt"
	"github.com/prylatief/latiefads/internal/domain"
	"github.com/prylatief/latiefads/internal/infra"
)

// taskPacing is the fixed delay between consecutive generation calls. It is a
// deliberate throttle against upstream rate limits; the exact duration is not
// load-bearing, but the one-call-in-flight guarantee is.
const taskPacing = 1500 * time.Millisecond

// Generator is the image-generation capability consumed by the runner.
type Generator interface {
	GenerateAdImage(ctx context.Context, product domain.InlineImage, logo *domain.InlineImage, instruction string) (domain.InlineImage, error)
}

// Request is one validated batch: shared fields, template, images, and the
// (ratios x batch size) expansion inputs. The product and logo payloads are
// read once per batch and shared read-only across every task.
type Request struct {
	Fields     domain.AdFields
	Template   domain.Template
	BrandColor string
	Watermark  bool
	BrandName  string
	Ratios     []domain.AspectRatio
	BatchSize  int
	Product    domain.InlineImage
	Logo       *domain.InlineImage
}

// Task is one unit of work. All tasks in a batch share everything except the
// target ratio.
type Task struct {
	Ratio domain.AspectRatio
}

// Expand produces the ordered task sequence: for each repetition 1..batchSize,
// one task per selected ratio in selection order.
func Expand(ratios []domain.AspectRatio, batchSize int) []Task {
	if batchSize < 1 || len(ratios) == 0 {
		return nil
	}
	tasks := make([]Task, 0, batchSize*len(ratios))
	for rep := 0; rep < batchSize; rep++ {
		for _, ratio := range ratios {
			tasks = append(tasks, Task{Ratio: ratio})
		}
	}
	return tasks
}

// Hooks receives runner callbacks while a batch executes. Progress is
// reported with (dispatched, total) right after each task is dispatched,
// before its result is known, and reset to (0,0) after a fully successful
// batch. Results arrive in dispatch order.
type Hooks struct {
	OnProgress func(domain.BatchProgress)
	OnResult   func(domain.GenerationResult)
}

func (h Hooks) progress(p domain.BatchProgress) {
	if h.OnProgress != nil {
		h.OnProgress(p)
	}
}

// Options configures a Runner.
type Options struct {
	Generator Generator
	Logger    *infra.Logger
	// Pacing overrides the default inter-task delay; zero keeps the default.
	Pacing time.Duration
}

// Runner executes batches strictly sequentially. The single-slot gate
// serializes generation calls even if callers run batches from multiple
// goroutines: at most one upstream request is ever in flight per Runner.
type Runner struct {
	generator Generator
	logger    infra.Logger
	pacing    time.Duration
	gate      chan struct{}
}

// NewRunner constructs a Runner around the given generator.
func NewRunner(opts Options) *Runner {
	pacing := opts.Pacing
	if pacing <= 0 {
		pacing = taskPacing
	}
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Runner{
		generator: opts.Generator,
		logger:    logger,
		pacing:    pacing,
		gate:      make(chan struct{}, 1),
	}
}

// Run executes every task of the batch in order, one at a time, pausing the
// pacing interval between tasks. On the first task failure it stops
// dispatching and returns the results produced so far together with the
// error; the partial results are never rolled back.
func (r *Runner) Run(ctx context.Context, req Request, hooks Hooks) ([]domain.GenerationResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	tasks := Expand(req.Ratios, req.BatchSize)
	total := len(tasks)
	results := make([]domain.GenerationResult, 0, total)

	r.logger.Info().
		Int("tasks", total).
		Int("batch_size", req.BatchSize).
		Int("ratios", len(req.Ratios)).
		Str("template", string(req.Template)).
		Msg("batch: started")

	for i, task := range tasks {
		hooks.progress(domain.BatchProgress{Done: i + 1, Total: total})

		instruction := adprompt.Build(adprompt.Spec{
			Template:   req.Template,
			Fields:     req.Fields,
			BrandColor: req.BrandColor,
			Watermark:  req.Watermark,
			BrandName:  req.BrandName,
			HasLogo:    req.Logo != nil && !req.Logo.IsZero(),
			Ratio:      task.Ratio,
		})

		image, err := r.generate(ctx, req, instruction)
		if err != nil {
			r.logger.Error().Err(err).
				Int("task", i+1).
				Int("total", total).
				Str("aspect_ratio", string(task.Ratio)).
				Msg("batch: task failed, stopping")
			return results, fmt.Errorf("task %d of %d (%s): %w", i+1, total, task.Ratio, err)
		}

		result := domain.GenerationResult{
			ID:    uuid.NewString(),
			Image: image,
			Ratio: task.Ratio,
		}
		results = append(results, result)
		if hooks.OnResult != nil {
			hooks.OnResult(result)
		}

		if i < total-1 {
			select {
			case <-ctx.Done():
				return results, ctx.Err()
			case <-time.After(r.pacing):
			}
		}
	}

	r.logger.Info().Int("results", len(results)).Msg("batch: completed")
	hooks.progress(domain.BatchProgress{})
	return results, nil
}

// generate holds the single-slot gate for the duration of one upstream call.
func (r *Runner) generate(ctx context.Context, req Request, instruction string) (domain.InlineImage, error) {
	select {
	case r.gate <- struct{}{}:
	case <-ctx.Done():
		return domain.InlineImage{}, ctx.Err()
	}
	defer func() { <-r.gate }()
	return r.generator.GenerateAdImage(ctx, req.Product, req.Logo, instruction)
}

func validate(req Request) error {
	if req.Product.IsZero() {
		return fmt.Errorf("%w: product image is required", domain.ErrInvalidRequest)
	}
	if len(req.Ratios) == 0 {
		return fmt.Errorf("%w: select at least one aspect ratio", domain.ErrInvalidRequest)
	}
	if req.BatchSize < 1 {
		return fmt.Errorf("%w: batch size must be at least 1", domain.ErrInvalidRequest)
	}
	return nil
}
