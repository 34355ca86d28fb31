package synthesis

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/dermasim/internal/audit"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/domain"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/provider"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/raster"
	"github.com/saturnino-fabrica-de-software/dermasim/internal/treatment"
)

const (
	releaseTimeout = 10 * time.Second
	recordTimeout  = 2 * time.Second
)

// Submitter runs a job with exclusive device access. *DeviceWorker implements it.
type Submitter interface {
	Submit(ctx context.Context, fn JobFunc) error
}

// Recorder persists generation history
type Recorder interface {
	Create(ctx context.Context, gen *domain.Generation) error
}

// Request is one /generate/ call, image already decoded
type Request struct {
	Image  image.Image
	Area   string
	Dosage int

	// Audit context, optional
	IPAddress string
	UserAgent string
}

// Result is a finished generation
type Result struct {
	JPEG         []byte
	Prompt       *treatment.CompiledPrompt
	Width        int
	Height       int
	GenerationID string
}

// Options configures the service
type Options struct {
	Backend     string
	JPEGQuality int
}

type Service struct {
	synthesizer provider.ImageSynthesizer
	compiler    *treatment.Compiler
	worker      Submitter
	recorder    Recorder
	audit       audit.Logger
	options     Options
	logger      *slog.Logger
}

func NewService(
	synthesizer provider.ImageSynthesizer,
	compiler *treatment.Compiler,
	worker Submitter,
	options Options,
	logger *slog.Logger,
) *Service {
	if options.JPEGQuality == 0 {
		options.JPEGQuality = raster.DefaultJPEGQuality
	}
	return &Service{
		synthesizer: synthesizer,
		compiler:    compiler,
		worker:      worker,
		recorder:    noopRecorder{},
		audit:       &audit.NoOpLogger{},
		options:     options,
		logger:      logger.With("component", "synthesis"),
	}
}

// WithRecorder enables generation history
func (s *Service) WithRecorder(r Recorder) *Service {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithAudit sets the audit logger
func (s *Service) WithAudit(l audit.Logger) *Service {
	if l != nil {
		s.audit = l
	}
	return s
}

// Compiler exposes the prompt compiler used by the service
func (s *Service) Compiler() *treatment.Compiler {
	return s.compiler
}

// Generate resizes the photo, compiles the prompt and runs exactly one
// synthesis on the device worker. The first returned image is JPEG encoded.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	if req.Image == nil {
		return nil, domain.ErrDecodeFailure.WithError(errors.New("no image"))
	}

	bounds := req.Image.Bounds()
	gen := &domain.Generation{
		ID:          uuid.New(),
		Area:        req.Area,
		Dosage:      req.Dosage,
		Backend:     s.options.Backend,
		InputWidth:  bounds.Dx(),
		InputHeight: bounds.Dy(),
	}

	result, err := s.generate(ctx, req, gen)

	gen.LatencyMs = time.Since(start).Milliseconds()
	s.finish(ctx, req, gen, err)

	if err != nil {
		return nil, err
	}
	result.GenerationID = gen.ID.String()
	return result, nil
}

func (s *Service) generate(ctx context.Context, req Request, gen *domain.Generation) (*Result, error) {
	resized := raster.Fit(req.Image)

	prompt, err := s.compiler.Compile(req.Area, req.Dosage)
	if err != nil {
		return nil, err
	}
	gen.Strength = prompt.Strength
	gen.GuidanceScale = prompt.GuidanceScale

	var output image.Image
	err = s.worker.Submit(ctx, func(jobCtx context.Context) error {
		img, err := s.synthesize(jobCtx, resized, prompt)
		if err != nil {
			return err
		}
		output = img
		return nil
	})
	if err != nil {
		return nil, err
	}

	encoded, err := raster.EncodeJPEG(output, s.options.JPEGQuality)
	if err != nil {
		return nil, domain.ErrSynthesisFailure.WithError(err)
	}

	b := output.Bounds()
	return &Result{
		JPEG:   encoded,
		Prompt: prompt,
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// synthesize invokes the collaborator once and always releases device memory,
// including when the collaborator panics.
func (s *Service) synthesize(ctx context.Context, img image.Image, prompt *treatment.CompiledPrompt) (image.Image, error) {
	defer s.release(ctx)

	images, err := s.synthesizer.Synthesize(ctx, provider.SynthesisInput{
		Prompt:         prompt.Positive,
		NegativePrompt: prompt.Negative,
		Image:          img,
		Strength:       prompt.Strength,
		GuidanceScale:  prompt.GuidanceScale,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, domain.ErrSynthesisFailure.WithError(err)
	}
	if len(images) == 0 || images[0] == nil {
		return nil, domain.ErrSynthesisFailure.WithError(errors.New("synthesizer returned no images"))
	}

	return images[0], nil
}

func (s *Service) release(ctx context.Context) {
	// The job context may already be expired
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	if err := s.synthesizer.ReleaseMemory(releaseCtx); err != nil {
		s.logger.Warn("failed to release device memory", "error", err)
	}
}

// finish records history and audit; failures here are logged, never returned
func (s *Service) finish(ctx context.Context, req Request, gen *domain.Generation, genErr error) {
	event := audit.Event{
		EventType: audit.EventGenerationCompleted,
		Area:      gen.Area,
		Backend:   gen.Backend,
		Success:   genErr == nil,
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
		Metadata: map[string]string{
			"dosage":     strconv.Itoa(gen.Dosage),
			"strength":   strconv.FormatFloat(gen.Strength, 'f', 4, 64),
			"latency_ms": strconv.FormatInt(gen.LatencyMs, 10),
		},
	}

	if genErr != nil {
		gen.Status = domain.GenerationFailed
		gen.ErrorCode = errorCode(genErr)
		event.EventType = audit.EventGenerationFailed
		event.Error = gen.ErrorCode

		s.logger.WarnContext(ctx, "generation failed",
			"area", gen.Area,
			"dosage", gen.Dosage,
			"error_code", gen.ErrorCode,
			"error", genErr,
		)
	} else {
		gen.Status = domain.GenerationSucceeded

		s.logger.InfoContext(ctx, "generation completed",
			"area", gen.Area,
			"dosage", gen.Dosage,
			"strength", gen.Strength,
			"latency_ms", gen.LatencyMs,
		)
	}

	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	if err := s.recorder.Create(recordCtx, gen); err != nil {
		s.logger.Warn("failed to record generation", "error", err)
	}

	event.SubjectID = gen.ID.String()
	if err := s.audit.Log(recordCtx, event); err != nil {
		s.logger.Warn("failed to write audit event", "error", err)
	}
}

// errorCode returns the domain code for err, INTERNAL_ERROR otherwise
func errorCode(err error) string {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return domain.ErrInternal.Code
}

type noopRecorder struct{}

func (noopRecorder) Create(_ context.Context, gen *domain.Generation) error {
	return nil
}

