// Package relay turns one inference call into an ordered stream of client
// events: zero or more status and chunk events followed by exactly one
// complete or error event.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/phambaophuc/artwork-critic/internal/models"
	"github.com/phambaophuc/artwork-critic/internal/services/inference"
	"go.uber.org/zap"
)

const (
	StartingMessage = "Analyzing artwork..."

	EmptyOutputMessage = "The AI model did not generate a response. This might be due to content policy restrictions or an issue with the image. Please try a different image or analysis style."

	defaultReadTimeout = 60 * time.Second
)

type Relay struct {
	gateway     inference.Gateway
	model       string
	pacer       Pacer
	readTimeout time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

type Options struct {
	// Model is reported in the complete event.
	Model string
	Pacer Pacer
	// ReadTimeout bounds the wait for each upstream record.
	ReadTimeout time.Duration
	Now         func() time.Time
}

// Result describes how a stream ended.
type Result struct {
	Mode     string
	Chunks   int
	Outcome  string
	Err      error
	Duration time.Duration
}

func New(gateway inference.Gateway, opts Options, logger *zap.Logger) *Relay {
	if opts.Pacer == nil {
		opts.Pacer = NoPacer
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = defaultReadTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Relay{
		gateway:     gateway,
		model:       opts.Model,
		pacer:       opts.Pacer,
		readTimeout: opts.ReadTimeout,
		now:         opts.Now,
		logger:      logger,
	}
}

// Run relays one inference call to out. It returns once a terminal event
// has been emitted or ctx is cancelled; after cancellation nothing more is
// emitted. An upstream body is always closed before Run returns. log may
// be nil, in which case the relay's own logger is used.
func (r *Relay) Run(ctx context.Context, req inference.Request, out Emitter, log *zap.Logger) (res Result) {
	if log == nil {
		log = r.logger
	}

	start := r.now()
	seq := &sequence{out: out}
	state := StateStarting

	log.Info("Relay started", zap.String("model", r.model))

	defer func() {
		if p := recover(); p != nil {
			res.Err = fmt.Errorf("relay panic: %v", p)
			res.Outcome = r.fail(seq, &state, res.Err, log)
		}
		state = StateClosed
		res.Chunks = seq.chunks
		res.Duration = r.now().Sub(start)

		fields := []zap.Field{
			zap.String("outcome", res.Outcome),
			zap.String("mode", res.Mode),
			zap.Int("chunks", res.Chunks),
			zap.Duration("duration", res.Duration),
		}
		if res.Err != nil {
			log.Warn("Relay closed", append(fields, zap.Error(res.Err))...)
		} else {
			log.Info("Relay closed", fields...)
		}
	}()

	if err := seq.emit(models.StatusEvent(StartingMessage)); err != nil {
		res.Err = err
		res.Outcome = r.fail(seq, &state, err, log)
		return res
	}

	resp, err := r.gateway.Infer(ctx, req)
	if err != nil {
		closeResponse(resp)
		res.Err = err
		res.Outcome = r.abortOrFail(ctx, seq, &state, err, log)
		return res
	}

	r.transition(&state, StateStreaming, log)

	switch body := resp.(type) {
	case *inference.StreamingBody:
		defer body.Body.Close()
		res.Mode = models.ModeNative
		err = r.relayStream(ctx, body.Body, seq, log)
	case *inference.CompleteText:
		res.Mode = models.ModeFallback
		err = r.relayText(ctx, body.Text, seq)
	default:
		err = &inference.UpstreamError{Op: "infer", Message: fmt.Sprintf("unsupported response %T", resp)}
	}
	if err != nil {
		res.Err = err
		res.Outcome = r.abortOrFail(ctx, seq, &state, err, log)
		return res
	}

	r.transition(&state, StateCompleting, log)
	if err := seq.emit(models.CompleteEvent(r.model, r.now())); err != nil {
		res.Err = err
		res.Outcome = models.OutcomeFailed
		return res
	}

	res.Outcome = models.OutcomeCompleted
	return res
}

type record struct {
	content string
	err     error
}

func (r *Relay) relayStream(ctx context.Context, body io.Reader, seq *sequence, log *zap.Logger) error {
	done := make(chan struct{})
	defer close(done)

	records := make(chan record)
	go func() {
		rr := inference.NewRecordReader(body)
		rr.OnSkip = func(line string, err error) {
			log.Debug("Skipped upstream record", zap.String("record", line), zap.Error(err))
		}
		for {
			content, err := rr.Next()
			select {
			case records <- record{content: content, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()

	timer := time.NewTimer(r.readTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return &inference.UpstreamError{Op: "read stream", Err: inference.ErrReadTimeout}
		case rec := <-records:
			if errors.Is(rec.err, io.EOF) {
				return nil
			}
			if rec.err != nil {
				return &inference.UpstreamError{Op: "read stream", Err: rec.err}
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := seq.emit(models.ChunkEvent(rec.content)); err != nil {
				return err
			}
			log.Debug("Relayed chunk", zap.Int("bytes", len(rec.content)))
			timer.Reset(r.readTimeout)
		}
	}
}

func (r *Relay) relayText(ctx context.Context, text string, seq *sequence) error {
	if text == inference.NoOutputSentinel {
		return seq.emit(models.ChunkEvent(EmptyOutputMessage))
	}

	for i, chunk := range Chunks(text) {
		if i > 0 {
			if err := r.pacer.Wait(ctx); err != nil {
				return err
			}
		}
		if err := seq.emit(models.ChunkEvent(chunk)); err != nil {
			return err
		}
	}
	return nil
}

// abortOrFail ends the stream silently when the client has gone away and
// with an error event otherwise.
func (r *Relay) abortOrFail(ctx context.Context, seq *sequence, state *State, err error, log *zap.Logger) string {
	if ctx.Err() != nil {
		r.transition(state, StateClosed, log)
		return models.OutcomeAborted
	}
	return r.fail(seq, state, err, log)
}

func (r *Relay) fail(seq *sequence, state *State, err error, log *zap.Logger) string {
	r.transition(state, StateErroring, log)
	if emitErr := seq.emit(models.ErrorEvent(errorMessage(err))); emitErr != nil {
		log.Debug("Error event not delivered", zap.Error(emitErr))
	}
	return models.OutcomeFailed
}

func (r *Relay) transition(state *State, next State, log *zap.Logger) {
	log.Debug("Relay state", zap.Stringer("from", *state), zap.Stringer("to", next))
	*state = next
}

func errorMessage(err error) string {
	if err == nil || err.Error() == "" {
		return "Failed to analyze artwork"
	}
	return err.Error()
}

func closeResponse(resp inference.Response) {
	if body, ok := resp.(*inference.StreamingBody); ok && body != nil && body.Body != nil {
		body.Body.Close()
	}
}
