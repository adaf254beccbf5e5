package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/matterwavelabs/splitstep/internal/logging"
	"github.com/matterwavelabs/splitstep/model"
)

const tracerName = "github.com/matterwavelabs/splitstep/core"

// RunSequence interprets the ordered instruction list and drives the
// second-order Strang splitting loop. Instructions execute strictly
// sequentially; any configuration error (unknown step name, malformed
// momentum vector, unwritable snapshot) aborts the whole run.
func (p *Propagator) RunSequence(ctx context.Context, items []model.SequenceItem) error {
	halfFn, ok := p.steps[StepHalf]
	if !ok {
		return fmt.Errorf("%w: %q missing from dispatch table", ErrUnknownStep, StepHalf)
	}
	fullFn, ok := p.steps[StepFull]
	if !ok {
		return fmt.Errorf("%w: %q missing from dispatch table", ErrUnknownStep, StepFull)
	}

	p.log.Info(ctx, "sequence list loaded", logging.Int("instructions", len(items)))

	tracer := otel.Tracer(tracerName)
	propCount := 0
	for i := range items {
		item := &items[i]

		seqCtx, span := tracer.Start(ctx, "sequence "+item.Name,
			trace.WithAttributes(
				attribute.Int("sequence.number", i+1),
				attribute.String("sequence.step", item.Name),
			))
		err := p.runInstruction(seqCtx, &propCount, item, halfFn, fullFn)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			span.End()
			return fmt.Errorf("sequence %d (%s): %w", i+1, item.Name, err)
		}
		span.End()
	}
	return nil
}

func (p *Propagator) runInstruction(ctx context.Context, propCount *int, item *model.SequenceItem, halfFn, fullFn StepFunc) error {
	if p.handler.HandleSequence(p, item) {
		p.log.Info(ctx, "instruction consumed by custom handler", logging.String("name", item.Name))
		return nil
	}

	if item.Name == SetMomentumStep {
		return p.runSetMomentum(ctx, item)
	}

	// Packed output files are numbered by propagation instruction only;
	// momentum kicks and handler-consumed instructions do not advance the
	// counter.
	*propCount++
	seqNo := *propCount

	maxDuration := 0.0
	for _, d := range item.Duration {
		if d > maxDuration {
			maxDuration = d
		}
	}

	dt := item.Dt
	if dt == 0 {
		dt = p.header.Dt
	}
	if dt != p.header.Dt {
		p.SetDt(dt)
	}

	nk := item.Nk
	if nk < 1 {
		return fmt.Errorf("%w: Nk = %d", ErrBadSequence, nk)
	}
	subN := int(maxDuration / dt)
	na := subN / nk

	p.log.Info(ctx, "sequence started",
		logging.String("name", item.Name),
		logging.Int("number", seqNo),
		logging.Float64("duration", maxDuration),
		logging.Float64("dt", dt),
		logging.Int("na", na),
		logging.Int("nk", nk),
	)
	if covered := float64(na*nk) * dt; covered != maxDuration {
		p.log.Warn(ctx, "requested duration not divisible into Na*Nk steps; truncating",
			logging.Float64("requested", maxDuration),
			logging.Float64("covered", covered),
		)
	}

	stepFn, ok := p.steps[item.Name]
	if !ok && item.Name == "custom" && p.custom != nil {
		stepFn = p.custom
		ok = true
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStep, item.Name)
	}

	if item.OutputFreq == model.FreqPacked {
		// Stale packed output from a previous run would otherwise be
		// appended to.
		for k := 0; k < len(p.fields); k++ {
			os.Remove(p.packedPath(seqNo, k))
		}
	}

	for i := 1; i <= na; i++ {
		p.runStep(StepHalf, halfFn, item)
		for j := 2; j <= nk; j++ {
			p.runStep(item.Name, stepFn, item)
			p.runStep(StepFull, fullFn, item)
		}
		p.runStep(item.Name, stepFn, item)
		p.runStep(StepHalf, halfFn, item)

		p.log.Info(ctx, "iteration complete",
			logging.Int("iteration", i),
			logging.Float64("t", p.header.T),
		)
		p.metrics.SetSimulationTime(p.header.T)

		switch item.OutputFreq {
		case model.FreqEach:
			if err := p.writeSnapshots(); err != nil {
				return err
			}
		case model.FreqPacked:
			if err := p.appendSnapshots(seqNo); err != nil {
				return err
			}
		}
		if item.ParticleFreq == model.FreqEach {
			if err := p.reportParticleNumbers(ctx); err != nil {
				return err
			}
		}
		if item.CustomFreq == model.FreqEach && p.custom != nil {
			p.custom(p, item)
		}
	}

	if item.OutputFreq == model.FreqLast {
		if err := p.writeSnapshots(); err != nil {
			return err
		}
	}
	if item.ParticleFreq == model.FreqLast {
		if err := p.reportParticleNumbers(ctx); err != nil {
			return err
		}
	}
	if item.CustomFreq == model.FreqLast && p.custom != nil {
		p.custom(p, item)
	}
	return nil
}

func (p *Propagator) runSetMomentum(ctx context.Context, item *model.SequenceItem) error {
	momentum, err := parseMomentum(item.Content, p.desc.Dim)
	if err != nil {
		return err
	}
	if err := p.SetupMomentum(momentum, item.Comp); err != nil {
		return err
	}
	p.log.Info(ctx, "momentum set",
		logging.Int("component", item.Comp),
		logging.Any("momentum", momentum),
	)
	return nil
}

// runStep executes one step operator and records its duration.
func (p *Propagator) runStep(name string, fn StepFunc, item *model.SequenceItem) {
	start := time.Now()
	fn(p, item)
	p.metrics.ObserveStep(name, time.Since(start))
}

// parseMomentum reads a comma-separated vector with at least dim numeric
// tokens; surplus tokens are ignored.
func parseMomentum(content string, dim int) ([]float64, error) {
	tokens := strings.Split(content, ",")
	if len(tokens) < dim {
		return nil, fmt.Errorf("%w: %d tokens for %d dimensions", ErrBadMomentumVector, len(tokens), dim)
	}
	momentum := make([]float64, dim)
	for i := 0; i < dim; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(tokens[i]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: token %d: %v", ErrBadMomentumVector, i, err)
		}
		momentum[i] = v
	}
	return momentum, nil
}

func (p *Propagator) writeSnapshots() error {
	for k := range p.fields {
		path := p.snapshotPath(p.header.T, k)
		if err := p.SaveComponent(path, k); err != nil {
			return err
		}
	}
	return nil
}

func (p *Propagator) appendSnapshots(seqNo int) error {
	for k := range p.fields {
		if err := p.AppendComponent(p.packedPath(seqNo, k), k); err != nil {
			return err
		}
	}
	return nil
}

func (p *Propagator) reportParticleNumbers(ctx context.Context) error {
	for c := range p.fields {
		n, err := p.ParticleNumber(c)
		if err != nil {
			return err
		}
		p.log.Info(ctx, "particle number",
			logging.Int("component", c),
			logging.Float64("n", n),
		)
		p.metrics.SetParticleNumber(c, n)
	}
	return nil
}

// snapshotPath builds the per-time snapshot file name for one component.
// Components are numbered from 1 on disk.
func (p *Propagator) snapshotPath(t float64, comp int) string {
	return filepath.Join(p.outDir, fmt.Sprintf("%.3f_%d.bin", t, comp+1))
}

// packedPath builds the per-sequence packed output file name.
func (p *Propagator) packedPath(seqNo, comp int) string {
	return filepath.Join(p.outDir, fmt.Sprintf("Seq_%d_%d.bin", seqNo, comp+1))
}
