package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/colorfulnotion/cairotrace/debuginfo"
	"github.com/colorfulnotion/cairotrace/log"
	"github.com/colorfulnotion/cairotrace/storage"
	"github.com/colorfulnotion/cairotrace/telemetry"
	"github.com/colorfulnotion/cairotrace/toolchain"
	"github.com/colorfulnotion/cairotrace/tracer"
	"github.com/colorfulnotion/cairotrace/tracererrors"
	"go.opentelemetry.io/otel/attribute"
)

const module = log.RunnerMonitoring

// Service compiles, runs and correlates programs. It keeps no per-request
// state, so one Service serves any number of concurrent requests.
type Service struct {
	runner          toolchain.Runner
	compilerVersion string
	cache           *storage.ResultCache
}

// NewService builds a Service; cache may be nil.
func NewService(r toolchain.Runner, compilerVersion string, cache *storage.ResultCache) *Service {
	return &Service{runner: r, compilerVersion: compilerVersion, cache: cache}
}

func (s *Service) CompilerVersion() string { return s.compilerVersion }

// BuildResult correlates one toolchain run into the response document.
func BuildResult(ctx context.Context, run *toolchain.RunResult, compilerVersion string) (*RunnerResult, error) {
	_, span := telemetry.Start(ctx, telemetry.SpanTraceData,
		attribute.Int("trace.entries", len(run.Trace)),
		attribute.Int("memory.cells", len(run.Memory)))
	tracerData, err := tracer.BuildTraceData(run.Trace, run.Memory)
	telemetry.End(span, err)
	if err != nil {
		return nil, err
	}

	_, span = telemetry.Start(ctx, telemetry.SpanStatementMap,
		attribute.Int("statements", len(run.DebugInfo.SierraStatementInfo)),
		attribute.Int64("headers_len", int64(run.HeadersLen)))
	casmToSierra := debuginfo.BuildInstructionToStatementMap(run.DebugInfo.Offsets(), run.HeadersLen)
	span.End()

	instructions := run.CasmInstructions
	if instructions == nil {
		instructions = []string{}
	}
	return &RunnerResult{
		SierraProgramCode:         run.SierraProgram,
		CasmProgramCode:           strings.Join(instructions, "\n"),
		CairoLangCompilerVersion:  compilerVersion,
		SerializedOutput:          run.SerializedOutput,
		TracerData:                tracerData,
		CasmFormattedInstructions: instructions,
		CasmToSierraMap:           casmToSierra,
		SierraFormattedProgram:    run.SierraFormattedProgram,
		Logs:                      BuildLogEntriesFromDiagnostics(run.Diagnostics),
	}, nil
}

// Run compiles and runs payload and returns the encoded RunnerResult.
func (s *Service) Run(ctx context.Context, payload RunnerPayload) ([]byte, *ResponseError) {
	ctx, span := telemetry.Start(ctx, telemetry.SpanRun,
		attribute.Int("program.bytes", len(payload.CairoProgramCode)))
	body, rerr := s.run(ctx, payload)
	if rerr != nil {
		span.SetAttributes(attribute.Int("http.status", rerr.Status))
		telemetry.End(span, rerr)
		return nil, rerr
	}
	telemetry.End(span, nil)
	return body, nil
}

func (s *Service) run(ctx context.Context, payload RunnerPayload) ([]byte, *ResponseError) {
	if strings.TrimSpace(payload.CairoProgramCode) == "" {
		return nil, badRequest(tracererrors.ErrEmptyProgram, s.compilerVersion)
	}

	var key []byte
	if s.cache != nil {
		key = storage.ResultKey(s.compilerVersion, payload.CairoProgramCode, payload.Arguments())
		_, span := telemetry.Start(ctx, telemetry.SpanCacheLookup)
		cached, ok, err := s.cache.Get(key)
		span.SetAttributes(attribute.Bool("cache.hit", ok))
		telemetry.End(span, err)
		switch {
		case err != nil:
			log.Warn(module, "cache lookup failed", "err", err)
		case ok && json.Valid(cached):
			return cached, nil
		case ok:
			log.Warn(module, "evicting corrupt cache entry", "bytes", len(cached))
			if err := s.cache.Evict(key); err != nil {
				log.Warn(module, "cache evict failed", "err", err)
			}
		}
	}

	tctx, span := telemetry.Start(ctx, telemetry.SpanToolchain)
	run, err := s.runner.Run(tctx, payload.CairoProgramCode, payload.Arguments())
	telemetry.End(span, err)
	if err != nil {
		log.Info(module, "toolchain run failed", "code", tracererrors.GetErrorCodeWithName(err), "err", err)
		return nil, toolchainError(err, s.compilerVersion)
	}

	result, err := BuildResult(ctx, run, s.compilerVersion)
	if err != nil {
		log.Error(module, "trace correlation failed", "code", tracererrors.GetErrorCodeWithName(err), "err", err)
		return nil, internalError(err, s.compilerVersion)
	}
	body, err := json.Marshal(result)
	if err != nil {
		return nil, internalError(fmt.Errorf("encode result: %w", err), s.compilerVersion)
	}

	if s.cache != nil {
		if err := s.cache.Put(key, body); err != nil {
			log.Warn(module, "cache store failed", "err", err)
		}
	}
	log.Debug(module, "run complete",
		"instructions", len(result.CasmFormattedInstructions),
		"steps", len(result.TracerData.Trace),
		"bytes", len(body))
	return body, nil
}

// DecodePayload parses a run payload, mapping failures to a 400 response.
func (s *Service) DecodePayload(raw []byte) (RunnerPayload, *ResponseError) {
	var p RunnerPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, badRequest(fmt.Errorf("%w: %v", tracererrors.ErrInvalidPayload, err), s.compilerVersion)
	}
	return p, nil
}
