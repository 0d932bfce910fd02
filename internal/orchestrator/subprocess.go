package orchestrator

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v5"
	"go.uber.org/zap"

	"github.com/trajectly/trajectly/internal/event"
	"github.com/trajectly/trajectly/internal/replayguard"
	"github.com/trajectly/trajectly/internal/specconfig"
	"github.com/trajectly/trajectly/internal/verdict"
)

// Environment variable names sdk/trajectlyagent reads at process
// start to configure its own fixture player/recorder and replay
// guard. The subprocess installs these itself: the orchestrator
// cannot patch a child process's network stack from the outside.
const (
	envMode              = "TRAJECTLY_MODE"
	envRunID             = "TRAJECTLY_RUN_ID"
	envSpecName          = "TRAJECTLY_SPEC_NAME"
	envFixturePath       = "TRAJECTLY_FIXTURE_PATH"
	envReplayMode        = "TRAJECTLY_REPLAY_MODE"
	envStrictSequence    = "TRAJECTLY_STRICT_SEQUENCE"
	envLLMMatchMode      = "TRAJECTLY_LLM_MATCH_MODE"
	envToolMatchMode     = "TRAJECTLY_TOOL_MATCH_MODE"
	envAllowDomains      = "TRAJECTLY_ALLOW_DOMAINS"
	envNormalizerVersion = "TRAJECTLY_NORMALIZER_VERSION"

	ModeRecord = "record"
	ModeReplay = "replay"
)

// NormalizerVersion is this build's fixture/trace normalizer version,
// compared against a baseline's recorded version on every replay.
const NormalizerVersion = "v1"

// RunTimeoutError reports that the agent subprocess was killed after
// exceeding its wall-clock budget.
type RunTimeoutError struct {
	Timeout time.Duration
}

func (e RunTimeoutError) Error() string {
	return fmt.Sprintf("orchestrator: agent subprocess exceeded run_timeout of %s", e.Timeout)
}

// spawnConfig carries everything subprocess spawning needs beyond the
// spec's own Command/Workdir/Env.
type spawnConfig struct {
	mode              string
	runID             string
	specName          string
	fixturePath       string
	replay            specconfig.ReplayConfig
	allowDomains      []string
	normalizerVersion string
	timeout           time.Duration
	attempts          uint
}

// sidebandViolation is the wire shape sdk/trajectlyagent emits on
// stdout, interleaved with ordinary trajectory event lines, when its
// own in-process fixture player or replay guard rejects a call. It
// carries a "trajectly_violation" marker key so the orchestrator can
// tell it apart from a trajectory event line, which always carries
// "event_type" instead.
type sidebandViolation struct {
	Marker     string `json:"trajectly_violation"`
	Class      string `json:"class"`
	Code       string `json:"code"`
	EventIndex int    `json:"event_index"`
	Message    string `json:"message"`
	Hint       string `json:"hint"`
	Detail     string `json:"detail"`
}

// spawnAndCapture runs the spec's command as a subprocess wired for
// mode, streaming its stdout JSONL into a decoded trajectory plus any
// sideband violations the subprocess's own guard/fixture layer
// raised. It retries transient exec failures (the process failing to
// start at all) up to attempts times; a subprocess that starts but
// exits non-zero, or times out, is not retried, since retrying an
// agent run that already emitted partial trajectory events would
// duplicate them.
func spawnAndCapture(ctx context.Context, logger *zap.Logger, spec *specconfig.Resolved, cfg spawnConfig) ([]event.Normalized, []verdict.Violation, error) {
	var lines [][]byte

	err := retry.New(
		retry.Attempts(cfg.attempts),
		retry.Context(ctx),
		retry.RetryIf(isTransientStartError),
		retry.LastErrorOnly(true),
	).Do(func() error {
		lines = nil
		captured, err := runOnce(ctx, logger, spec, cfg)
		lines = captured
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	return decodeTrajectory(lines, spec.RedactRegexps)
}

// runOnce spawns the subprocess once and returns every stdout line it
// wrote before exiting or being killed on timeout.
func runOnce(ctx context.Context, logger *zap.Logger, spec *specconfig.Resolved, cfg spawnConfig) ([][]byte, error) {
	runCtx := ctx
	var cancel context.CancelFunc
	if cfg.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	if len(spec.Command) == 0 {
		return nil, fmt.Errorf("orchestrator: spec %q has an empty command", spec.Name)
	}

	cmd := exec.CommandContext(runCtx, spec.Command[0], spec.Command[1:]...)
	cmd.Dir = spec.Workdir
	cmd.Env = buildEnv(spec, cfg)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("orchestrator: attach stdout: %w", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("orchestrator: start subprocess: %w", err)
	}

	var lines [][]byte
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		lines = append(lines, cp)
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("scan subprocess stdout", zap.Error(err))
	}

	waitErr := cmd.Wait()
	if runCtx.Err() == context.DeadlineExceeded {
		return lines, RunTimeoutError{Timeout: cfg.timeout}
	}
	if waitErr != nil {
		return lines, fmt.Errorf("orchestrator: agent subprocess: %w", waitErr)
	}
	return lines, nil
}

// isTransientStartError is true only for failures to launch the
// process at all (binary missing, exec permission denied); once a
// process starts and streams any events, a retry would re-emit them.
func isTransientStartError(err error) bool {
	var pathErr *os.PathError
	return isPathError(err, &pathErr)
}

func isPathError(err error, target **os.PathError) bool {
	for err != nil {
		if pe, ok := err.(*os.PathError); ok {
			*target = pe
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}

func buildEnv(spec *specconfig.Resolved, cfg spawnConfig) []string {
	env := os.Environ()
	for k, v := range spec.Env {
		env = append(env, k+"="+v)
	}
	env = append(env,
		envMode+"="+cfg.mode,
		envRunID+"="+cfg.runID,
		envSpecName+"="+cfg.specName,
		envFixturePath+"="+cfg.fixturePath,
		envReplayMode+"="+string(cfg.replay.Mode),
		envStrictSequence+"="+strconv.FormatBool(cfg.replay.StrictSequence),
		envLLMMatchMode+"="+string(cfg.replay.LLMMatchMode),
		envToolMatchMode+"="+string(cfg.replay.ToolMatchMode),
		envAllowDomains+"="+strings.Join(cfg.allowDomains, ","),
		envNormalizerVersion+"="+cfg.normalizerVersion,
	)
	if cfg.replay.Mode == specconfig.ReplayOffline {
		guard := replayguard.New(specconfig.ReplayOffline, cfg.allowDomains)
		env = append(env, guard.SubprocessEnv()...)
	}
	return env
}

func decodeTrajectory(lines [][]byte, redact []*regexp.Regexp) ([]event.Normalized, []verdict.Violation, error) {
	out := make([]event.Normalized, 0, len(lines))
	var sideband []verdict.Violation
	for _, line := range lines {
		if isSidebandViolation(line) {
			var sv sidebandViolation
			if err := json.Unmarshal(line, &sv); err != nil {
				return nil, nil, fmt.Errorf("orchestrator: decode sideband violation: %w", err)
			}
			sideband = append(sideband, verdict.Violation{
				Class:      verdict.Class(sv.Class),
				Code:       sv.Code,
				EventIndex: sv.EventIndex,
				Message:    sv.Message,
				Hint:       sv.Hint,
				Detail:     sv.Detail,
			})
			continue
		}

		raw, err := event.ParseLine(line)
		if err != nil {
			return nil, nil, fmt.Errorf("orchestrator: parse trajectory line: %w", err)
		}
		ev, err := event.FromRaw(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("orchestrator: decode trajectory event: %w", err)
		}
		norm, err := event.Normalize(ev, redact)
		if err != nil {
			return nil, nil, fmt.Errorf("orchestrator: normalize trajectory event: %w", err)
		}
		out = append(out, norm)
	}
	return out, sideband, nil
}

func isSidebandViolation(line []byte) bool {
	var probe struct {
		Marker string `json:"trajectly_violation"`
	}
	if err := json.Unmarshal(line, &probe); err != nil {
		return false
	}
	return probe.Marker != ""
}
