// Package engine provides implementations of the ports.Engine search
// contract: a UCI subprocess adapter (Stockfish) and a random mover used
// when no engine binary is configured.
package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/randomtoy/chess-academy-backend/internal/ports"
)

const initTimeout = 5 * time.Second

// UCI drives a single engine subprocess over the UCI text protocol.
// Searches are serialized; the engine holds no per-game state because every
// request carries its full position.
type UCI struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	log    *zap.Logger

	writeMu  sync.Mutex
	searchMu sync.Mutex
}

// NewUCI starts the engine at binaryPath and completes the UCI handshake.
func NewUCI(ctx context.Context, binaryPath string, skillLevel int, log *zap.Logger) (*UCI, error) {
	cmd := exec.Command(binaryPath)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		stdin.Close()
		return nil, fmt.Errorf("start engine: %w", err)
	}

	e := &UCI{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
		log:    log.Named("uci"),
	}
	if err := e.initialize(ctx, skillLevel); err != nil {
		_ = e.Close()
		return nil, err
	}
	return e, nil
}

func (e *UCI) initialize(ctx context.Context, skillLevel int) error {
	initCtx, cancel := context.WithTimeout(ctx, initTimeout)
	defer cancel()

	if err := e.send("uci\n"); err != nil {
		return fmt.Errorf("send uci: %w", err)
	}
	if err := e.awaitToken(initCtx, "uciok"); err != nil {
		return fmt.Errorf("wait uciok: %w", err)
	}
	if skillLevel < 0 {
		skillLevel = 0
	}
	if skillLevel > 20 {
		skillLevel = 20
	}
	if err := e.send(fmt.Sprintf("setoption name Skill Level value %d\n", skillLevel)); err != nil {
		return fmt.Errorf("set skill level: %w", err)
	}
	if err := e.send("isready\n"); err != nil {
		return fmt.Errorf("send isready: %w", err)
	}
	if err := e.awaitToken(initCtx, "readyok"); err != nil {
		return fmt.Errorf("wait readyok: %w", err)
	}
	return nil
}

// BestMove searches fen under the given budget and returns the engine's
// move. A terminal position yields "", nil ("bestmove (none)").
func (e *UCI) BestMove(ctx context.Context, fen string, budget ports.SearchBudget) (string, error) {
	res, err := e.search(ctx, fen, goTokens(budget))
	if err != nil {
		return "", err
	}
	return res.best, nil
}

// Analyze evaluates fen to the given depth.
func (e *UCI) Analyze(ctx context.Context, fen string, depth int) (ports.Analysis, error) {
	if depth < 1 {
		depth = 1
	}
	res, err := e.search(ctx, fen, []string{"go", "depth", strconv.Itoa(depth)})
	if err != nil {
		return ports.Analysis{}, err
	}
	return res.analysis, nil
}

type searchResult struct {
	best     string
	analysis ports.Analysis
}

func (e *UCI) search(ctx context.Context, fen string, goCmd []string) (searchResult, error) {
	e.searchMu.Lock()
	defer e.searchMu.Unlock()

	if err := e.send(positionCommand(fen)); err != nil {
		return searchResult{}, fmt.Errorf("send position: %w", err)
	}
	if err := e.send(strings.Join(goCmd, " ") + "\n"); err != nil {
		return searchResult{}, fmt.Errorf("send go: %w", err)
	}

	var res searchResult
	for {
		line, err := e.readLine(ctx)
		if err != nil {
			return searchResult{}, fmt.Errorf("read engine output: %w", err)
		}
		switch {
		case strings.HasPrefix(line, "info "):
			if a, ok := parseInfo(line); ok {
				res.analysis = a
			}
		case strings.HasPrefix(line, "bestmove"):
			fields := strings.Fields(line)
			if len(fields) >= 2 && fields[1] != "(none)" {
				res.best = fields[1]
			}
			return res, nil
		}
	}
}

// Close tears down the engine process.
func (e *UCI) Close() error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	if e.stdin != nil {
		_, _ = io.WriteString(e.stdin, "quit\n")
		e.stdin.Close()
	}
	if e.cmd != nil && e.cmd.Process != nil {
		_ = e.cmd.Process.Kill()
		return e.cmd.Wait()
	}
	return nil
}

func (e *UCI) send(msg string) error {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()
	_, err := io.WriteString(e.stdin, msg)
	return err
}

func (e *UCI) awaitToken(ctx context.Context, token string) error {
	for {
		line, err := e.readLine(ctx)
		if err != nil {
			return err
		}
		if strings.Contains(line, token) {
			return nil
		}
	}
}

func (e *UCI) readLine(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := e.stdout.ReadString('\n')
		ch <- result{line: strings.TrimSpace(line), err: err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		return res.line, res.err
	}
}

func positionCommand(fen string) string {
	if strings.TrimSpace(fen) == "" {
		return "position startpos\n"
	}
	return "position fen " + fen + "\n"
}

// goTokens builds the "go" command from a budget. Depth wins when both
// limits are set; an empty budget falls back to a one-second search.
func goTokens(b ports.SearchBudget) []string {
	switch {
	case b.Depth > 0:
		return []string{"go", "depth", strconv.Itoa(b.Depth)}
	case b.MoveTimeMillis > 0:
		return []string{"go", "movetime", strconv.Itoa(b.MoveTimeMillis)}
	default:
		return []string{"go", "movetime", "1000"}
	}
}

// mateScoreCP stands in for forced-mate scores so that evaluations stay a
// single centipawn scale.
const mateScoreCP = 30000

// parseInfo extracts depth, score, node count, elapsed time and principal
// variation from one "info" line. Lines without a pv are ignored.
func parseInfo(line string) (ports.Analysis, bool) {
	parts := strings.Fields(line)
	var a ports.Analysis
	pvIdx := -1

	for i := 0; i < len(parts); i++ {
		switch parts[i] {
		case "depth":
			if i+1 < len(parts) {
				if v, err := strconv.Atoi(parts[i+1]); err == nil {
					a.Depth = v
				}
				i++
			}
		case "nodes":
			if i+1 < len(parts) {
				if v, err := strconv.ParseInt(parts[i+1], 10, 64); err == nil {
					a.Nodes = v
				}
				i++
			}
		case "time":
			if i+1 < len(parts) {
				if v, err := strconv.ParseInt(parts[i+1], 10, 64); err == nil {
					a.ElapsedMs = v
				}
				i++
			}
		case "score":
			if i+2 < len(parts) {
				val, err := strconv.Atoi(parts[i+2])
				if err == nil {
					switch parts[i+1] {
					case "cp":
						a.ScoreCP = val
					case "mate":
						if val >= 0 {
							a.ScoreCP = mateScoreCP
						} else {
							a.ScoreCP = -mateScoreCP
						}
					}
				}
				i += 2
			}
		case "pv":
			pvIdx = i + 1
			i = len(parts)
		}
	}

	if pvIdx < 0 || pvIdx >= len(parts) {
		return ports.Analysis{}, false
	}
	a.PV = append([]string(nil), parts[pvIdx:]...)
	return a, true
}
