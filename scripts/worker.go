package scripts

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrPoolClosed is returned by Summarize after Close.
var ErrPoolClosed = errors.New("worker pool closed")

// stderrTailLines bounds the worker output kept for error reports.
const stderrTailLines = 20

// worker is one long-lived summarizer process. Requests and responses are
// JSON lines; a worker handles one request at a time.
type worker struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	lines  chan []byte // stdout lines, closed at EOF
	logger *logrus.Entry

	mu     sync.Mutex
	stderr []string

	nextID   int64
	broken   atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func startWorker(cfg WorkerConfig, logger *logrus.Logger, index int) (*worker, error) {
	const op = "scripts.startWorker"

	cmd := exec.Command(cfg.PythonPath, cfg.Script)
	cmd.Env = append(os.Environ(), cfg.Environment...)
	cmd.Env = append(cmd.Env, "SUMMARY_MODEL="+cfg.Model)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, newScriptError(op, err, "failed to open stdin")
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, newScriptError(op, err, "failed to open stdout")
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, newScriptError(op, err, "failed to open stderr")
	}

	if err := cmd.Start(); err != nil {
		scriptErr := newScriptError(op, err, "failed to start worker")
		scriptErr.Command = cfg.PythonPath
		return nil, scriptErr
	}

	w := &worker{
		cmd:   cmd,
		stdin: stdin,
		lines: make(chan []byte, 1),
		logger: logger.WithFields(logrus.Fields{
			"worker": index,
			"pid":    cmd.Process.Pid,
		}),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	// Both pipes are drained to EOF before Wait closes them.
	var readers sync.WaitGroup
	readers.Add(2)
	go func() {
		defer readers.Done()
		w.readStdout(stdout)
	}()
	go func() {
		defer readers.Done()
		w.readStderr(stderr)
	}()
	go func() {
		readers.Wait()
		err := cmd.Wait()
		w.broken.Store(true)
		w.logger.WithError(err).Debug("Worker exited")
		close(w.done)
	}()

	ready, err := w.awaitReady(cfg.StartupTimeout)
	if err != nil {
		w.kill()
		<-w.done
		return nil, w.scriptError(op, err, "worker failed to load model")
	}

	w.logger.WithFields(logrus.Fields{
		"model":  ready.ModelName,
		"device": ready.Device,
	}).Info("Summarizer worker ready")

	return w, nil
}

func (w *worker) readStdout(r io.Reader) {
	defer close(w.lines)

	reader := bufio.NewReaderSize(r, 64*1024)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			select {
			case w.lines <- line:
			case <-w.stop:
				_, _ = io.Copy(io.Discard, reader)
				return
			}
		}
		if err != nil {
			return
		}
	}
}

func (w *worker) readStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		text := scanner.Text()
		w.logger.WithField("stderr", text).Debug("Worker output")

		w.mu.Lock()
		w.stderr = append(w.stderr, text)
		if len(w.stderr) > stderrTailLines {
			w.stderr = w.stderr[len(w.stderr)-stderrTailLines:]
		}
		w.mu.Unlock()
	}
	_, _ = io.Copy(io.Discard, r)
}

// scriptError builds a ScriptError that names this process and carries the tail of
// its stderr.
func (w *worker) scriptError(op string, err error, message string) *ScriptError {
	scriptErr := newScriptError(op, err, message)
	scriptErr.Command = w.cmd.Path
	scriptErr.PID = w.cmd.Process.Pid

	w.mu.Lock()
	scriptErr.Stderr = strings.Join(w.stderr, "\n")
	w.mu.Unlock()

	return scriptErr
}

func (w *worker) awaitReady(timeout time.Duration) (*readyMessage, error) {
	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}

	select {
	case line, ok := <-w.lines:
		if !ok {
			return nil, errors.New("worker exited before reporting ready")
		}
		var msg readyMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			return nil, errors.Wrapf(err, "invalid ready message %q", line)
		}
		if msg.Error != "" {
			return nil, errors.New(msg.Error)
		}
		if !msg.Ready {
			return nil, errors.New("worker did not report ready")
		}
		return &msg, nil
	case <-timer:
		return nil, fmt.Errorf("worker not ready after %s", timeout)
	}
}

func (w *worker) summarize(ctx context.Context, req SummarizeRequest) (*SummaryResult, error) {
	const op = "worker.summarize"

	w.nextID++
	req.ID = w.nextID

	line, err := json.Marshal(req)
	if err != nil {
		return nil, newScriptError(op, err, "failed to encode request")
	}
	line = append(line, '\n')

	if _, err := w.stdin.Write(line); err != nil {
		w.broken.Store(true)
		return nil, w.scriptError(op, err, "failed to write request")
	}

	select {
	case out, ok := <-w.lines:
		if !ok {
			w.broken.Store(true)
			return nil, w.scriptError(op, io.ErrUnexpectedEOF, "worker exited")
		}
		var res SummaryResult
		if err := json.Unmarshal(out, &res); err != nil {
			w.broken.Store(true)
			return nil, w.scriptError(op, errors.Wrapf(err, "invalid response %q", out), "worker failed")
		}
		if res.ID != req.ID {
			w.broken.Store(true)
			return nil, w.scriptError(op, nil, fmt.Sprintf("response id %d does not match request id %d", res.ID, req.ID))
		}
		return &res, nil
	case <-ctx.Done():
		// The response would arrive out of order for the next caller.
		w.kill()
		return nil, newScriptError(op, ctx.Err(), "summarization cancelled")
	}
}

func (w *worker) kill() {
	w.broken.Store(true)
	w.stopOnce.Do(func() { close(w.stop) })
	if w.cmd.Process != nil {
		_ = w.cmd.Process.Kill()
	}
}

func (w *worker) close(timeout time.Duration) {
	_ = w.stdin.Close()
	select {
	case <-w.done:
	case <-time.After(timeout):
		w.kill()
		<-w.done
	}
}

// WorkerPool shares a fixed number of summarizer processes between requests.
// Each process loads its model once at startup. A slot holding nil marks a
// worker that must be restarted before use.
type WorkerPool struct {
	config WorkerConfig
	logger *logrus.Logger
	slots  chan *worker

	closeOnce sync.Once
	closed    chan struct{}
}

// NewWorkerPool starts cfg.Size workers and waits until every one has loaded
// its model.
func NewWorkerPool(cfg WorkerConfig, logger *logrus.Logger) (*WorkerPool, error) {
	if err := validateWorkerConfig(cfg); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	p := &WorkerPool{
		config: cfg,
		logger: logger,
		slots:  make(chan *worker, cfg.Size),
		closed: make(chan struct{}),
	}

	for i := 0; i < cfg.Size; i++ {
		w, err := startWorker(cfg, logger, i)
		if err != nil {
			for len(p.slots) > 0 {
				(<-p.slots).close(5 * time.Second)
			}
			return nil, err
		}
		p.slots <- w
	}

	return p, nil
}

func validateWorkerConfig(cfg WorkerConfig) error {
	if cfg.PythonPath == "" {
		return fmt.Errorf("python path is required")
	}
	if cfg.Script == "" {
		return fmt.Errorf("worker script is required")
	}
	if cfg.Size <= 0 {
		return fmt.Errorf("worker pool size must be positive")
	}
	return nil
}

// Summarize runs req on the next free worker.
func (p *WorkerPool) Summarize(ctx context.Context, req SummarizeRequest) (*SummaryResult, error) {
	w, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.release(w)

	res, err := w.summarize(ctx, req)
	if err != nil {
		return nil, err
	}
	if res.Error != "" {
		return nil, newScriptError("WorkerPool.Summarize", nil, res.Error)
	}
	return res, nil
}

func (p *WorkerPool) acquire(ctx context.Context) (*worker, error) {
	select {
	case <-p.closed:
		return nil, ErrPoolClosed
	default:
	}

	select {
	case w := <-p.slots:
		if w != nil && !w.broken.Load() {
			return w, nil
		}
		if w != nil {
			w.kill()
		}
		p.logger.Warn("Restarting summarizer worker")
		nw, err := startWorker(p.config, p.logger, 0)
		if err != nil {
			p.slots <- nil
			return nil, err
		}
		return nw, nil
	case <-p.closed:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *WorkerPool) release(w *worker) {
	if w.broken.Load() {
		w.kill()
		p.slots <- nil
		return
	}
	p.slots <- w
}

// Close stops every worker, waiting up to 30 seconds for in-flight requests
// to hand their worker back.
func (p *WorkerPool) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.closed)

		deadline := time.NewTimer(30 * time.Second)
		defer deadline.Stop()

		for i := 0; i < cap(p.slots); i++ {
			select {
			case w := <-p.slots:
				if w != nil {
					w.close(5 * time.Second)
				}
			case <-deadline.C:
				err = fmt.Errorf("timed out waiting for %d busy workers", cap(p.slots)-i)
				return
			}
		}
	})
	return err
}
