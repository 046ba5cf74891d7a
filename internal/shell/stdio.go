package shell

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
)

// stdioTransport frames newline-delimited JSON over the pipes of a UI shell
// subprocess launched by the core.
type stdioTransport struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser

	reader *bufio.Reader
	mu     sync.Mutex
}

func (t *stdioTransport) WriteMessage(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.stdin.Write(append(data, '\n'))
	return err
}

func (t *stdioTransport) ReadMessage() ([]byte, error) {
	line, err := t.reader.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	return line, nil
}

func (t *stdioTransport) Close() error {
	t.stdin.Close()
	t.stdout.Close()
	t.stderr.Close()

	if t.cmd.Process != nil {
		t.cmd.Process.Kill()
		t.cmd.Wait()
	}
	return nil
}

// NewStdioBridge launches the UI shell binary as a subprocess and speaks
// JSON-RPC over its stdin/stdout. The shell's stderr is forwarded to the
// log.
func NewStdioBridge(command string, events Events, logger *slog.Logger) (Bridge, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	parts := strings.Fields(command)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty shell command")
	}
	cmd := exec.Command(parts[0], parts[1:]...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		stdin.Close()
		stdout.Close()
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		stderr.Close()
		return nil, fmt.Errorf("failed to start UI shell: %w", err)
	}

	tr := &stdioTransport{
		cmd:    cmd,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		reader: bufio.NewReader(stdout),
	}

	go logStderr(stderr, logger)

	logger.Info("started UI shell subprocess", "command", command, "pid", cmd.Process.Pid)
	return &client{
		name:   command,
		conn:   newConn(tr, events, logger),
		logger: logger,
	}, nil
}

func logStderr(stderr io.Reader, logger *slog.Logger) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		logger.Warn("UI shell stderr", "message", scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		logger.Error("error reading UI shell stderr", "error", err)
	}
}
