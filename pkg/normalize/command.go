package normalize

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sdejongh/imdidiff/pkg/logging"
)

// DefaultCommandTemplate runs xsltproc reading the document from stdin
const DefaultCommandTemplate = "xsltproc {stylesheet} -"

// Transformer rewrites a raw document before it is parsed
type Transformer interface {
	Transform(ctx context.Context, name string, input []byte) ([]byte, error)
}

// Command is a Transformer backed by an external program. The document is
// written to its stdin and the result read from its stdout. Every stderr
// line is forwarded to the logger as a warning.
type Command struct {
	args   []string
	logger logging.Logger
}

// NewCommand builds a command from a whitespace-separated template. The
// {stylesheet} placeholder is replaced with the stylesheet path.
func NewCommand(template, stylesheet string, logger logging.Logger) (*Command, error) {
	if strings.TrimSpace(template) == "" {
		template = DefaultCommandTemplate
	}
	fields := strings.Fields(template)
	usesStylesheet := false
	for i, f := range fields {
		if strings.Contains(f, "{stylesheet}") {
			usesStylesheet = true
			fields[i] = strings.ReplaceAll(f, "{stylesheet}", stylesheet)
		}
	}
	if usesStylesheet && stylesheet == "" {
		return nil, errors.New("transformation command needs a stylesheet")
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Command{args: fields, logger: logger}, nil
}

// Args returns the resolved command line
func (c *Command) Args() []string {
	return append([]string(nil), c.args...)
}

// Transform runs the command once for the given document
func (c *Command) Transform(ctx context.Context, name string, input []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.args[0], c.args[1:]...)
	cmd.Stdin = bytes.NewReader(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	scanner := bufio.NewScanner(&stderr)
	var firstLine string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if firstLine == "" {
			firstLine = line
		}
		c.logger.Warn(ctx, "transformation warning", logging.Fields{"file": name, "message": line})
	}

	if runErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", c.args[0], ctxErr)
		}
		if firstLine != "" {
			return nil, fmt.Errorf("%s: %w: %s", c.args[0], runErr, firstLine)
		}
		return nil, fmt.Errorf("%s: %w", c.args[0], runErr)
	}
	return stdout.Bytes(), nil
}
