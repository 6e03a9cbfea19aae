// Package console runs network commands typed into the server terminal.
package console

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/df-mc/dragonfly/server/cmd"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/go-gl/mathgl/mgl64"
)

// Executor runs functions inside a world transaction. *world.World
// implements it.
type Executor interface {
	Exec(fn world.ExecFunc) <-chan struct{}
}

// Console reads command lines from an io.Reader, os.Stdin by default, and
// executes them with full permissions. Output is written to the logger.
type Console struct {
	w      Executor
	log    *slog.Logger
	reader io.Reader
}

// New returns a Console executing commands in w.
func New(w Executor, log *slog.Logger) *Console {
	if log == nil {
		log = slog.Default()
	}
	return &Console{
		w:      w,
		log:    log.With("subsystem", "console"),
		reader: os.Stdin,
	}
}

// WithReader sets the reader commands are read from.
func (c *Console) WithReader(r io.Reader) *Console {
	if r != nil {
		c.reader = r
	}
	return c
}

// Run consumes command lines until ctx is cancelled or the reader reaches
// EOF.
func (c *Console) Run(ctx context.Context) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.reader)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			c.log.Error("Console input failed.", "err", err)
		}
	}()

	src := &source{log: c.log}
	for ctx.Err() == nil {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			c.Execute(src, line)
		}
	}
}

// Execute runs a single command line as src and waits for it to finish. A
// leading slash is optional.
func (c *Console) Execute(src cmd.Source, line string) {
	line = strings.TrimPrefix(strings.TrimSpace(line), "/")
	if line == "" {
		return
	}
	name, args, _ := strings.Cut(line, " ")
	command, ok := cmd.ByAlias(name)
	if !ok {
		c.log.Error("Unknown command.", "command", name)
		return
	}
	<-c.w.Exec(func(tx *world.Tx) {
		command.Execute(strings.TrimSpace(args), src, tx)
	})
}

// source is the command source of the console.
type source struct {
	log *slog.Logger
}

func (*source) Position() mgl64.Vec3 { return mgl64.Vec3{} }

func (*source) Name() string { return "Console" }

func (s *source) SendCommandOutput(o *cmd.Output) {
	for _, msg := range o.Messages() {
		s.log.Info(msg.String())
	}
	for _, err := range o.Errors() {
		s.log.Error(err.Error())
	}
}
