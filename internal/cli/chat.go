package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/loanflow"
	"github.com/aretw0/loanflow/internal/config"
	"github.com/aretw0/loanflow/internal/presentation/tui"
	"github.com/aretw0/loanflow/pkg/runner"
)

// ChatOptions selects how the terminal conversation is driven.
type ChatOptions struct {
	SessionID string
	JSON      bool
	Headless  bool
	Markdown  bool
	In        io.Reader
	Out       io.Writer
}

// RunChat runs one conversation on the configured engine until it ends or the
// applicant leaves.
func RunChat(ctx context.Context, cfg *config.Config, opts ChatOptions, build ...BuildOption) error {
	in, out := opts.In, opts.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	handler, err := newHandler(opts, in, out)
	if err != nil {
		return err
	}
	if !opts.JSON && !opts.Headless {
		tui.PrintBanner(out, loanflow.Version)
	}

	r := runner.NewRunner(
		runner.WithInputHandler(handler),
		runner.WithHeadless(opts.Headless || opts.JSON),
	)
	if opts.JSON || opts.Headless {
		build = append([]BuildOption{WithPacing(0)}, build...)
	}
	app, err := Build(ctx, cfg, append(build, WithEmitter(r))...)
	if err != nil {
		return err
	}
	defer app.Close()
	r.Logger = app.Logger

	if err := r.Run(ctx, app.Engine, opts.SessionID); err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	return nil
}

func newHandler(opts ChatOptions, in io.Reader, out io.Writer) (runner.IOHandler, error) {
	if opts.JSON {
		return runner.NewJSONHandler(in, out), nil
	}
	var textOpts []runner.TextHandlerOption
	if opts.Markdown && !opts.Headless {
		width := tui.DefaultWidth
		if f, ok := out.(*os.File); ok {
			width = tui.Width(f)
		}
		render, err := tui.NewRenderer(width)
		if err != nil {
			return nil, err
		}
		textOpts = append(textOpts, runner.WithTextHandlerRenderer(render))
	}
	return runner.NewTextHandler(in, out, textOpts...), nil
}
