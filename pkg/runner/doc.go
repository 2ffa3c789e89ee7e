/*
Package runner drives a loan conversation over line-oriented IO.

It is the bridge between the dialogue engine and a terminal or another
process. The runner relays answers, streams assistant messages as they are
paced, numbers the options of choice steps, and understands a few slash
commands (/status, /reset, /quit, /help). Leaving early is safe: the engine
has already persisted the snapshot, so the next run offers to resume.

# Key Components

  - Runner: the conversation loop; also a runtime.Emitter.
  - IOHandler: decouples how messages are shown and answers read.
  - TextHandler: interactive terminal usage.
  - JSONHandler: JSON lines for machine drivers.
  - Sanitizer: bounds and cleans every answer before it reaches the engine.

# Usage

	r := runner.NewRunner(runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)))
	engine := runtime.NewEngine(flow.New(), runtime.WithEmitter(r))
	if err := r.Run(ctx, engine, "applicant-1"); err != nil {
		log.Fatal(err)
	}
*/
package runner
