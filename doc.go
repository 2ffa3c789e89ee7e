/*
Package loanflow is a conversational engine for business asset finance
applications.

An applicant answers one question at a time. The engine walks a declarative
step graph: it finds the business on the ABN register, checks eligibility,
collects the asset and loan details, prices an indicative quote, gathers the
directors and submits the application. Applicants who are not a fit, or who
are just browsing, are offered to leave their details as a lead.

# Concept

The step graph (package flow, built with package dsl) says what to ask and
where to go next. The engine owns the conversation state, validation, actions
and persistence. Transports (HTTP, MCP, terminal) only relay answers and show
messages, so the same conversation can be embedded anywhere.

# Key Features

  - Resume: progress is saved after every question, and the next Start offers
    to pick up where the applicant left off.
  - Pacing: assistant messages are emitted with a typing cadence through an
    Emitter, or returned with the turn.
  - Auto-progress: steps that only run an action (lookup, quote, submission)
    advance without waiting for the applicant.
  - Ports and adapters: registry, snapshot store, submitter and lead sink are
    interfaces with memory, file, Redis, Postgres and HTTP implementations.

# Usage

	eng, err := loanflow.New(loanflow.WithStore(memory.NewStore()))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	turn, err := eng.Start(ctx, "applicant-1")
	if err != nil {
		log.Fatal(err)
	}
	for !turn.Terminal {
		for _, msg := range turn.Messages {
			fmt.Println(msg.Text)
		}
		turn, err = eng.Answer(ctx, "applicant-1", readLine())
		if err != nil {
			log.Fatal(err)
		}
	}
*/
package loanflow
