/*
Package domain contains the core models of the loan application dialogue.

It defines the record built up across a conversation, the declarative step model the
dialogue engine walks, and the snapshot persisted between turns. The package is free
of I/O and persistence concerns.

# Key Entities

  - Application: the mutable aggregate (business, asset, loan, directors, enrichment).
  - Step: one node of the step graph (prompts, input kind, options, field, action, rules).
  - Graph: the indexed table of steps with a designated entry.
  - Snapshot: the persisted {stepId, record} pair used to resume a session.
  - Turn: what the engine hands back to a host after each start/answer.
*/
package domain
