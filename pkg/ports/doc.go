/*
Package ports defines the driven ports (interfaces) for the loan dialogue engine.

These interfaces decouple the engine from external implementations, allowing it to
work with various storage backends, business registries and submission targets.

# Key Interfaces

  - SnapshotStore: persists the {stepId, record} snapshot of a session.
  - Registry: business-registry lookup and name search.
  - Submitter / LeadSink: hand-off of finished applications and captured leads.
  - DistributedLocker: distributed locking for concurrent session access.
  - Conversation: the engine surface consumed by transports (HTTP, MCP, CLI).
*/
package ports
