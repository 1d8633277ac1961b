/*
Package ports defines the driven ports (interfaces) of the canvas editor.

These interfaces decouple the interpreter and orchestrator from external
implementations, so the same core can run against an in-memory store in tests,
redis in production, or any LLM endpoint that speaks chat completions.

# Key Interfaces

  - Generator: sends a chat completion to the language model.
  - SnapshotStore: persists the saved canvas of each session.
  - HistoryStore: keeps the chat log of each session.
  - DistributedLocker: serializes access to a session across replicas.
*/
package ports
