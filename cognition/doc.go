// Copyright (c) cogniflow Authors.
// Licensed under the MIT License.

/*
Package cognition assembles the cognitive engines into one stateful service
and exposes them as named tools.

# Overview

Service owns the knowledge graph, the reasoning chain history, the thinking,
ReAct, assessment and learning engines, and the shared learning log. The
engines are wired to each other:

  - thinking recalls working memory and mirrors thoughts into the graph
  - thinking asks the learning engine for a matching pattern
  - assessment resolves thinking sessions, reasoning chains and ReAct cycles
  - learning reads the latest assessment score of a session as its quality
  - ReAct actions run the same operations the tools do

Every call takes one mutex. Results are JSON-encoded before the lock is
released.

# Tools

Call dispatches by name; Tools lists the catalog. Unknown names yield
UNKNOWN_OPERATION, panics yield INTERNAL_ERROR.

# Persistence

Load merges the stored snapshot over defaults, Save encodes the aggregate
state and writes it through a persistence.SnapshotStore. RunAutoSave saves
on an interval and once more on shutdown; failed saves are logged and the
in-memory state stays authoritative.
*/
package cognition
