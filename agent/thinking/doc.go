// Copyright (c) cogniflow Authors.
// Licensed under the MIT License.

/*
Package thinking runs sequential thinking sessions: a step-driven state
machine that grows an auditable ledger of thoughts, branches and hypotheses
until the goal is covered, the thought budget is spent, or the user is
asked to step in.

# Ledger

Session holds the ordered ThoughtStep entries plus ThoughtBranch and
HypothesisTest records. Thought numbers only grow; revisions are new
entries that point back at the thought they revisit.

# Engine

Engine.Start opens a session and steps it. Each step checks for low
confidence, uncertainty and stagnation, may escalate to
awaiting_user_input, generates the next thought for the current phase,
estimates its confidence and decides whether the ledger is developed
enough to synthesize a final answer. Engine.Intervene applies a user
correction to a waiting session and resumes it.

Working memory and learned patterns are read through the Memory and
PatternAdvisor interfaces so the package has no dependency on their
stores.
*/
package thinking
