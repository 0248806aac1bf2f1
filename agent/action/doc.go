// Copyright (c) cogniflow Authors.
// Licensed under the MIT License.

/*
Package action runs ReAct sessions: goal-directed loops of reason, act,
observe and reflect.

A session starts with a small keyword-driven plan. Each [Engine.Execute]
call resolves the action to one of the closed [Type] values, runs the handler
registered for it in the [Registry] (or a simulation), writes a reflection,
advances the plan and journals the cycle. A session completes once it has at
least three cycles and all of them succeeded, and fails when it runs out of
cycles. Every [Cycle] can be assessed and corrected like any other reasoning
artifact.
*/
package action
