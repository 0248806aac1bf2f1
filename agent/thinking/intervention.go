package thinking

import (
	"context"
	"fmt"
	"strings"

	"github.com/BaSui01/cogniflow/types"
	"go.uber.org/zap"
)

// InterventionType selects what the user does to a waiting session.
type InterventionType string

const (
	InterventionThoughtCorrection InterventionType = "thought_correction"
	InterventionActionOverride    InterventionType = "action_override"
	InterventionResume            InterventionType = "resume"
)

// Intervention is a user action on a session awaiting input.
type Intervention struct {
	SessionID     string           `json:"session_id"`
	Type          InterventionType `json:"intervention_type"`
	ThoughtNumber int              `json:"thought_number,omitempty"`
	Content       string           `json:"new_content,omitempty"`
}

// Intervene applies a user intervention and continues the loop from the
// corrected point.
func (e *Engine) Intervene(ctx context.Context, in Intervention) (*Result, error) {
	s, ok := e.Active(in.SessionID)
	if !ok {
		return nil, types.NewTargetNotFoundError("thinking session", in.SessionID)
	}
	if s.Status != StatusAwaitingInput {
		return nil, types.NewSessionNotActiveError(s.ID, string(s.Status))
	}

	switch in.Type {
	case InterventionThoughtCorrection:
		if strings.TrimSpace(in.Content) == "" {
			return nil, types.NewInvalidArgumentError("new_content", "correction text is required")
		}
		idx := -1
		for i, t := range s.Thoughts {
			if t.ThoughtNumber == in.ThoughtNumber {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, types.NewTargetNotFoundError("thought", fmt.Sprintf("%s#%d", s.ID, in.ThoughtNumber))
		}
		t := &s.Thoughts[idx]
		t.Content = "User Correction: " + in.Content
		t.Confidence = 0.95
		if !t.IsRevision {
			t.IsRevision = true
			s.Metadata.TotalRevisions++
		}
		t.Timestamp = e.now()
		s.Thoughts = s.Thoughts[:idx+1]
		s.CurrentThought = t.ThoughtNumber
		if e.memory != nil {
			e.memory.RecordThought(ctx, s.ID, *t)
		}
	case InterventionResume:
	case InterventionActionOverride:
		return nil, types.NewInvalidArgumentError("intervention_type", "action_override is not supported: ReAct sessions never await input")
	default:
		return nil, types.NewInvalidArgumentError("intervention_type", fmt.Sprintf("unsupported %q", in.Type))
	}

	s.Status = StatusActive
	s.LastUpdated = e.now()
	e.logger.Info("intervention applied",
		zap.String("session_id", s.ID),
		zap.String("type", string(in.Type)),
		zap.Int("thought", in.ThoughtNumber))

	return e.drive(ctx, s)
}
