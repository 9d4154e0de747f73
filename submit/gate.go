package submit

import (
	"context"

	"github.com/formloom/formloom/log"
	"github.com/formloom/formloom/model"
)

const (
	reasonMaxSubmissions  = "This form has reached its maximum number of responses"
	reasonAlreadyAnswered = "You have already submitted a response to this form"
)

// ResponseCounter is the slice of the store the gate needs.
type ResponseCounter interface {
	CountResponses(ctx context.Context, formID string) (int, error)
	CountResponsesByUser(ctx context.Context, formID, userID string) (int, error)
}

// Gate decides whether a submitter may submit to a form. It is evaluated
// before any assembly work happens.
type Gate struct {
	Counter ResponseCounter
}

// Decision is the gate's verdict; Reason is set only when not allowed.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// CanSubmit applies the submission caps in order: total cap first, then
// one-response-per-identity. Anonymous submitters are never blocked by the
// identity rule. A failed count query fails OPEN: blocking every respondent
// on an infrastructure hiccup is worse than letting a few extras through.
func (g Gate) CanSubmit(ctx context.Context, form model.Form, submitterID string) Decision {
	settings := form.Settings

	if settings.MaxSubmissions > 0 {
		n, err := g.Counter.CountResponses(ctx, form.ID)
		if err != nil {
			log.Warnf("gate.count_responses: %s", err)
			return Decision{Allowed: true}
		}
		if n >= settings.MaxSubmissions {
			return Decision{Reason: reasonMaxSubmissions}
		}
	}

	if !settings.AllowMultipleResponses && identified(submitterID) {
		n, err := g.Counter.CountResponsesByUser(ctx, form.ID, submitterID)
		if err != nil {
			log.Warnf("gate.count_user_responses: %s", err)
			return Decision{Allowed: true}
		}
		if n > 0 {
			return Decision{Reason: reasonAlreadyAnswered}
		}
	}

	return Decision{Allowed: true}
}

func identified(submitterID string) bool {
	return submitterID != "" && submitterID != model.AnonymousUser
}
