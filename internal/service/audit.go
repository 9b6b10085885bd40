package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/procurehub/ui-api/internal/domain/access"
	"github.com/procurehub/ui-api/internal/domain/model"
	apperrors "github.com/procurehub/ui-api/internal/errors"
)

// JMESPathEvaluator abstracts JMESPath operations for testability.
type JMESPathEvaluator interface {
	Validate(expr string) error
	Evaluate(expr string, data any) (any, error)
}

// jmespathLibEvaluator implements JMESPathEvaluator using go-jmespath.
type jmespathLibEvaluator struct{}

func (j jmespathLibEvaluator) Validate(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return nil
	}
	_, err := jmespath.Compile(expr)
	return err
}

func (j jmespathLibEvaluator) Evaluate(expr string, data any) (any, error) {
	return jmespath.Search(expr, data)
}

// AccessEventRepository is the persistence surface the service needs.
type AccessEventRepository interface {
	Insert(ctx context.Context, ev *model.AccessEvent) (*model.AccessEvent, error)
	List(ctx context.Context, q model.AccessEventQuery) ([]*model.AccessEvent, error)
}

// AuditServiceOptions groups dependencies for AuditService.
type AuditServiceOptions struct {
	Repo      AccessEventRepository
	Evaluator JMESPathEvaluator // optional, defaults to the go-jmespath evaluator
	Logger    *slog.Logger
}

// AuditService records route-access decisions and serves the admin audit
// feed. Deny decisions are always recorded; admits only for admin-scoped
// paths, so the trail stays small but every sensitive touch is visible.
type AuditService struct {
	repo   AccessEventRepository
	jems   JMESPathEvaluator
	logger *slog.Logger
}

// NewAuditService constructs a new AuditService.
func NewAuditService(opts AuditServiceOptions) *AuditService {
	jems := opts.Evaluator
	if jems == nil {
		jems = jmespathLibEvaluator{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditService{
		repo:   opts.Repo,
		jems:   jems,
		logger: logger.With("component", "audit_service"),
	}
}

// RecordDecision persists an access decision when it is audit-worthy.
// Recording is best-effort: a storage failure is logged, never surfaced to
// the request that triggered it.
func (s *AuditService) RecordDecision(
	ctx context.Context,
	ev model.AccessEvent,
	decision access.Decision,
) {
	if !s.shouldRecord(ev.Path, decision) {
		return
	}

	switch decision.Kind {
	case access.DecisionAdmit:
		ev.Outcome = model.AccessOutcomeAdmit
	case access.DecisionDenyUnauthenticated:
		ev.Outcome = model.AccessOutcomeDenyUnauthenticated
	case access.DecisionDenyForbidden:
		ev.Outcome = model.AccessOutcomeDenyForbidden
		if decision.SuggestedRoute != "" {
			route := decision.SuggestedRoute
			ev.SuggestedRoute = &route
		}
	default:
		return // pending decisions are not audit events
	}

	if _, err := s.repo.Insert(ctx, &ev); err != nil {
		s.logger.ErrorContext(ctx, "failed to record access event",
			"path", ev.Path, "outcome", ev.Outcome, "err", err)
	}
}

// shouldRecord keeps the trail to denials plus admits on admin surfaces.
func (s *AuditService) shouldRecord(path string, decision access.Decision) bool {
	switch decision.Kind {
	case access.DecisionDenyUnauthenticated, access.DecisionDenyForbidden:
		return true
	case access.DecisionAdmit:
		return strings.HasPrefix(path, access.RouteAdmin)
	default:
		return false
	}
}

// Query returns audit events matching q. When q.Filter is set it is a
// JMESPath expression evaluated against each event's JSON form; events
// yielding a falsy result are dropped after the SQL-level pass.
func (s *AuditService) Query(ctx context.Context, q model.AccessEventQuery) ([]*model.AccessEvent, error) {
	if err := q.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	if q.Filter != "" {
		if err := s.jems.Validate(q.Filter); err != nil {
			return nil, apperrors.ValidationField("filter", fmt.Sprintf("invalid filter expression: %v", err))
		}
	}

	events, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list access events: %w", err)
	}
	if q.Filter == "" {
		return events, nil
	}

	filtered := make([]*model.AccessEvent, 0, len(events))
	for _, ev := range events {
		keep, evalErr := s.matches(q.Filter, ev)
		if evalErr != nil {
			return nil, apperrors.ValidationField("filter", fmt.Sprintf("filter evaluation failed: %v", evalErr))
		}
		if keep {
			filtered = append(filtered, ev)
		}
	}
	return filtered, nil
}

// matches evaluates the JMESPath expression against the event's JSON shape.
func (s *AuditService) matches(expr string, ev *model.AccessEvent) (bool, error) {
	raw, err := json.Marshal(ev)
	if err != nil {
		return false, err
	}
	var doc any
	if err = json.Unmarshal(raw, &doc); err != nil {
		return false, err
	}
	result, err := s.jems.Evaluate(expr, doc)
	if err != nil {
		return false, err
	}
	return isTruthy(result), nil
}

// isTruthy follows JMESPath semantics: false, null, empty strings, empty
// collections are falsy, everything else truthy.
func isTruthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}
