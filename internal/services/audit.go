package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/accord-backend/internal/data/repos"
	"github.com/yungbote/accord-backend/internal/domain/decision"
	"github.com/yungbote/accord-backend/internal/observability"
	"github.com/yungbote/accord-backend/internal/pkg/dbctx"
)

// AuditSink receives an entry after the decision change it describes has
// committed. Delivery is best effort.
type AuditSink interface {
	Name() string
	Record(ctx context.Context, entry *decision.AuditEntry) error
}

type dbAuditSink struct {
	repo repos.AuditRepo
}

// NewDBAuditSink writes entries to the decision_audit table.
func NewDBAuditSink(repo repos.AuditRepo) AuditSink {
	return &dbAuditSink{repo: repo}
}

func (s *dbAuditSink) Name() string { return "db" }

func (s *dbAuditSink) Record(ctx context.Context, entry *decision.AuditEntry) error {
	return s.repo.Create(dbctx.Context{Ctx: ctx}, entry)
}

type multiAuditSink struct {
	sinks   []AuditSink
	metrics *observability.Metrics
}

// NewMultiAuditSink fans out to every non-nil sink. One sink failing does
// not stop the others; the failures are joined.
func NewMultiAuditSink(metrics *observability.Metrics, sinks ...AuditSink) AuditSink {
	kept := make([]AuditSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &multiAuditSink{sinks: kept, metrics: metrics}
}

func (m *multiAuditSink) Name() string { return "multi" }

func (m *multiAuditSink) Record(ctx context.Context, entry *decision.AuditEntry) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Record(ctx, entry); err != nil {
			m.metrics.IncAuditFailure(s.Name())
			errs = append(errs, fmt.Errorf("%s sink: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
