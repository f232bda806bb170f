package sink

import (
	"context"
	"errors"

	"toolusage/internal/domain"
)

// Multi records to every sink, even after one fails, and joins the errors.
type Multi []domain.UsageSink

func (m Multi) Record(ctx context.Context, report domain.UsageReport) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ domain.UsageSink = Multi(nil)
