package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"spendtrack/internal/log"
)

// ErrUnavailable is returned when every source in a Chain failed.
var ErrUnavailable = errors.New("no source could provide the workbook")

// Chain tries its readers in order and returns the first success.
type Chain struct {
	readers []Reader
	logger  *log.Logger
}

var _ Reader = (*Chain)(nil)

// NewChain builds a Chain. Nil readers are skipped.
func NewChain(logger *log.Logger, readers ...Reader) *Chain {
	c := &Chain{logger: log.OrDefault(logger, log.ComponentSheets)}
	for _, r := range readers {
		if r != nil {
			c.readers = append(c.readers, r)
		}
	}
	return c
}

func (c *Chain) Name() string {
	names := make([]string, len(c.readers))
	for i, r := range c.readers {
		names[i] = r.Name()
	}
	return strings.Join(names, ">")
}

// Read returns the first table any reader produces. A failed reader is
// logged at warn and the next one is tried; when all fail the error wraps
// ErrUnavailable and every reader's error.
func (c *Chain) Read(ctx context.Context, ref WorkbookRef) (Table, error) {
	errs := []error{ErrUnavailable}
	for _, r := range c.readers {
		if err := ctx.Err(); err != nil {
			return Table{}, err
		}
		t, err := r.Read(ctx, ref)
		if err == nil {
			c.logger.DebugContext(ctx, "Workbook read",
				log.FieldDataset, ref.Dataset,
				log.FieldSource, r.Name(),
				log.FieldRows, len(t.Rows))
			return t, nil
		}
		c.logger.WarnContext(ctx, "Workbook source failed, trying next",
			log.FieldDataset, ref.Dataset,
			log.FieldSource, r.Name(),
			log.FieldError, err)
		errs = append(errs, fmt.Errorf("%s: %w", r.Name(), err))
	}
	return Table{}, fmt.Errorf("%s: %w", ref.Dataset, errors.Join(errs...))
}
