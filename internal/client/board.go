package client

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/iliyamo/smart-cafe/internal/model"
	"github.com/iliyamo/smart-cafe/internal/session"
	"github.com/iliyamo/smart-cafe/internal/validation"
)

// MinMatchQuery is the shortest item name that triggers a match lookup.
const MinMatchQuery = 3

// Board is the lost-and-found client.
type Board struct {
	API     *API
	Session *session.Manager
	Fields  validation.Annotator

	mu         sync.Mutex
	submitting bool
}

// NewBoard returns a Board sharing sess with other facades.
func NewBoard(api *API, sess *session.Manager, fields validation.Annotator) *Board {
	if fields == nil {
		fields = validation.Discard
	}
	return &Board{API: api, Session: sess, Fields: fields}
}

// Opposite returns the kind a report of kind is matched against.
func Opposite(kind string) string {
	if kind == model.KindLost {
		return model.KindFound
	}
	return model.KindLost
}

// PotentialMatches looks up open reports of the opposite kind whose name
// contains name.  Names shorter than MinMatchQuery return nothing without a
// request.  A failed lookup yields ErrNoData.
func (b *Board) PotentialMatches(ctx context.Context, kind, name string) ([]model.ItemReport, error) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) < MinMatchQuery {
		return nil, nil
	}
	items, res := b.API.Matches(ctx, Opposite(kind), name)
	if !res.Success {
		return nil, fmt.Errorf("%w: %s", ErrNoData, res.Message)
	}
	return items, nil
}

// Report validates and files a report of kind.
func (b *Board) Report(ctx context.Context, kind string, req ReportRequest) (model.ItemReport, error) {
	b.mu.Lock()
	if b.submitting {
		b.mu.Unlock()
		return model.ItemReport{}, ErrSubmitInFlight
	}
	b.submitting = true
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		b.submitting = false
		b.mu.Unlock()
	}()

	cur, err := b.Session.Require(ctx)
	if err != nil {
		return model.ItemReport{}, err
	}
	if !validation.New(b.Fields).ValidateItemReport(req.ItemReportForm) {
		return model.ItemReport{}, ErrInvalidForm
	}
	rep, res := b.API.Report(ctx, cur.Token, kind, req)
	if !res.Success {
		return model.ItemReport{}, res.Err()
	}
	return rep, nil
}
