package services

import (
	"context"
	"net/http"
	"net/url"

	"github.com/desertthunder/crmx/internal/models"
	"github.com/desertthunder/crmx/internal/transport"
)

// collection holds the request plumbing shared by the typed services.
type collection[T models.Record] struct {
	client     Doer
	listPath   string
	searchPath string
}

func (c collection[T]) list(ctx context.Context, p ListParams) (*models.Page, error) {
	return c.fetchPage(ctx, c.listPath, p.values(), p.BypassCache, p.Page, p.Limit)
}

func (c collection[T]) search(ctx context.Context, p SearchParams) (*models.Page, error) {
	return c.fetchPage(ctx, c.searchPath, p.values(), p.BypassCache, p.Page, p.Limit)
}

func (c collection[T]) fetchPage(ctx context.Context, path string, q url.Values, bypass bool, page, limit int) (*models.Page, error) {
	var env listEnvelope[T]
	if err := c.client.Do(ctx, transport.Request{Method: http.MethodGet, Path: path, Query: q, BypassCache: bypass}, &env); err != nil {
		return nil, err
	}
	if err := env.validate(); err != nil {
		return nil, err
	}
	return env.page(page, limit), nil
}

// one performs req and returns the enveloped record, if the response carried one.
func (c collection[T]) one(ctx context.Context, req transport.Request) (T, bool, error) {
	var env itemEnvelope[T]
	if err := c.client.Do(ctx, req, &env); err != nil {
		var zero T
		return zero, false, err
	}
	rec, ok := env.record()
	return rec, ok, nil
}
