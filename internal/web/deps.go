package web

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/vmunix/vodgate/internal/analytics"
	"github.com/vmunix/vodgate/internal/media"
	"github.com/vmunix/vodgate/internal/search"
	"github.com/vmunix/vodgate/internal/source"
)

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_deps.go -package=mocks github.com/vmunix/vodgate/internal/web Searcher,DetailService

// Searcher runs aggregated searches.
type Searcher interface {
	Search(ctx context.Context, q search.Query) (*search.Result, error)
}

// DetailService resolves one item into a playable detail view.
type DetailService interface {
	Get(ctx context.Context, api, id string) (*media.VideoDetail, error)
}

// SourceRegistry lists the known sources.
type SourceRegistry interface {
	All() []source.Source
	Fast() (source.Source, bool)
	Lookup(api string) (source.Source, bool)
}

// Reporter produces the admin views.
type Reporter interface {
	Summarize(ctx context.Context, window int) (*analytics.Summary, error)
	WriteCSV(ctx context.Context, w io.Writer) (int, error)
	ExportFilename() string
}

// VisitRecorder logs page visits. Record must not block.
type VisitRecorder interface {
	Record(r *http.Request, action string)
}

// Deps contains the dependencies of the web server.
// Required dependencies must be non-nil; optional dependencies may be nil.
type Deps struct {
	// Required dependencies
	Searcher Searcher
	Detail   DetailService
	Sources  SourceRegistry

	// Optional dependencies (nil if not configured)
	Reporter Reporter
	Visits   VisitRecorder
}

// Validate checks that all required dependencies are provided.
func (d Deps) Validate() error {
	if d.Searcher == nil {
		return errors.New("searcher is required")
	}
	if d.Detail == nil {
		return errors.New("detail service is required")
	}
	if d.Sources == nil {
		return errors.New("source registry is required")
	}
	return nil
}
