package api

import (
	"github.com/gatehouse-io/gatehouse/internal/classifiers"
	"github.com/gatehouse-io/gatehouse/internal/dispositions"
	"github.com/gatehouse-io/gatehouse/internal/moderation"
	"github.com/gatehouse-io/gatehouse/internal/submissions"
	"github.com/gatehouse-io/gatehouse/pkg/notify"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Submissions  submissions.System
	Dispositions dispositions.System
	Engine       moderation.System
}

// NewDomain creates all domain systems from the API runtime. The moderation
// engine is built first so submission ingestion can fan out through it.
func NewDomain(runtime *Runtime) *Domain {
	db := runtime.Database.Connection()
	opts := runtime.Moderation.Options()

	notifier := notify.New(&runtime.Moderation.Notify, runtime.Logger)

	sources := []moderation.Source{
		classifiers.NewTextSource(
			classifiers.NewTextAnalyzer(&runtime.Moderation.Text),
			runtime.Moderation.Thresholds,
		),
		classifiers.NewImageSource(
			classifiers.NewImageAnalyzer(&runtime.Moderation.Image),
			runtime.Moderation.Thresholds,
		),
	}

	engine := moderation.New(
		moderation.NewStore(db, opts.JoinTimeout),
		sources,
		notifier,
		runtime.Logger,
		opts,
	)

	submissionsSystem := submissions.New(
		db,
		engine,
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	dispositionsSystem := dispositions.New(
		db,
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Submissions:  submissionsSystem,
		Dispositions: dispositionsSystem,
		Engine:       engine,
	}
}
