package api

import (
	"fmt"

	"github.com/precislabs/precis/internal/config"
	"github.com/precislabs/precis/internal/engine"
	"github.com/precislabs/precis/internal/history"
	"github.com/precislabs/precis/internal/pipeline"
	"github.com/precislabs/precis/internal/programs"
	"github.com/precislabs/precis/internal/trigger"
	"github.com/precislabs/precis/pkg/docintel"
	"github.com/precislabs/precis/pkg/generation"
)

// Domain holds the domain systems and the summarization engine that comprise
// the API.
type Domain struct {
	Programs programs.System
	History  history.Store
	Engine   *engine.Engine
	Listener *trigger.Listener
}

// NewDomain creates all domain systems from the API runtime: the program
// store, the durable history store, the three pipeline activities, the engine
// that sequences them, and the upload trigger that feeds it.
func NewDomain(cfg *config.Config, runtime *Runtime) (*Domain, error) {
	programsSystem := programs.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	store := history.NewPostgresStore(runtime.Database.Connection(), runtime.Logger)

	analyzer := docintel.New(&cfg.Analysis, runtime.Credential, runtime.Logger)

	generator, err := generation.New(&cfg.Generation, runtime.Credential, runtime.Logger)
	if err != nil {
		return nil, fmt.Errorf("generation init failed: %w", err)
	}

	eng := engine.New(
		store,
		cfg.Pipeline.Retry.Policy(),
		runtime.Logger,
		engine.Stage{
			Activity: pipeline.NewTextExtractor(
				analyzer,
				runtime.Storage,
				cfg.Pipeline.MaxDocumentSizeBytes(),
				runtime.Logger,
			),
			State: history.StateExtracting,
		},
		engine.Stage{
			Activity: pipeline.NewSummarizer(generator, cfg.Pipeline.TruncationCap, runtime.Logger),
			State:    history.StateSummarizing,
		},
		engine.Stage{
			Activity: pipeline.NewCallbackNotifier(cfg.Pipeline.CallbackBaseURL, runtime.Logger),
			State:    history.StateDelivering,
		},
	)

	listener := trigger.NewListener(
		eng,
		cfg.Pipeline.StorageRoot,
		cfg.Storage.ContainerName,
		runtime.Logger,
	)

	return &Domain{
		Programs: programsSystem,
		History:  store,
		Engine:   eng,
		Listener: listener,
	}, nil
}
