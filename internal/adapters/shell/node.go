package shell

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/adapters/logger"
	"go.trai.ch/kiln/internal/core/ports"
)

const (
	// ExecutorNodeID is the unique identifier for the command executor Graft node.
	ExecutorNodeID graft.ID = "adapter.executor"
	// NodeID is the unique identifier for the collaborator factory Graft node.
	NodeID graft.ID = "adapter.collaborator"
)

func init() {
	graft.Register(graft.Node[*Executor]{
		ID:        ExecutorNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (*Executor, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewExecutor(log), nil
		},
	})

	graft.Register(graft.Node[ports.CollaboratorFactory]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{ExecutorNodeID},
		Run: func(ctx context.Context) (ports.CollaboratorFactory, error) {
			executor, err := graft.Dep[*Executor](ctx)
			if err != nil {
				return nil, err
			}
			return NewFactory(executor), nil
		},
	})
}
