package wiring

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/OpenTraceLab/circuitwire/pkg/geom"
	"github.com/OpenTraceLab/circuitwire/pkg/history"
	"github.com/OpenTraceLab/circuitwire/pkg/pathfind"
)

// DefaultRouteWait is how long Move blocks for a fast routing result.
const DefaultRouteWait = 20 * time.Millisecond

// Router finds a wire path between two points. pathfind.Finder is the
// default implementation.
type Router interface {
	BestPath(ctx context.Context, src, dst geom.Point, valid pathfind.ValidFunc) ([]geom.Wire, error)
}

// History is the edit recorder a Board reports to. *history.Recorder
// satisfies it.
type History interface {
	BeginGroup()
	EndGroup()
	ClearGroup()
	Disable()
	Enable()
	Record(kind history.Kind, payload any)
	Undo(a history.Applier) (bool, error)
	Redo(a history.Applier) (bool, error)
}

// Config controls a Board.
type Config struct {
	// Routing
	RouteWait     time.Duration // How long Move waits for a result (default: 20ms)
	MaxExpansions int           // A* expansion cap (default: 5000)
	Router        Router        // Defaults to pathfind.Finder with MaxExpansions

	// Collaborators
	History       History           // Defaults to history.New(history.DefaultMaxDepth)
	Logger        *slog.Logger      // Defaults to slog.Default()
	OnRouteResult func(RouteResult) // Called after each published routing result
}

// DefaultConfig returns a Config with the editor defaults.
func DefaultConfig() *Config {
	return &Config{
		RouteWait:     DefaultRouteWait,
		MaxExpansions: pathfind.DefaultMaxExpansions,
	}
}

// Validate checks the configuration and fills in missing collaborators.
func (c *Config) Validate() error {
	if c.RouteWait < 0 {
		return fmt.Errorf("wiring: negative route wait %v", c.RouteWait)
	}
	if c.MaxExpansions < 1 {
		c.MaxExpansions = pathfind.DefaultMaxExpansions
	}
	if c.Router == nil {
		c.Router = pathfind.Finder{MaxExpansions: c.MaxExpansions}
	}
	if c.History == nil {
		c.History = history.New(history.DefaultMaxDepth)
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return nil
}
