package handler

import (
	"context"
	"testing"

	assignUCPkg "github.com/fekuna/omnipos-fleet-simulator/internal/assignment/usecase"
	"github.com/fekuna/omnipos-fleet-simulator/internal/event"
	"github.com/fekuna/omnipos-fleet-simulator/internal/inventory"
	"github.com/fekuna/omnipos-fleet-simulator/internal/inventory/locker"
	ledgerUCPkg "github.com/fekuna/omnipos-fleet-simulator/internal/inventory/usecase"
	prodRepoPkg "github.com/fekuna/omnipos-fleet-simulator/internal/product/repository"
	prodUCPkg "github.com/fekuna/omnipos-fleet-simulator/internal/product/usecase"
	robotRepoPkg "github.com/fekuna/omnipos-fleet-simulator/internal/robot/repository"
	robotUCPkg "github.com/fekuna/omnipos-fleet-simulator/internal/robot/usecase"
	"github.com/fekuna/omnipos-fleet-simulator/internal/route"
	"github.com/fekuna/omnipos-fleet-simulator/internal/trip"
	"github.com/fekuna/omnipos-fleet-simulator/internal/trip/machine"
	tripRepoPkg "github.com/fekuna/omnipos-fleet-simulator/internal/trip/repository"
	tripUCPkg "github.com/fekuna/omnipos-fleet-simulator/internal/trip/usecase"
	"github.com/fekuna/omnipos-fleet-simulator/pkg/logger"
	"github.com/stretchr/testify/require"
)

type fleet struct {
	bus      *event.Bus
	products *prodRepoPkg.MemoryRepository
	ledger   inventory.UseCase
	trips    trip.UseCase
	grpc     *FleetHandler
	http     *HTTPHandler
}

func newFleet(t *testing.T) *fleet {
	t.Helper()
	log := logger.NewNop()
	bus := event.NewBus(log)
	routes := route.NewMap()

	products := prodRepoPkg.NewMemoryRepository()
	robots := robotRepoPkg.NewMemoryRepository()
	ledger := ledgerUCPkg.NewLedgerUseCase(products, robots, locker.NewLocal(), log)
	productUC := prodUCPkg.NewProductUseCase(products, bus, log)
	robotUC := robotUCPkg.NewRobotUseCase(robots, bus, log)
	assignUC := assignUCPkg.NewAssignmentUseCase(ledger, robots, bus, log)
	tripUC := tripUCPkg.NewTripUseCase(robots, ledger, tripRepoPkg.NewMemoryRepository(), routes, bus, machine.DefaultConfig(), log)

	require.NoError(t, productUC.EnsureSampleProducts(context.Background()))

	return &fleet{
		bus:      bus,
		products: products,
		ledger:   ledger,
		trips:    tripUC,
		grpc:     NewFleetHandler(robotUC, assignUC, tripUC, productUC, ledger, routes, bus, log),
		http:     NewHTTPHandler(robotUC, tripUC, ledger, routes, log),
	}
}

func (f *fleet) productID(t *testing.T, name string) string {
	t.Helper()
	all, err := f.products.FindAll(context.Background())
	require.NoError(t, err)
	for _, p := range all {
		if p.Name == name {
			return p.ID
		}
	}
	t.Fatalf("no product %q", name)
	return ""
}

// finishTrips ticks until no trip is active.
func (f *fleet) finishTrips(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 10000; i++ {
		if len(f.trips.ActiveTrips(ctx)) == 0 {
			return
		}
		f.trips.TickAll(ctx)
	}
	t.Fatal("trips never finished")
}
