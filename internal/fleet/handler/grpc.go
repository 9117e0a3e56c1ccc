package handler

import (
	"context"

	"github.com/fekuna/omnipos-fleet-simulator/internal/assignment"
	"github.com/fekuna/omnipos-fleet-simulator/internal/auth"
	"github.com/fekuna/omnipos-fleet-simulator/internal/inventory"
	"github.com/fekuna/omnipos-fleet-simulator/internal/model"
	"github.com/fekuna/omnipos-fleet-simulator/internal/product"
	"github.com/fekuna/omnipos-fleet-simulator/internal/product/dto"
	"github.com/fekuna/omnipos-fleet-simulator/internal/robot"
	"github.com/fekuna/omnipos-fleet-simulator/internal/route"
	"github.com/fekuna/omnipos-fleet-simulator/internal/trip"
	"github.com/fekuna/omnipos-fleet-simulator/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "fleet.v1.FleetService"

	watchBuffer = 64
)

// Subscriber is the event source behind WatchEvents.
type Subscriber interface {
	Subscribe(buffer int) (<-chan model.Event, func())
}

type FleetServer interface {
	AddRobot(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListRobots(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Assign(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Unassign(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StartTrip(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListProducts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetStock(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AdjustStock(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListTrips(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ActiveTrips(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRoute(context.Context, *structpb.Struct) (*structpb.Struct, error)
	MoveWaypoint(context.Context, *structpb.Struct) (*structpb.Struct, error)
	WatchEvents(*structpb.Struct, grpc.ServerStream) error
}

type FleetHandler struct {
	robots     robot.UseCase
	assignment assignment.UseCase
	trips      trip.UseCase
	products   product.UseCase
	ledger     inventory.UseCase
	routes     *route.Map
	events     Subscriber
	logger     logger.ZapLogger
}

func NewFleetHandler(
	robots robot.UseCase,
	assign assignment.UseCase,
	trips trip.UseCase,
	products product.UseCase,
	ledger inventory.UseCase,
	routes *route.Map,
	events Subscriber,
	log logger.ZapLogger,
) *FleetHandler {
	return &FleetHandler{
		robots:     robots,
		assignment: assign,
		trips:      trips,
		products:   products,
		ledger:     ledger,
		routes:     routes,
		events:     events,
		logger:     log,
	}
}

func RegisterFleetServer(s grpc.ServiceRegistrar, srv FleetServer) {
	s.RegisterService(&fleetServiceDesc, srv)
}

func (h *FleetHandler) AddRobot(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	bot := h.robots.AddRobot(ctx)
	h.logger.Info("Robot added", zap.Int64("robot_id", int64(bot.ID)), zap.String("operator", auth.GetOperatorID(ctx)))
	return toStruct(bot)
}

func (h *FleetHandler) ListRobots(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return wrap("robots", h.robots.ListRobots(ctx))
}

func (h *FleetHandler) Assign(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := robotIDField(req)
	if err != nil {
		return nil, toStatus(err)
	}
	qty, err := quantityField(req, "quantity")
	if err != nil {
		return nil, toStatus(err)
	}

	bot, err := h.assignment.Assign(ctx, id, stringField(req, "product_id"), qty)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(bot)
}

func (h *FleetHandler) Unassign(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := robotIDField(req)
	if err != nil {
		return nil, toStatus(err)
	}

	bot, err := h.assignment.Unassign(ctx, id, stringField(req, "product_id"))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(bot)
}

func (h *FleetHandler) StartTrip(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := robotIDField(req)
	if err != nil {
		return nil, toStatus(err)
	}

	bot, err := h.trips.StartTrip(ctx, id, stringField(req, "destination"))
	if err != nil {
		return nil, toStatus(err)
	}
	h.logger.Info("Trip requested",
		zap.Int64("robot_id", int64(id)),
		zap.String("destination", bot.Destination.Label()),
		zap.String("operator", auth.GetOperatorID(ctx)),
	)
	return toStruct(bot)
}

func (h *FleetHandler) ListProducts(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	levels, err := h.ledger.StockLevels(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return wrap("products", levels)
}

func (h *FleetHandler) CreateProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	stock := 0
	if _, ok := req.GetFields()["stock"]; ok {
		var err error
		if stock, err = quantityField(req, "stock"); err != nil {
			return nil, toStatus(err)
		}
	}

	p, err := h.products.CreateProduct(ctx, &dto.CreateProductInput{
		Name:  stringField(req, "name"),
		Stock: stock,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(p)
}

func (h *FleetHandler) SetStock(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	stock, err := quantityField(req, "stock")
	if err != nil {
		return nil, toStatus(err)
	}
	p, err := h.products.SetStock(ctx, stringField(req, "product_id"), stock)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(p)
}

func (h *FleetHandler) AdjustStock(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	delta, err := quantityField(req, "delta")
	if err != nil {
		return nil, toStatus(err)
	}
	p, err := h.products.AdjustStock(ctx, stringField(req, "product_id"), delta)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(p)
}

func (h *FleetHandler) DeleteProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := h.products.DeleteProduct(ctx, stringField(req, "product_id")); err != nil {
		return nil, toStatus(err)
	}
	return &structpb.Struct{}, nil
}

func (h *FleetHandler) ListTrips(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := robotIDField(req)
	if err != nil {
		return nil, toStatus(err)
	}
	records, err := h.trips.ListTrips(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return wrap("trips", records)
}

func (h *FleetHandler) ActiveTrips(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return wrap("trips", h.trips.ActiveTrips(ctx))
}

func (h *FleetHandler) GetRoute(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return wrap("waypoints", h.routes.Waypoints())
}

func (h *FleetHandler) MoveWaypoint(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	x, okX := floatField(req, "x")
	y, okY := floatField(req, "y")
	if !okX || !okY {
		return nil, status.Error(codes.InvalidArgument, "x and y must be finite numbers")
	}
	name := stringField(req, "name")
	if err := h.routes.Move(name, model.Point{X: x, Y: y}); err != nil {
		return nil, toStatus(err)
	}
	h.logger.Info("Waypoint moved",
		zap.String("waypoint", name),
		zap.Float64("x", x),
		zap.Float64("y", y),
		zap.String("operator", auth.GetOperatorID(ctx)),
	)
	return wrap("waypoints", h.routes.Waypoints())
}

// WatchEvents streams fleet events until the client goes away. A non-zero
// robot_id limits the stream to that robot.
func (h *FleetHandler) WatchEvents(req *structpb.Struct, stream grpc.ServerStream) error {
	var only model.RobotID
	if _, ok := req.GetFields()["robot_id"]; ok {
		id, err := robotIDField(req)
		if err != nil {
			return toStatus(err)
		}
		only = id
	}

	events, cancel := h.events.Subscribe(watchBuffer)
	defer cancel()

	ctx := stream.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			if only != 0 && e.RobotID != only {
				continue
			}
			msg, err := toStruct(e)
			if err != nil {
				h.logger.Error("Failed to encode event", zap.Error(err))
				continue
			}
			if err := stream.SendMsg(msg); err != nil {
				return err
			}
		}
	}
}

func unaryMethod(name string, call func(FleetServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(FleetServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(FleetServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

var fleetServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FleetServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("AddRobot", FleetServer.AddRobot),
		unaryMethod("ListRobots", FleetServer.ListRobots),
		unaryMethod("Assign", FleetServer.Assign),
		unaryMethod("Unassign", FleetServer.Unassign),
		unaryMethod("StartTrip", FleetServer.StartTrip),
		unaryMethod("ListProducts", FleetServer.ListProducts),
		unaryMethod("CreateProduct", FleetServer.CreateProduct),
		unaryMethod("SetStock", FleetServer.SetStock),
		unaryMethod("AdjustStock", FleetServer.AdjustStock),
		unaryMethod("DeleteProduct", FleetServer.DeleteProduct),
		unaryMethod("ListTrips", FleetServer.ListTrips),
		unaryMethod("ActiveTrips", FleetServer.ActiveTrips),
		unaryMethod("GetRoute", FleetServer.GetRoute),
		unaryMethod("MoveWaypoint", FleetServer.MoveWaypoint),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName: "WatchEvents",
			Handler: func(srv interface{}, stream grpc.ServerStream) error {
				in := new(structpb.Struct)
				if err := stream.RecvMsg(in); err != nil {
					return err
				}
				return srv.(FleetServer).WatchEvents(in, stream)
			},
			ServerStreams: true,
		},
	},
	Metadata: "fleet/v1/fleet.proto",
}
