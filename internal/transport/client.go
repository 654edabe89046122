package transport

// #region imports
import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/catalog"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/engine"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/features"
	"github.com/danielpatrickdp/adaptive-learning/go-engine/internal/state"
)

// #endregion

// #region client-struct

// Client calls a remote engine service.
type Client struct {
	conn *grpc.ClientConn
	cc   grpc.ClientConnInterface
}

// NewClient connects to the engine service at addr.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, cc: conn}, nil
}

// NewClientWithConn uses an existing connection, which the caller closes.
func NewClientWithConn(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Close shuts down a connection opened by NewClient.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// #endregion

// #region calls

// ProcessEvent submits one event.
func (c *Client) ProcessEvent(ctx context.Context, userID string, ev features.RawEvent) (engine.Response, error) {
	var resp engine.Response
	err := c.call(ctx, "ProcessEvent", processEventRequest{UserID: userID, Event: ev}, &resp)
	return resp, err
}

// BatchProcess submits events to be processed in order.
func (c *Client) BatchProcess(ctx context.Context, userID string, events []features.RawEvent) ([]engine.Response, error) {
	var resp batchProcessResponse
	err := c.call(ctx, "BatchProcess", batchProcessRequest{UserID: userID, Events: events}, &resp)
	return resp.Responses, err
}

// GetColdStartPhase returns the user's phase.
func (c *Client) GetColdStartPhase(ctx context.Context, userID string) (state.Phase, error) {
	var resp phaseResponse
	err := c.call(ctx, "GetColdStartPhase", userRequest{UserID: userID}, &resp)
	return resp.Phase, err
}

// GetCurrentStrategy returns the user's latest strategy.
func (c *Client) GetCurrentStrategy(ctx context.Context, userID string) (catalog.StrategyParams, error) {
	var resp strategyResponse
	err := c.call(ctx, "GetCurrentStrategy", userRequest{UserID: userID}, &resp)
	return resp.Strategy, err
}

// GetState returns the user's state estimate.
func (c *Client) GetState(ctx context.Context, userID string) (state.UserState, error) {
	var resp stateResponse
	err := c.call(ctx, "GetState", userRequest{UserID: userID}, &resp)
	return resp.State, err
}

// ResetUser clears the user's state and model.
func (c *Client) ResetUser(ctx context.Context, userID string) error {
	return c.call(ctx, "ResetUser", userRequest{UserID: userID}, nil)
}

func (c *Client) call(ctx context.Context, method string, req, resp any) error {
	in, err := encode(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(method), in, out); err != nil {
		return fmt.Errorf("%s rpc: %w", method, err)
	}
	if resp == nil {
		return nil
	}
	return decode(out, resp)
}

// #endregion
