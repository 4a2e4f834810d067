package modald

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/opencode-ai/webmodal/internal/models"
)

// Client calls a running daemon.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to the daemon at target (host:port).
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	if target == "" {
		return nil, fmt.Errorf("daemon address is required")
	}
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", target, err)
	}
	return &Client{conn: conn}, nil
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) call(ctx context.Context, method string, req, resp any) error {
	in, err := toStruct(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, FullMethod(method), in, out); err != nil {
		return err
	}
	return fromStruct(out, resp)
}

// OpenDialog queues a dialog and returns its handle.
func (c *Client) OpenDialog(ctx context.Context, req OpenDialogRequest) (*OpenDialogResponse, error) {
	var resp OpenDialogResponse
	if err := c.call(ctx, MethodOpenDialog, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CloseDialog closes the dialog with handle.
func (c *Client) CloseDialog(ctx context.Context, handle string, self bool) (*models.SurfaceStatus, error) {
	return c.surfaceCall(ctx, MethodCloseDialog, CloseDialogRequest{Handle: handle, Self: self})
}

// SetCloseOnInterstitial updates a dialog's interstitial flag.
func (c *Client) SetCloseOnInterstitial(ctx context.Context, handle string, closeOnInterstitial bool) (*models.SurfaceStatus, error) {
	return c.surfaceCall(ctx, MethodSetCloseOnInterstitial, SetCloseOnInterstitialRequest{
		Handle:              handle,
		CloseOnInterstitial: closeOnInterstitial,
	})
}

// SetVisibility reports a surface visibility change.
func (c *Client) SetVisibility(ctx context.Context, surface string, visible bool) (*models.SurfaceStatus, error) {
	return c.surfaceCall(ctx, MethodSetVisibility, SetVisibilityRequest{Surface: surface, Visible: visible})
}

// AttachInterstitial attaches an interstitial page to a surface.
func (c *Client) AttachInterstitial(ctx context.Context, surface string) (*models.SurfaceStatus, error) {
	return c.surfaceCall(ctx, MethodAttachInterstitial, SurfaceRequest{Surface: surface})
}

// CloseAll closes every dialog on a surface.
func (c *Client) CloseAll(ctx context.Context, surface string) (*models.SurfaceStatus, error) {
	return c.surfaceCall(ctx, MethodCloseAll, SurfaceRequest{Surface: surface})
}

// GetSurface returns one surface snapshot.
func (c *Client) GetSurface(ctx context.Context, surface string) (*models.SurfaceStatus, error) {
	return c.surfaceCall(ctx, MethodGetSurface, SurfaceRequest{Surface: surface})
}

// ListSurfaces returns every surface known to the daemon.
func (c *Client) ListSurfaces(ctx context.Context) ([]models.SurfaceStatus, error) {
	var resp ListSurfacesResponse
	if err := c.call(ctx, MethodListSurfaces, struct{}{}, &resp); err != nil {
		return nil, err
	}
	return resp.Surfaces, nil
}

// Ping checks that the daemon is reachable.
func (c *Client) Ping(ctx context.Context) (*PingResponse, error) {
	var resp PingResponse
	if err := c.call(ctx, MethodPing, struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) surfaceCall(ctx context.Context, method string, req any) (*models.SurfaceStatus, error) {
	var resp SurfaceResponse
	if err := c.call(ctx, method, req, &resp); err != nil {
		return nil, err
	}
	return &resp.Surface, nil
}
