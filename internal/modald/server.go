package modald

import (
	"context"
	"errors"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/opencode-ai/webmodal/internal/webmodal"
)

// handleRef locates a remote dialog.
type handleRef struct {
	surface string
	id      webmodal.DialogID
}

// Server implements ModalServiceServer. Surfaces are created on demand
// the first time a request names them.
type Server struct {
	logger    zerolog.Logger
	startedAt time.Time
	hostname  string
	version   string
	observer  webmodal.Observer

	closeOnInterstitial bool
	hostVisible         bool

	mu       sync.Mutex
	surfaces map[string]*surface
	handles  map[string]handleRef
	ids      webmodal.IDAllocator
}

var _ ModalServiceServer = (*Server)(nil)

// ServerOption configures the Server.
type ServerOption func(*Server)

// WithVersion sets the daemon version.
func WithVersion(version string) ServerOption {
	return func(s *Server) {
		s.version = version
	}
}

// WithObserver receives lifecycle events from every surface.
func WithObserver(observer webmodal.Observer) ServerOption {
	return func(s *Server) {
		s.observer = observer
	}
}

// WithSurfaceDefaults sets the interstitial flag for new dialogs and the
// initial visibility of new surfaces.
func WithSurfaceDefaults(closeOnInterstitial, visible bool) ServerOption {
	return func(s *Server) {
		s.closeOnInterstitial = closeOnInterstitial
		s.hostVisible = visible
	}
}

// NewServer creates a new modal service.
func NewServer(logger zerolog.Logger, opts ...ServerOption) *Server {
	hostname, _ := os.Hostname()

	s := &Server{
		logger:              logger,
		startedAt:           time.Now(),
		hostname:            hostname,
		version:             "dev",
		closeOnInterstitial: true,
		hostVisible:         true,
		surfaces:            make(map[string]*surface),
		handles:             make(map[string]handleRef),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SetSurfaceDefaults changes the defaults for surfaces created from now
// on. Existing surfaces keep theirs.
func (s *Server) SetSurfaceDefaults(closeOnInterstitial, visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeOnInterstitial = closeOnInterstitial
	s.hostVisible = visible
}

// OpenDialog registers a new dialog on a surface, creating the surface if
// needed.
func (s *Server) OpenDialog(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req OpenDialogRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Surface) == "" {
		return nil, status.Error(codes.InvalidArgument, "surface is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	surf := s.surfaceLocked(req.Surface)
	dialog := &remoteDialog{
		handle:   uuid.New().String(),
		id:       s.ids.Next(),
		title:    req.Title,
		kind:     req.Kind,
		openedAt: time.Now().UTC(),
	}
	surf.dialogs[dialog.id] = dialog
	if err := surf.manager.Register(dialog.id, dialog); err != nil {
		delete(surf.dialogs, dialog.id)
		return nil, toStatus(err)
	}
	s.handles[dialog.handle] = handleRef{surface: surf.name, id: dialog.id}

	if req.CloseOnInterstitial != nil {
		if err := surf.manager.SetCloseOnInterstitial(dialog.id, *req.CloseOnInterstitial); err != nil {
			return nil, toStatus(err)
		}
	}

	s.logger.Info().
		Str("surface", surf.name).
		Str("handle", dialog.handle).
		Stringer("dialog", dialog.id).
		Str("kind", dialog.kind).
		Msg("dialog opened")

	return encode(OpenDialogResponse{Handle: dialog.handle, Surface: surf.status()})
}

// CloseDialog closes a dialog by handle.
func (s *Server) CloseDialog(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req CloseDialogRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	surf, dialog, err := s.dialogLocked(req.Handle)
	if err != nil {
		return nil, err
	}

	if req.Self {
		dialog.Close(dialog.id)
		err = surf.manager.WillClose(dialog.id)
	} else {
		err = surf.manager.Close(dialog.id)
	}
	if err != nil {
		return nil, toStatus(err)
	}
	delete(s.handles, req.Handle)

	s.logger.Info().
		Str("surface", surf.name).
		Str("handle", req.Handle).
		Bool("self", req.Self).
		Msg("dialog closed")

	return encode(SurfaceResponse{Surface: surf.status()})
}

// SetCloseOnInterstitial updates whether an interstitial closes a dialog.
func (s *Server) SetCloseOnInterstitial(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req SetCloseOnInterstitialRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	surf, dialog, err := s.dialogLocked(req.Handle)
	if err != nil {
		return nil, err
	}
	if err := surf.manager.SetCloseOnInterstitial(dialog.id, req.CloseOnInterstitial); err != nil {
		return nil, toStatus(err)
	}
	return encode(SurfaceResponse{Surface: surf.status()})
}

// SetVisibility reports that a surface was shown or hidden.
func (s *Server) SetVisibility(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req SetVisibilityRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Surface) == "" {
		return nil, status.Error(codes.InvalidArgument, "surface is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	surf := s.surfaceLocked(req.Surface)
	surf.setVisible(req.Visible)
	return encode(SurfaceResponse{Surface: surf.status()})
}

// AttachInterstitial closes the surface's dialogs that do not survive
// interstitial pages.
func (s *Server) AttachInterstitial(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.withSurface(in, func(surf *surface) {
		surf.manager.OnInterstitialAttached()
	})
}

// CloseAll closes every dialog on a surface.
func (s *Server) CloseAll(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.withSurface(in, func(surf *surface) {
		surf.manager.CloseAll()
	})
}

// GetSurface returns one surface snapshot.
func (s *Server) GetSurface(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.withSurface(in, nil)
}

// ListSurfaces returns every known surface, sorted by name.
func (s *Server) ListSurfaces(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.surfaces))
	for name := range s.surfaces {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := ListSurfacesResponse{}
	for _, name := range names {
		resp.Surfaces = append(resp.Surfaces, s.surfaces[name].status())
	}
	return encode(resp)
}

// Ping reports daemon identity.
func (s *Server) Ping(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return encode(PingResponse{
		Version:   s.version,
		Hostname:  s.hostname,
		StartedAt: s.startedAt.UTC(),
		Timestamp: time.Now().UTC(),
	})
}

// withSurface runs fn against an existing surface and returns its status.
func (s *Server) withSurface(in *structpb.Struct, fn func(*surface)) (*structpb.Struct, error) {
	var req SurfaceRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Surface) == "" {
		return nil, status.Error(codes.InvalidArgument, "surface is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	surf, ok := s.surfaces[req.Surface]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "surface %q not found", req.Surface)
	}
	if fn != nil {
		fn(surf)
		s.pruneHandlesLocked(surf)
	}
	return encode(SurfaceResponse{Surface: surf.status()})
}

func (s *Server) surfaceLocked(name string) *surface {
	surf, ok := s.surfaces[name]
	if ok {
		return surf
	}
	surf = newSurface(name, s.hostVisible, s.closeOnInterstitial, s.observer, s.logger)
	s.surfaces[name] = surf
	s.logger.Info().Str("surface", name).Bool("visible", s.hostVisible).Msg("surface created")
	return surf
}

func (s *Server) dialogLocked(handle string) (*surface, *remoteDialog, error) {
	if strings.TrimSpace(handle) == "" {
		return nil, nil, status.Error(codes.InvalidArgument, "handle is required")
	}
	ref, ok := s.handles[handle]
	if !ok {
		return nil, nil, status.Errorf(codes.NotFound, "dialog %q not found", handle)
	}
	surf := s.surfaces[ref.surface]
	dialog := surf.dialogs[ref.id]
	if dialog == nil {
		delete(s.handles, handle)
		return nil, nil, status.Errorf(codes.NotFound, "dialog %q not found", handle)
	}
	return surf, dialog, nil
}

// pruneHandlesLocked forgets handles of dialogs the surface has closed.
func (s *Server) pruneHandlesLocked(surf *surface) {
	for handle, ref := range s.handles {
		if ref.surface != surf.name {
			continue
		}
		if _, open := surf.dialogs[ref.id]; !open {
			delete(s.handles, handle)
		}
	}
}

func decode(in *structpb.Struct, v any) error {
	if err := fromStruct(in, v); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return nil
}

func encode(v any) (*structpb.Struct, error) {
	out, err := toStruct(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// toStatus maps manager errors to gRPC status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, webmodal.ErrUnknownDialog):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, webmodal.ErrDuplicateDialog):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, webmodal.ErrInvalidDialogID), errors.Is(err, webmodal.ErrNilController):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, webmodal.ErrHostDestroyed):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
