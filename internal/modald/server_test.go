package modald

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/opencode-ai/webmodal/internal/models"
	"github.com/opencode-ai/webmodal/internal/webmodal"
)

func mustStruct(t *testing.T, v any) *structpb.Struct {
	t.Helper()
	s, err := toStruct(v)
	if err != nil {
		t.Fatalf("toStruct() error = %v", err)
	}
	return s
}

func openDialog(t *testing.T, server *Server, req OpenDialogRequest) OpenDialogResponse {
	t.Helper()
	out, err := server.OpenDialog(context.Background(), mustStruct(t, req))
	if err != nil {
		t.Fatalf("OpenDialog() error = %v", err)
	}
	var resp OpenDialogResponse
	if err := fromStruct(out, &resp); err != nil {
		t.Fatalf("fromStruct() error = %v", err)
	}
	return resp
}

func surfaceOf(t *testing.T) func(out *structpb.Struct, err error) models.SurfaceStatus {
	return func(out *structpb.Struct, err error) models.SurfaceStatus {
		t.Helper()
		if err != nil {
			t.Fatalf("call error = %v", err)
		}
		var resp SurfaceResponse
		if err := fromStruct(out, &resp); err != nil {
			t.Fatalf("fromStruct() error = %v", err)
		}
		return resp.Surface
	}
}

func TestServerPing(t *testing.T) {
	server := NewServer(zerolog.Nop(), WithVersion("test-version"))

	out, err := server.Ping(context.Background(), &structpb.Struct{})
	if err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	var resp PingResponse
	if err := fromStruct(out, &resp); err != nil {
		t.Fatalf("fromStruct() error = %v", err)
	}
	if resp.Version != "test-version" {
		t.Errorf("Version = %q, want %q", resp.Version, "test-version")
	}
	if resp.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
}

func TestServerOpenDialogQueues(t *testing.T) {
	server := NewServer(zerolog.Nop())

	first := openDialog(t, server, OpenDialogRequest{Surface: "tab-1", Title: "first"})
	second := openDialog(t, server, OpenDialogRequest{Surface: "tab-1", Title: "second"})

	if first.Handle == "" || first.Handle == second.Handle {
		t.Fatalf("handles = %q, %q; want distinct non-empty", first.Handle, second.Handle)
	}

	surf := second.Surface
	if !surf.Blocked || !surf.Visible {
		t.Errorf("surface blocked=%v visible=%v, want both true", surf.Blocked, surf.Visible)
	}
	if len(surf.Dialogs) != 2 {
		t.Fatalf("len(Dialogs) = %d, want 2", len(surf.Dialogs))
	}
	if surf.Dialogs[0].State != "shown" || !surf.Dialogs[0].Front {
		t.Errorf("front = %+v, want shown front", surf.Dialogs[0])
	}
	if surf.Dialogs[1].State != "managed" || surf.Dialogs[1].Title != "second" {
		t.Errorf("second = %+v, want managed 'second'", surf.Dialogs[1])
	}
}

func TestServerOpenDialogValidation(t *testing.T) {
	server := NewServer(zerolog.Nop())

	_, err := server.OpenDialog(context.Background(), mustStruct(t, OpenDialogRequest{}))
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("code = %v, want InvalidArgument", status.Code(err))
	}
}

func TestServerCloseDialogPromotes(t *testing.T) {
	server := NewServer(zerolog.Nop())
	first := openDialog(t, server, OpenDialogRequest{Surface: "tab-1"})
	openDialog(t, server, OpenDialogRequest{Surface: "tab-1", Title: "next"})

	surf := surfaceOf(t)(server.CloseDialog(context.Background(), mustStruct(t, CloseDialogRequest{Handle: first.Handle})))
	if len(surf.Dialogs) != 1 || surf.Dialogs[0].State != "shown" || surf.Dialogs[0].Title != "next" {
		t.Errorf("dialogs = %+v, want 'next' shown", surf.Dialogs)
	}
	if surf.Closed != 1 {
		t.Errorf("Closed = %d, want 1", surf.Closed)
	}

	_, err := server.CloseDialog(context.Background(), mustStruct(t, CloseDialogRequest{Handle: first.Handle}))
	if status.Code(err) != codes.NotFound {
		t.Errorf("second close code = %v, want NotFound", status.Code(err))
	}
}

func TestServerSelfClose(t *testing.T) {
	server := NewServer(zerolog.Nop())
	opened := openDialog(t, server, OpenDialogRequest{Surface: "tab-1"})

	surf := surfaceOf(t)(server.CloseDialog(context.Background(), mustStruct(t, CloseDialogRequest{Handle: opened.Handle, Self: true})))
	if surf.Blocked || len(surf.Dialogs) != 0 {
		t.Errorf("surface = %+v, want unblocked and empty", surf)
	}
}

func TestServerInterstitialSweep(t *testing.T) {
	server := NewServer(zerolog.Nop())
	keep := false
	openDialog(t, server, OpenDialogRequest{Surface: "tab-1", Title: "d1"})
	openDialog(t, server, OpenDialogRequest{Surface: "tab-1", Title: "d2", CloseOnInterstitial: &keep})
	openDialog(t, server, OpenDialogRequest{Surface: "tab-1", Title: "d3"})

	surf := surfaceOf(t)(server.AttachInterstitial(context.Background(), mustStruct(t, SurfaceRequest{Surface: "tab-1"})))
	if len(surf.Dialogs) != 1 {
		t.Fatalf("len(Dialogs) = %d, want 1", len(surf.Dialogs))
	}
	if got := surf.Dialogs[0]; got.Title != "d2" || got.State != "shown" {
		t.Errorf("survivor = %+v, want d2 shown", got)
	}
	if len(server.handles) != 1 {
		t.Errorf("len(handles) = %d, want 1", len(server.handles))
	}
}

func TestServerSetCloseOnInterstitial(t *testing.T) {
	server := NewServer(zerolog.Nop())
	opened := openDialog(t, server, OpenDialogRequest{Surface: "tab-1"})

	surf := surfaceOf(t)(server.SetCloseOnInterstitial(context.Background(), mustStruct(t, SetCloseOnInterstitialRequest{Handle: opened.Handle})))
	if surf.Dialogs[0].CloseOnInterstitial {
		t.Error("CloseOnInterstitial should be false")
	}

	surf = surfaceOf(t)(server.AttachInterstitial(context.Background(), mustStruct(t, SurfaceRequest{Surface: "tab-1"})))
	if len(surf.Dialogs) != 1 {
		t.Errorf("len(Dialogs) = %d, want 1", len(surf.Dialogs))
	}
}

func TestServerVisibility(t *testing.T) {
	server := NewServer(zerolog.Nop(), WithSurfaceDefaults(true, false))
	openDialog(t, server, OpenDialogRequest{Surface: "tab-1"})

	surf := surfaceOf(t)(server.GetSurface(context.Background(), mustStruct(t, SurfaceRequest{Surface: "tab-1"})))
	if surf.Visible || surf.Dialogs[0].State != "managed" {
		t.Fatalf("hidden surface = %+v, want dialog managed", surf)
	}

	surf = surfaceOf(t)(server.SetVisibility(context.Background(), mustStruct(t, SetVisibilityRequest{Surface: "tab-1", Visible: true})))
	if surf.Dialogs[0].State != "shown" {
		t.Errorf("state = %q, want shown", surf.Dialogs[0].State)
	}

	surf = surfaceOf(t)(server.SetVisibility(context.Background(), mustStruct(t, SetVisibilityRequest{Surface: "tab-1", Visible: false})))
	if surf.Dialogs[0].State != "hidden" {
		t.Errorf("state = %q, want hidden", surf.Dialogs[0].State)
	}
}

func TestServerSetSurfaceDefaults(t *testing.T) {
	server := NewServer(zerolog.Nop())
	openDialog(t, server, OpenDialogRequest{Surface: "tab-1"})

	server.SetSurfaceDefaults(true, false)
	openDialog(t, server, OpenDialogRequest{Surface: "tab-2"})

	existing := surfaceOf(t)(server.GetSurface(context.Background(), mustStruct(t, SurfaceRequest{Surface: "tab-1"})))
	if !existing.Visible {
		t.Error("existing surface should keep its visibility")
	}
	created := surfaceOf(t)(server.GetSurface(context.Background(), mustStruct(t, SurfaceRequest{Surface: "tab-2"})))
	if created.Visible || created.Dialogs[0].State != "managed" {
		t.Errorf("new surface = %+v, want hidden with dialog managed", created)
	}
}

func TestServerCloseAll(t *testing.T) {
	server := NewServer(zerolog.Nop())
	for i := 0; i < 3; i++ {
		openDialog(t, server, OpenDialogRequest{Surface: "tab-1"})
	}

	surf := surfaceOf(t)(server.CloseAll(context.Background(), mustStruct(t, SurfaceRequest{Surface: "tab-1"})))
	if surf.Blocked || len(surf.Dialogs) != 0 || surf.Closed != 3 {
		t.Errorf("surface = %+v, want empty with 3 closed", surf)
	}
	if len(server.handles) != 0 {
		t.Errorf("len(handles) = %d, want 0", len(server.handles))
	}
}

func TestServerGetSurfaceNotFound(t *testing.T) {
	server := NewServer(zerolog.Nop())

	_, err := server.GetSurface(context.Background(), mustStruct(t, SurfaceRequest{Surface: "missing"}))
	if status.Code(err) != codes.NotFound {
		t.Errorf("code = %v, want NotFound", status.Code(err))
	}
}

func TestServerListSurfacesSorted(t *testing.T) {
	server := NewServer(zerolog.Nop())
	openDialog(t, server, OpenDialogRequest{Surface: "tab-b"})
	openDialog(t, server, OpenDialogRequest{Surface: "tab-a"})

	out, err := server.ListSurfaces(context.Background(), &structpb.Struct{})
	if err != nil {
		t.Fatalf("ListSurfaces() error = %v", err)
	}
	var resp ListSurfacesResponse
	if err := fromStruct(out, &resp); err != nil {
		t.Fatalf("fromStruct() error = %v", err)
	}
	if len(resp.Surfaces) != 2 || resp.Surfaces[0].Name != "tab-a" {
		t.Errorf("surfaces = %+v, want tab-a first", resp.Surfaces)
	}
}

func TestServerForwardsEvents(t *testing.T) {
	var kinds []webmodal.EventKind
	observer := webmodal.ObserverFunc(func(event webmodal.Event) {
		kinds = append(kinds, event.Kind)
	})
	server := NewServer(zerolog.Nop(), WithObserver(observer))
	openDialog(t, server, OpenDialogRequest{Surface: "tab-1"})

	want := []webmodal.EventKind{webmodal.EventRegistered, webmodal.EventShown, webmodal.EventBlocked}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("kinds[%d] = %q, want %q", i, kinds[i], want[i])
		}
	}
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{webmodal.ErrUnknownDialog, codes.NotFound},
		{webmodal.ErrDuplicateDialog, codes.AlreadyExists},
		{webmodal.ErrInvalidDialogID, codes.InvalidArgument},
		{webmodal.ErrHostDestroyed, codes.FailedPrecondition},
		{context.Canceled, codes.Internal},
	}
	for _, tt := range tests {
		if got := status.Code(toStatus(tt.err)); got != tt.want {
			t.Errorf("toStatus(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
