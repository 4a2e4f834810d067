package modald

import (
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/opencode-ai/webmodal/internal/models"
)

// OpenDialogRequest queues a new dialog on a surface.
type OpenDialogRequest struct {
	Surface string `json:"surface"`
	Title   string `json:"title,omitempty"`
	Kind    string `json:"kind,omitempty"`
	// CloseOnInterstitial overrides the surface default when set.
	CloseOnInterstitial *bool `json:"close_on_interstitial,omitempty"`
}

// OpenDialogResponse returns the handle of the opened dialog.
type OpenDialogResponse struct {
	Handle  string               `json:"handle"`
	Surface models.SurfaceStatus `json:"surface"`
}

// CloseDialogRequest closes a dialog by handle. With Self set the dialog
// is reported as having closed itself.
type CloseDialogRequest struct {
	Handle string `json:"handle"`
	Self   bool   `json:"self,omitempty"`
}

// SetCloseOnInterstitialRequest updates a dialog's interstitial flag.
type SetCloseOnInterstitialRequest struct {
	Handle              string `json:"handle"`
	CloseOnInterstitial bool   `json:"close_on_interstitial"`
}

// SetVisibilityRequest reports a surface visibility change.
type SetVisibilityRequest struct {
	Surface string `json:"surface"`
	Visible bool   `json:"visible"`
}

// SurfaceRequest names a surface.
type SurfaceRequest struct {
	Surface string `json:"surface"`
}

// SurfaceResponse carries one surface snapshot.
type SurfaceResponse struct {
	Surface models.SurfaceStatus `json:"surface"`
}

// ListSurfacesResponse carries every surface, sorted by name.
type ListSurfacesResponse struct {
	Surfaces []models.SurfaceStatus `json:"surfaces"`
}

// PingResponse reports daemon identity.
type PingResponse struct {
	Version   string    `json:"version"`
	Hostname  string    `json:"hostname"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
}

// toStruct converts a message to its structpb form via JSON.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("failed to build struct: %w", err)
	}
	return out, nil
}

// fromStruct decodes a structpb message into v.
func fromStruct(in *structpb.Struct, v any) error {
	if in == nil {
		in = &structpb.Struct{}
	}
	data, err := protojson.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to read struct: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode message: %w", err)
	}
	return nil
}
