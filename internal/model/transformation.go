package model

import (
	"time"

	"channelapi/internal/tree"
)

// TransformationStatus is the outcome recorded for one transform invocation.
type TransformationStatus string

const (
	StatusPending   TransformationStatus = "pending"
	StatusCompleted TransformationStatus = "completed"
	StatusFailed    TransformationStatus = "failed"
)

// Transformation is the append-only audit record of one transform invocation.
// SourceDocument is nil when the upload could not be parsed; TargetDocument is nil unless completed.
type Transformation struct {
	ID             string               `json:"id"`
	ChannelID      string               `json:"channel_id"`
	OwnerID        string               `json:"owner_id"`
	SourceDocument *tree.Value          `json:"source_document"`
	TargetDocument *tree.Value          `json:"target_document"`
	Status         TransformationStatus `json:"status"`
	Error          string               `json:"error,omitempty"`
	ArtifactPath   string               `json:"artifact_path,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
}

// TransformationStats summarises an owner's transformation history.
type TransformationStats struct {
	TotalTransformations     int     `json:"totalTransformations"`
	TransformationsThisMonth int     `json:"transformationsThisMonth"`
	SuccessRate              float64 `json:"successRate"`
	Processing               int     `json:"processing"`
}
