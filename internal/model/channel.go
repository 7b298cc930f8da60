package model

import (
	"time"

	"channelapi/internal/tree"
)

// FieldMapping copies the value found at SourcePath in the source document to TargetPath in the result.
type FieldMapping struct {
	SourcePath tree.Path `json:"sourcePath"`
	TargetPath tree.Path `json:"targetPath"`
}

// Channel is a stored conversion definition owned by a single user.
// Mappings are applied in slice order; a later mapping to the same target wins.
type Channel struct {
	ID             string         `json:"id"`
	OwnerID        string         `json:"owner_id"`
	Name           string         `json:"name"`
	Description    *string        `json:"description,omitempty"`
	SourceFormat   Format         `json:"sourceFormat"`
	TargetFormat   Format         `json:"targetFormat"`
	SourceTemplate *tree.Value    `json:"sourceTemplate,omitempty"`
	TargetTemplate *tree.Value    `json:"targetTemplate"`
	Mappings       []FieldMapping `json:"mappings"`
	CreatedAt      time.Time      `json:"created_at"`
}
