package model

import "time"

// DocumentStatus : lifecycle status of a document in the signing workflow
type DocumentStatus string

const (
	StatusDraft            DocumentStatus = "draft"
	StatusPendingSignature DocumentStatus = "pending_signature"
	StatusSigned           DocumentStatus = "signed"
	StatusRejected         DocumentStatus = "rejected"
)

// allowedTransitions : edges of the workflow graph, terminal states have none
var allowedTransitions = map[DocumentStatus][]DocumentStatus{
	StatusDraft:            {StatusPendingSignature, StatusSigned, StatusRejected},
	StatusPendingSignature: {StatusSigned, StatusRejected},
}

// Valid reports whether s is one of the four known statuses.
func (s DocumentStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPendingSignature, StatusSigned, StatusRejected:
		return true
	}
	return false
}

// IsTerminal : signed and rejected accept no further sign/reject actions
func (s DocumentStatus) IsTerminal() bool {
	return s == StatusSigned || s == StatusRejected
}

// CanTransition reports whether the graph has an edge from s to next.
func (s DocumentStatus) CanTransition(next DocumentStatus) bool {
	for _, candidate := range allowedTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// SignableStatuses : statuses from which a sign or reject action may start
func SignableStatuses() []DocumentStatus {
	return []DocumentStatus{StatusDraft, StatusPendingSignature}
}

type Document struct {
	UUID        string         `db:"uuid" json:"uuid"`
	OwnerUUID   string         `db:"owner_uuid" json:"owner_uuid"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description"`
	StoragePath string         `db:"storage_path" json:"storage_path"`
	SignedPath  *string        `db:"signed_path" json:"signed_path,omitempty"`
	MimeType    string         `db:"mime_type" json:"mime_type"`
	Extension   string         `db:"extension" json:"extension"`
	SizeBytes   int64          `db:"size_bytes" json:"size_bytes"`
	Sha256      string         `db:"sha256" json:"sha256"`
	PageCount   int            `db:"page_count" json:"page_count"`
	Status      DocumentStatus `db:"status" json:"status"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// CurrentPath : the stamped artifact once it exists, otherwise the uploaded source
func (d *Document) CurrentPath() string {
	if d.SignedPath != nil && *d.SignedPath != "" {
		return *d.SignedPath
	}
	return d.StoragePath
}

// DocumentState : status read model used for re-sync after errors
type DocumentState struct {
	DocumentUUID string              `json:"document_uuid"`
	Status       DocumentStatus      `json:"status"`
	Signatures   []DocumentSignature `json:"signatures"`
}
