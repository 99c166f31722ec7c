package dto

import (
	"time"

	"github.com/rentdesk/rentdesk/internal/domain/audit"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/samber/lo"
)

type AuditLogResponse struct {
	ID         string            `json:"id"`
	ActorID    string            `json:"actor_id"`
	Action     types.AuditAction `json:"action"`
	ObjectType string            `json:"object_type"`
	ObjectID   string            `json:"object_id"`
	Changes    types.JSONMap     `json:"changes"`
	Metadata   types.JSONMap     `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// ListAuditLogsResponse is the trail of an invoice and its payments, oldest first
type ListAuditLogsResponse struct {
	Items []*AuditLogResponse `json:"items"`
}

func NewListAuditLogsResponse(logs []*audit.Log) *ListAuditLogsResponse {
	return &ListAuditLogsResponse{
		Items: lo.Map(logs, func(l *audit.Log, _ int) *AuditLogResponse {
			return &AuditLogResponse{
				ID:         l.ID,
				ActorID:    l.ActorID,
				Action:     l.Action,
				ObjectType: l.ObjectType,
				ObjectID:   l.ObjectID,
				Changes:    l.Changes,
				Metadata:   l.Metadata,
				CreatedAt:  l.CreatedAt,
			}
		}),
	}
}
