package types

import (
	"context"
	"time"
)

// BaseModel carries the audit columns shared by persisted entities.
// Any changes to this model should be reflected in the migrations.
type BaseModel struct {
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	UpdatedBy string    `db:"updated_by" json:"updated_by"`
}

func GetDefaultBaseModel(ctx context.Context) BaseModel {
	now := time.Now().UTC()
	return BaseModel{
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: GetUserID(ctx),
		UpdatedBy: GetUserID(ctx),
	}
}

// Touch stamps the update columns
func (b *BaseModel) Touch(ctx context.Context) {
	b.UpdatedAt = time.Now().UTC()
	b.UpdatedBy = GetUserID(ctx)
}
