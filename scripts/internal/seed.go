package internal

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rentdesk/rentdesk/internal/config"
	"github.com/rentdesk/rentdesk/internal/domain/tenancy"
	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/rentdesk/rentdesk/internal/logger"
	"github.com/rentdesk/rentdesk/internal/postgres"
	"github.com/rentdesk/rentdesk/internal/repository"
	"github.com/rentdesk/rentdesk/internal/types"
	"github.com/shopspring/decimal"
)

// SeedTenancy creates a tenancy without the invite flow, for local testing
func SeedTenancy() error {
	landlordID := os.Getenv("LANDLORD_ID")
	tenantID := os.Getenv("TENANT_ID")
	if landlordID == "" || tenantID == "" {
		return ierr.NewError("landlord and tenant are required").
			WithHint("Pass -landlord-id and -tenant-id").
			Mark(ierr.ErrValidation)
	}

	baseRent := decimal.Zero
	if raw := os.Getenv("BASE_RENT"); raw != "" {
		var err error
		if baseRent, err = decimal.NewFromString(raw); err != nil {
			return ierr.WithError(err).
				WithHint("base-rent must be a number").
				Mark(ierr.ErrValidation)
		}
	}

	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	db, err := postgres.NewDB(cfg, logger.L)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	ctx = types.SetActor(ctx, types.SystemActor())

	t := tenancy.New(ctx, "prop_seed", "room_seed", landlordID, tenantID, baseRent, decimal.Zero, time.Now().UTC())
	if err := repository.NewTenancyRepository(db, logger.L).Create(ctx, t); err != nil {
		return err
	}

	logger.L.Infow("seeded tenancy", "tenancy_id", t.ID, "landlord_id", landlordID, "tenant_id", tenantID)
	fmt.Println(t.ID)
	return nil
}
