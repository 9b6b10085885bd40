// Package devseed populates a development database with demo marketplace
// data: one profile per role, approved verifications, a couple of open RFQs,
// and a vendor bid.
package devseed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/procurehub/ui-api/internal/data"
	domainauth "github.com/procurehub/ui-api/internal/domain/auth"
	"github.com/procurehub/ui-api/internal/domain/model"
	"github.com/procurehub/ui-api/internal/service"
)

// Services bundles the dependencies needed for development seeding.
type Services struct {
	DB            *sql.DB
	profiles      data.ProfileStore
	verifications *service.VerificationService
	rfqs          *service.RFQService
	bids          *service.BidService
}

// NewServices constructs all required services for seeding using the provided DB.
func NewServices(db *sql.DB) Services {
	profiles := data.NewProfileStore(data.NewProfileRepo(db))
	return Services{
		DB:       db,
		profiles: profiles,
		verifications: service.NewVerificationService(service.VerificationServiceOptions{
			Repo:     data.NewVerificationRepo(db),
			Profiles: profiles,
		}),
		rfqs: service.NewRFQService(service.RFQServiceOptions{
			Repo:     data.NewRFQRepo(db),
			Profiles: profiles,
		}),
		bids: service.NewBidService(service.BidServiceOptions{
			Repo:     data.NewBidRepo(db),
			RFQs:     data.NewRFQRepo(db),
			Profiles: profiles,
		}),
	}
}

type seedUser struct {
	profile domainauth.Profile
	verify  *model.SubmitVerificationRequest
}

func seedUsers() []seedUser {
	reg := "HRB-112233"
	return []seedUser{
		{
			profile: domainauth.Profile{
				UserID:      "seed-admin",
				Email:       "admin@procurehub.dev",
				DisplayName: "Seed Admin",
				Role:        domainauth.RoleAdmin,
			},
		},
		{
			profile: domainauth.Profile{
				UserID:      "seed-client",
				Email:       "client@procurehub.dev",
				DisplayName: "Seed Client",
				Role:        domainauth.RoleClient,
			},
			verify: &model.SubmitVerificationRequest{
				LegalName:    "Acme Retail GmbH",
				Country:      "DE",
				RegNumber:    &reg,
				ContactEmail: "finance@acme-retail.example",
			},
		},
		{
			profile: domainauth.Profile{
				UserID:      "seed-vendor",
				Email:       "vendor@procurehub.dev",
				DisplayName: "Seed Vendor",
				Role:        domainauth.RoleVendor,
			},
			verify: &model.SubmitVerificationRequest{
				LegalName:    "Nordic Packaging AS",
				Country:      "NO",
				ContactEmail: "sales@nordicpackaging.example",
			},
		},
	}
}

// Run executes the full development seeding workflow against the provided DB.
// Seeding is idempotent at the profile level; RFQs and bids are only created
// when the client has none yet.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	for _, u := range seedUsers() {
		if err := seedOneUser(ctx, svcs, u, logger); err != nil {
			return err
		}
	}

	return seedMarketplace(ctx, svcs, logger)
}

func seedOneUser(ctx context.Context, svcs Services, u seedUser, logger *slog.Logger) error {
	if _, err := svcs.profiles.Upsert(ctx, u.profile); err != nil {
		return fmt.Errorf("upsert profile %s: %w", u.profile.UserID, err)
	}
	logger.InfoContext(ctx, "seeded profile", "user_id", u.profile.UserID, "role", u.profile.Role)

	if u.verify == nil {
		return nil
	}

	existing, err := svcs.verifications.GetForUser(ctx, u.profile.UserID)
	if err != nil {
		return fmt.Errorf("check verification %s: %w", u.profile.UserID, err)
	}
	if existing != nil {
		return nil
	}

	sub, err := svcs.verifications.Submit(ctx, u.profile.UserID, u.profile.Role, *u.verify)
	if err != nil {
		return fmt.Errorf("submit verification %s: %w", u.profile.UserID, err)
	}
	if _, err = svcs.verifications.Review(ctx, sub.ID, "seed-admin", model.ReviewVerificationRequest{
		Approve: true,
	}); err != nil {
		return fmt.Errorf("approve verification %s: %w", u.profile.UserID, err)
	}
	logger.InfoContext(ctx, "seeded approved verification", "user_id", u.profile.UserID)
	return nil
}

func seedMarketplace(ctx context.Context, svcs Services, logger *slog.Logger) error {
	clientSess := domainauth.Session{UserID: "seed-client", Role: domainauth.RoleClient}
	vendorSess := domainauth.Session{UserID: "seed-vendor", Role: domainauth.RoleVendor}

	existing, err := svcs.rfqs.List(ctx, clientSess, model.RFQListOptions{})
	if err != nil {
		return fmt.Errorf("list RFQs: %w", err)
	}
	if len(existing) > 0 {
		logger.InfoContext(ctx, "seed RFQs already present", "count", len(existing))
		return nil
	}

	budget := int64(250_000)
	closes := time.Now().Add(14 * 24 * time.Hour)
	rfq, err := svcs.rfqs.Create(ctx, clientSess, model.CreateRFQRequest{
		Title:       "Corrugated shipping boxes, Q4 volume",
		Description: "40x30x30cm double-wall boxes, approx. 50k units over the quarter.",
		Category:    "packaging",
		BudgetCents: &budget,
		ClosesAt:    &closes,
	})
	if err != nil {
		return fmt.Errorf("create RFQ: %w", err)
	}

	if _, err = svcs.rfqs.Create(ctx, clientSess, model.CreateRFQRequest{
		Title:       "Pallet wrap film, annual contract",
		Description: "23-micron stretch film, machine grade.",
		Category:    "packaging",
	}); err != nil {
		return fmt.Errorf("create second RFQ: %w", err)
	}

	note := "Includes delivery to two warehouses."
	if _, err = svcs.bids.Place(ctx, vendorSess, rfq.ID, model.PlaceBidRequest{
		AmountCents: 238_000,
		LeadDays:    21,
		Note:        &note,
	}); err != nil {
		return fmt.Errorf("place bid: %w", err)
	}

	logger.InfoContext(ctx, "seeded marketplace data", "rfq_id", rfq.ID)
	return nil
}
