package data

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procurehub/ui-api/internal/domain/auth"
	"github.com/procurehub/ui-api/internal/domain/model"
	"github.com/procurehub/ui-api/internal/testutil"
)

func createTestRFQ(t *testing.T, db *sql.DB, clientID string) *model.RFQ {
	t.Helper()
	repo := NewRFQRepo(db)
	budget := int64(250_000)
	rfq, err := repo.Create(context.Background(), clientID, &model.CreateRFQRequest{
		Title:       "Office chairs",
		Description: "200 ergonomic chairs, delivery to Berlin",
		Category:    "furniture",
		BudgetCents: &budget,
	})
	require.NoError(t, err)
	return rfq
}

func TestRFQRepo_CreateAndGet(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewRFQRepo(db)

		client := createTestProfile(t, db, auth.RoleClient)
		rfq := createTestRFQ(t, db, client.UserID)

		assert.NotEmpty(t, rfq.ID)
		assert.Equal(t, model.RFQStatusOpen, rfq.Status)
		assert.Equal(t, client.UserID, rfq.ClientID)
		assert.Nil(t, rfq.AwardedBidID)

		got, err := repo.GetByID(ctx, rfq.ID)
		require.NoError(t, err)
		assert.Equal(t, rfq.Title, got.Title)
	})
}

func TestRFQRepo_Create_UnknownClient(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewRFQRepo(db)
		_, err := repo.Create(context.Background(), "no-such-client", &model.CreateRFQRequest{
			Title:       "t",
			Description: "d",
			Category:    "c",
		})
		require.Error(t, err)
	})
}

func TestRFQRepo_List_Filters(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewRFQRepo(db)

		c1 := createTestProfile(t, db, auth.RoleClient)
		c2 := createTestProfile(t, db, auth.RoleClient)
		createTestRFQ(t, db, c1.UserID)
		r2 := createTestRFQ(t, db, c2.UserID)

		all, err := repo.List(ctx, model.RFQListOptions{})
		require.NoError(t, err)
		assert.Len(t, all, 2)

		mine, err := repo.List(ctx, model.RFQListOptions{ClientID: &c2.UserID})
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, r2.ID, mine[0].ID)

		closedStatus := model.RFQStatusClosed
		none, err := repo.List(ctx, model.RFQListOptions{Status: &closedStatus})
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestRFQRepo_Close(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewRFQRepo(db)

		client := createTestProfile(t, db, auth.RoleClient)
		rfq := createTestRFQ(t, db, client.UserID)

		closed, err := repo.Close(ctx, rfq.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RFQStatusClosed, closed.Status)

		// Closing twice does not match an open row.
		_, err = repo.Close(ctx, rfq.ID)
		require.ErrorIs(t, err, ErrRFQNotFound)
	})
}

func TestRFQRepo_Award(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		rfqRepo := NewRFQRepo(db)
		bidRepo := NewBidRepo(db)

		client := createTestProfile(t, db, auth.RoleClient)
		v1 := createTestProfile(t, db, auth.RoleVendor)
		v2 := createTestProfile(t, db, auth.RoleVendor)
		rfq := createTestRFQ(t, db, client.UserID)

		b1, err := bidRepo.Place(ctx, rfq.ID, v1.UserID, &model.PlaceBidRequest{AmountCents: 200_000, LeadDays: 14})
		require.NoError(t, err)
		b2, err := bidRepo.Place(ctx, rfq.ID, v2.UserID, &model.PlaceBidRequest{AmountCents: 180_000, LeadDays: 21})
		require.NoError(t, err)

		awarded, err := rfqRepo.Award(ctx, rfq.ID, b2.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RFQStatusAwarded, awarded.Status)
		require.NotNil(t, awarded.AwardedBidID)
		assert.Equal(t, b2.ID, *awarded.AwardedBidID)

		winner, err := bidRepo.GetByID(ctx, b2.ID)
		require.NoError(t, err)
		assert.Equal(t, model.BidStatusAwarded, winner.Status)

		loser, err := bidRepo.GetByID(ctx, b1.ID)
		require.NoError(t, err)
		assert.Equal(t, model.BidStatusDeclined, loser.Status)
	})
}

func TestRFQRepo_Award_BidFromOtherRFQ(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		rfqRepo := NewRFQRepo(db)
		bidRepo := NewBidRepo(db)

		client := createTestProfile(t, db, auth.RoleClient)
		vendor := createTestProfile(t, db, auth.RoleVendor)
		rfqA := createTestRFQ(t, db, client.UserID)
		rfqB := createTestRFQ(t, db, client.UserID)

		bidOnB, err := bidRepo.Place(ctx, rfqB.ID, vendor.UserID, &model.PlaceBidRequest{AmountCents: 100, LeadDays: 1})
		require.NoError(t, err)

		_, err = rfqRepo.Award(ctx, rfqA.ID, bidOnB.ID)
		require.ErrorIs(t, err, ErrBidNotFound)

		// And the mismatched award must not have touched rfqA.
		got, err := rfqRepo.GetByID(ctx, rfqA.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RFQStatusOpen, got.Status)
	})
}

func TestRFQRepo_StatusCounts(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		ctx := context.Background()
		repo := NewRFQRepo(db)

		client := createTestProfile(t, db, auth.RoleClient)
		createTestRFQ(t, db, client.UserID)
		r2 := createTestRFQ(t, db, client.UserID)
		_, err := repo.Close(ctx, r2.ID)
		require.NoError(t, err)

		counts, err := repo.StatusCounts(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), counts.Open)
		assert.Equal(t, int64(1), counts.Closed)
		assert.Equal(t, int64(0), counts.Awarded)
	})
}

func TestRFQRepo_Create_Validation(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewRFQRepo(db)
		ctx := context.Background()

		_, err := repo.Create(ctx, "client", nil)
		require.Error(t, err)

		_, err = repo.Create(ctx, "", &model.CreateRFQRequest{Title: "t", Description: "d", Category: "c"})
		require.Error(t, err)

		past := time.Now().Add(-time.Hour)
		_, err = repo.Create(ctx, "client", &model.CreateRFQRequest{
			Title: "t", Description: "d", Category: "c", ClosesAt: &past,
		})
		require.Error(t, err)
	})
}
