// Package mocks provides mock implementations for testing the marketplace services.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for our repository interfaces.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
// Hand-written auth fakes (memory session/profile stores, static role mapper) live in the auth subpackage.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockRepo := mocks.NewMockRFQRepository(ctrl)
//	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(rfq, nil)
package mocks

// Generate mock for RFQRepository interface from internal/service package.
// This creates MockRFQRepository with methods for all RFQRepository interface methods:
// Create, GetByID, List, Close, Award, StatusCounts
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=rfq_repository_mock.go github.com/procurehub/ui-api/internal/service RFQRepository

// Generate mock for BidRepository interface from internal/service package.
// This creates MockBidRepository with methods for all BidRepository interface methods:
// Place, GetByID, List, Withdraw
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=bid_repository_mock.go github.com/procurehub/ui-api/internal/service BidRepository

// Generate mock for VerificationRepository interface from internal/service package.
// This creates MockVerificationRepository with methods for all VerificationRepository interface methods:
// Submit, GetByUser, GetByID, Review, List
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=verification_repository_mock.go github.com/procurehub/ui-api/internal/service VerificationRepository

// Generate mock for AccessEventRepository interface from internal/service package.
// This creates MockAccessEventRepository with methods for all AccessEventRepository interface methods:
// Insert, List
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=access_event_repository_mock.go github.com/procurehub/ui-api/internal/service AccessEventRepository
