package mocks

//go:generate mockgen -destination=mock_gateway.go -package=mocks github.com/tbeaudouin05/quitcoach/api/services/stripe/gateway StripeGateway
//go:generate mockgen -destination=mock_store.go -package=mocks github.com/tbeaudouin05/quitcoach/api/services/stripe/app ProfileStore
