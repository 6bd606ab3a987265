// Package mocks provides gomock implementations of the domain ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=food_provider_mock.go foodpoints/internal/domain FoodProvider
