package mocks

//go:generate mockgen -destination=./mock_fetcher.go -package=mocks github.com/rxtech-lab/argo-ingest/pkg/marketdata/provider Fetcher
//go:generate mockgen -destination=./mock_store.go -package=mocks github.com/rxtech-lab/argo-ingest/pkg/marketdata/store Store
