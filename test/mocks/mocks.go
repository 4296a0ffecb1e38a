// test/mocks/mocks.go

// Package mocks contains generated mocks for the application's interfaces.
// To regenerate mocks, run `make mocks` from the root directory.
package mocks

//go:generate mockgen -source=../../internal/core/ports/inventory_repository.go -destination=inventory_repository_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/order_repository.go -destination=order_repository_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/supplier_repository.go -destination=supplier_repository_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/user_repository.go -destination=user_repository_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/cache.go -destination=cache_repository_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/inventory_service.go -destination=inventory_service_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/order_service.go -destination=order_service_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/supplier_service.go -destination=supplier_service_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/ports/tasks.go -destination=task_enqueuer_mock.go -package=mocks
//go:generate mockgen -source=../../internal/core/services/inventory.go -destination=tx_runner_mock.go -package=mocks TxRunner
//go:generate mockgen -source=../../internal/adapters/storage/s3.go -destination=object_store_mock.go -package=mocks
