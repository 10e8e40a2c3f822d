// Package sync contains the inventory synchronization bounded context.
// It owns the integration lifecycle, the sync-run ledger shapes, and the
// adapter ports that normalize heterogeneous external stock sources.
//
// Key concepts:
//   - Integration: one branch's connection to one external system
//   - SyncRun: one execution of the engine, finalized exactly once
//   - CanonicalStockItem: normalized adapter output, never persisted
//   - StockAdapter / PushAdapter: ports implemented in infrastructure
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package sync
