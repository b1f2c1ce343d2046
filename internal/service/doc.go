// Package service contains the application-specific use cases and business
// logic. It orchestrates interactions between domain objects and repositories
// (defined in internal/store) to fulfill application features.
//
// Each service focuses on one area: note lifecycle, related-note suggestions,
// memory structure assignment and learner profiles. Services receive their
// dependencies through constructor injection, apply transactional boundaries
// when operations span multiple stores, and translate store-level errors to
// application-level errors for the API layer.
//
// The service layer depends on domain entities and store interfaces, never
// on specific infrastructure implementations.
package service
