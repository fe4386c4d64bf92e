// Package model defines shared data types used across the replay pipeline.
//
// All types mirror the FastStorage capture wire format.
//
// Conventions:
//   - Prices and volumes: int64 fixed-point, 1e-8 units per whole unit
//   - Timestamps: int64, copied verbatim from the record header
//   - Decimal views: shopspring/decimal, exact conversion (never floats)
package model
