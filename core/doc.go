// Package core contains the domain model of the bike loan lifecycle:
// loans, assets, the authoritative transition table and the facility's
// opening schedule that decides when an active loan becomes late.
//
// Everything in this package is pure. Nothing here talks to a database,
// a mail provider or a clock; callers hand in "now" explicitly so that
// every driver (HTTP request, scheduled sweep, change feed) reaches the
// same verdict for the same loan at the same instant.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'domain' layer.
package core
