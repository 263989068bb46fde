// Package shell holds the pieces every loan use case shares outside the pure core:
// handler results, retry with exponential backoff, error classification, and the
// observability helpers the command and query wrappers are built from.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would be
// called the 'infrastructure' layer.
package shell
