// Package spies provides test doubles that record observability and mail calls for inspection.
package spies
