// Package changefeed turns loan status changes published by the store into late notice dispatches.
//
// PostgreSQL announces every loan that becomes Overdue on the loan_overdue channel through a trigger.
// PGXListener and PQListener follow that channel, ChannelListener follows the in-memory engine.
// Delivery is at-least-once: after every (re)connect a listener emits a Resync change, on which
// the Pump runs a full notification sweep to catch what was missed while disconnected.
package changefeed
