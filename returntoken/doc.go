// Package returntoken encodes and verifies the token printed as a QR code on a bike.
//
// A token carries the asset serial and the instant it was issued, XOR-ed against a
// shared key and protected by an additive checksum. It reproduces the serial on decode
// and looks different every time it is rendered. It is not a credential: the key is
// shared, nothing is signed and no ledger of issued tokens is kept, so a saved image
// can be replayed. Hardening (key rotation, single-use redemption, signatures) is an
// extension point and deliberately not implemented.
package returntoken
