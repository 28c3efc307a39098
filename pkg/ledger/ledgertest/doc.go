// Package ledgertest provides an in-memory ledger.ClientLibrary for tests.
//
// Fake keeps accounts and notes in memory and instruments every call:
//
//   - a non-reentrancy guard counts calls that overlap another call, which
//     must never happen when the client is driven through pkg/bridge;
//   - Hold blocks every later call until released, to fill request queues;
//   - SetDelay slows calls down, to exercise caller timeouts;
//   - FailNext and PanicNext inject failures into the next call of an op;
//   - Completed reports each finished call on a side channel.
//
// Typical use with the bridge:
//
//	fake := ledgertest.NewFake()
//	b, err := bridge.New(ctx, bridge.Config{Open: fake.Opener()})
//
// Fake is designed for tests only and performs no cryptography.
package ledgertest
