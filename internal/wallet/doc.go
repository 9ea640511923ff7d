// Package wallet parses wallet identities and checks signatures made by them.
//
// Two schemes are recognised from the identity text alone:
//
//   - Solana: a base58 encoded 32-byte ed25519 public key. Signatures are
//     64-byte ed25519 detached signatures, base58 (or standard base64) encoded.
//   - Ethereum: a 0x-prefixed 20-byte address. Signatures are 65-byte
//     r||s||v personal_sign (EIP-191) signatures, 0x-hex encoded.
//
// The package also holds the client-side helpers (key generation and signing)
// used by the CLI and by tests to play the wallet's part of the handshake.
package wallet
