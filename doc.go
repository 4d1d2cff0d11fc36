// Package accounts implements the account lifecycle for an openSenseMap
// style sensor API: registration, credential based sign in, session token
// revocation, the password reset and email confirmation flows, and the
// authenticated profile update that couples credential changes to
// re-authentication. Persistence goes through bun repositories, session
// tokens are JWTs, and revocation is backed by an in memory set or Redis.
package accounts
