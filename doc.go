// Package accounts provides a multi tenant account service: account signup
// and login with bcrypt hashed passwords, bearer token issuance and
// validation, and per account sub user management.
//
// Tenancy:
//   - Every SubUser belongs to exactly one Account. Repository operations
//     take the owning account id and scope every query with it, so one
//     tenant can never read or mutate another tenant's records, they only
//     ever see a not found result.
//
// Tokens:
//   - TokenService signs HS256 JWTs carrying the account id in both the
//     subject and uid claims. Tokens are stateless; logout is an
//     acknowledgement and clients discard the token locally.
//
// HTTP:
//   - Server mounts the JSON API on fiber with the jwtware middleware
//     guarding the dashboard routes. See NewServer and APIController.
package accounts
