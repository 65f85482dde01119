// Package userauth provides the account-authentication core: signup and
// email activation, credential verification, role assignment, and a
// two-tier token scheme in which a long-lived main token is exchanged for
// short-lived session tokens.
//
// Token lifecycle:
//   - Every token embeds the password epoch, the millisecond timestamp of
//     the user's most recent password change. A session token is accepted
//     only while its embedded epoch matches the live record, so changing a
//     password silently invalidates every outstanding token without a
//     revocation list.
//   - TokenCodec is pure; it never touches storage. Accounts resolves the
//     live epoch through a UserStore and delegates to the codec.
//
// Collaborators:
//   - UserStore is the persistence boundary. A bun-backed implementation
//     ships in repo_users.go; any store with read-after-write consistency
//     will do.
//   - Notifier delivers activation, welcome, and recovery email. Delivery
//     is best-effort: failures surface as warnings on the operation result
//     and never roll back the primary write.
//
// Activity sinks:
//   - ActivitySink is a light-weight event emitter describing signups,
//     activations, logins, password changes, and role updates. Sinks run
//     best-effort (errors are logged) so you can forward to a database or
//     queue without blocking authentication.
package userauth
