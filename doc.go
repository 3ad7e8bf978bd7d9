// Package gemauth implements the authentication and authorization core of
// the Gemstone System marketplace: password hashing, stateless JWT session
// tokens in access and refresh flavors, the account lifecycle (registration,
// professional registration, login, email verification, password reset and
// change), and the bun-backed repositories behind it.
//
// HTTP handlers live in the rest package, request guards in
// middleware/authware, and email delivery in mailer.
package gemauth
