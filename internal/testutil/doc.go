// Package testutil contains helper builders and fakes used across tests to
// reduce boilerplate when constructing envelopes, recording peer traffic and
// checking TaskStore implementations against a shared contract. They are not
// intended for production usage.
package testutil
