// Package auth keeps the bearer token the backend issued and attaches it to outgoing requests.
//
// Authorization policy lives on the backend. The client only stores the token ([Store]),
// decodes its claims for display ([Decode]), attaches it ([Transport]) and forgets it when
// the backend answers 401.
//
// # Invalidation
//
// A 401 from any authorized request calls [Store.Invalidate], which clears the token from
// memory and disk and notifies every [Store.OnInvalidate] listener. The Q&A client listens
// so that an expired credential also tears down its socket.
package auth
