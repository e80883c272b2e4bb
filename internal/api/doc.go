// Package api implements the HTTP session against the Gigas provider API.
//
// This package owns:
//   - Token acquisition and refresh against POST /token
//   - The standard header set applied to authorized requests
//   - Request execution (GET, form POST, DELETE) with JSON decoding
//   - The one-retry-per-operation response to 401 Unauthorized
//   - Wire types shared by the transaction and vm packages
//
// Authentication:
//
// A Session holds one bearer token per provider account. The token is
// acquired lazily on the first request (or eagerly via Connect) and
// refreshed whenever the provider rejects it:
//
//	session, err := api.Connect(ctx, endpoint, user, password)
//	if err != nil {
//	    return err
//	}
//
//	op := api.NewOperation("info")
//	var attrs map[string]any
//	if err := session.Get(ctx, op, "/virtual_machine/99", &attrs); err != nil {
//	    return err
//	}
//
// Operations:
//
// Every top-level client operation (create, info, delete) constructs one
// Operation and threads it through all of its requests. The Operation
// carries the operation's 401 budget: the first 401 triggers a token
// refresh and a single retry of the failed request; a second 401 anywhere
// in the same operation is surfaced as a fatal *AuthError. A fresh
// Operation therefore resets the budget.
//
// Consumer-Side Interfaces:
//
// This package does not define interfaces. Consumers (internal/transaction,
// internal/vm) define their own small client interfaces naming only the
// request methods they need; *Session satisfies them implicitly.
//
// Transport failures (DNS, connect, per-request timeout) are returned
// wrapped but otherwise untouched, so callers can unwrap to *url.Error.
package api
