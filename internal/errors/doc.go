// Package errors provides the coded, actionable errors the wayfinder tools
// print.
//
// Library packages (routepath, history, router, remote) return plain
// sentinel errors. The CLI and dev server translate them into *Error values
// carrying a code from the registry, an explanation, and a hint:
//
//	err := errors.New(errors.CodeConfigInvalid).
//	    WithLocation("wayfinder.json", 4, 17).
//	    WithSuggestion("Route paths must start with \"/\"").
//	    Wrap(cause)
//
//	fmt.Print(err.Format())
//	// ERROR W003: Invalid configuration
//	//
//	//   wayfinder.json:4:17
//	//
//	//       3 │   "routes": [
//	//   →   4 │     {"path": "users/:id:"},
//	//         │                 ^
//	//       5 │   ],
//	//
//	//   Hint: Route paths must start with "/"
//
// # Error Codes
//
//	W001  invalid route pattern
//	W002  configuration not found
//	W003  invalid configuration
//	W004  navigation failed
//	W005  remote store disconnected
//	W006  S3 fetch failed
package errors
