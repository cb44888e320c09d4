package middleware

import "net/http"

type Middleware func(http.Handler) http.Handler

// Chain wraps h so the first middleware listed sees the request first.
//
//	handler := Chain(mux,
//	    Recovery,        // outermost, sees every panic
//	    Config(cfg),
//	    CSRFProtection,  // innermost, runs right before the mux
//	)
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := range mws {
		h = mws[len(mws)-1-i](h)
	}
	return h
}
