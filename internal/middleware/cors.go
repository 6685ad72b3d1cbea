package middleware

import "net/http"

// CORS 允许浏览器跨域调用，并直接响应预检请求。
// htmx 会携带 HX-* 请求头，这里一并放行。
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, HX-Request, HX-Trigger, HX-Target, HX-Current-URL")
		h.Set("Access-Control-Expose-Headers", "HX-Trigger, HX-Redirect")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
