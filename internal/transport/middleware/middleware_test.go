package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Middleware", func() {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	Describe("RecoveryMiddleware", func() {
		It("renders a panic as an internal error envelope", func() {
			h := RecoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				panic("boom")
			}))
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			var body map[string]map[string]interface{}
			Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
			Expect(body["error"]["type"]).To(Equal("INTERNAL_ERROR"))
			Expect(body["error"]["message"]).NotTo(ContainSubstring("boom"))
		})
	})

	Describe("RequestID", func() {
		It("echoes a caller supplied trace id", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(TraceHeader, "trace-1")
			w := httptest.NewRecorder()
			RequestID(ok).ServeHTTP(w, req)
			Expect(w.Header().Get(TraceHeader)).To(Equal("trace-1"))
		})

		It("generates one otherwise", func() {
			w := httptest.NewRecorder()
			RequestID(ok).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			Expect(w.Header().Get(TraceHeader)).NotTo(BeEmpty())
		})
	})

	Describe("CORS", func() {
		It("answers preflight for allowed origins only", func() {
			h := CORS("https://app.example.com")(ok)

			req := httptest.NewRequest(http.MethodOptions, "/api/v1/assets", nil)
			req.Header.Set("Origin", "https://app.example.com")
			req.Header.Set("Access-Control-Request-Method", "POST")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusNoContent))
			Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("https://app.example.com"))

			req.Header.Set("Origin", "https://evil.example.com")
			w = httptest.NewRecorder()
			h.ServeHTTP(w, req)
			Expect(w.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
		})
	})

	Describe("filterBody", func() {
		It("masks personal and secret fields at any depth", func() {
			out := filterBody("application/json", []byte(`{"first_name":"Ana","badge_id":"B-1","nested":[{"health_card_id":"H-9"}]}`))
			Expect(out).To(ContainSubstring(`"first_name":"Ana"`))
			Expect(out).NotTo(ContainSubstring("B-1"))
			Expect(out).NotTo(ContainSubstring("H-9"))
		})

		It("does not log binary downloads", func() {
			out := filterBody("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", []byte{0x50, 0x4b, 0x03})
			Expect(out).To(HavePrefix("[application/vnd"))
		})
	})
})
