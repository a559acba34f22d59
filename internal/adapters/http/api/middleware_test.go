package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsMiddleware(t *testing.T) {
	Convey("Given a handler wrapped by the metrics middleware", t, func() {
		h := MetricsMiddleware(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}, "teapot")

		Convey("When it is called", func() {
			w := httptest.NewRecorder()
			h(w, httptest.NewRequest(http.MethodGet, "/teapot", http.NoBody))

			Convey("Then the status passes through", func() {
				So(w.Code, ShouldEqual, http.StatusTeapot)
			})
		})
	})

	Convey("Given error statuses", t, func() {
		Convey("Then they map to error types", func() {
			So(getErrorType(503), ShouldEqual, "unavailable")
			So(getErrorType(500), ShouldEqual, "server_error")
			So(getErrorType(404), ShouldEqual, "not_found")
			So(getErrorType(400), ShouldEqual, "client_error")
			So(getErrorType(302), ShouldEqual, "unknown")
		})
	})

	Convey("Given a status recorder", t, func() {
		w := httptest.NewRecorder()
		rec := &statusRecorder{ResponseWriter: w}

		Convey("When nothing is written the status is 200", func() {
			So(rec.Status(), ShouldEqual, http.StatusOK)
		})

		Convey("When only the body is written the status is 200", func() {
			_, err := rec.Write([]byte("ok"))
			So(err, ShouldBeNil)
			So(rec.Status(), ShouldEqual, http.StatusOK)
		})

		Convey("When the header is written twice the first status is kept", func() {
			rec.WriteHeader(http.StatusNotFound)
			rec.WriteHeader(http.StatusInternalServerError)
			So(rec.Status(), ShouldEqual, http.StatusNotFound)
			So(rec.Unwrap(), ShouldEqual, w)
		})
	})
}
