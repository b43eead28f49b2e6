package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/CeoatNorthstar/openCern/internal/adapters/http/api"
	"github.com/CeoatNorthstar/openCern/internal/adapters/output"
	"github.com/CeoatNorthstar/openCern/pkg/logger"
	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"
)

func testDocument(n int) *output.Document {
	doc := &output.Document{
		Metadata: output.Metadata{
			SourceFile:     "run7.root",
			Experiment:     "CMS",
			TreeName:       "Events",
			TotalScanned:   int64(n * 2),
			FilteredEvents: n,
			Processor:      "Go (groot)",
			ParticleTypes:  []string{"jet", "muon"},
		},
		Events: make([]output.Event, n),
	}
	for i := range doc.Events {
		doc.Events[i] = output.Event{
			Index:      int64(i),
			Experiment: "CMS",
			HT:         output.Float(100 - i),
			Particles:  []output.Particle{},
		}
	}
	return doc
}

func newMux(doc *output.Document) *http.ServeMux {
	mux := http.NewServeMux()
	srv := api.NewServer(doc, api.WithInterval(time.Millisecond), api.WithLogger(logger.Nop()))
	srv.Register(context.Background(), mux)
	return mux
}

func get(mux *http.ServeMux, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", target, http.NoBody)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

type page struct {
	Offset int            `json:"offset"`
	Limit  int            `json:"limit"`
	Total  int            `json:"total"`
	Events []output.Event `json:"events"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func TestServer_Register(t *testing.T) {
	Convey("Given a server over a loaded document", t, func() {
		mux := newMux(testDocument(5))

		Convey("Then health endpoint should expose metrics", func() {
			w := get(mux, "/healthz")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "opencern_converter")
		})

		Convey("Then metadata should be returned as JSON", func() {
			w := get(mux, "/metadata")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")

			var md output.Metadata
			So(json.Unmarshal(w.Body.Bytes(), &md), ShouldBeNil)
			So(md.SourceFile, ShouldEqual, "run7.root")
			So(md.FilteredEvents, ShouldEqual, 5)
			So(md.ParticleTypes, ShouldResemble, []string{"jet", "muon"})
		})

		Convey("Then non-GET methods should be rejected", func() {
			for _, path := range []string{"/healthz", "/metadata", "/events"} {
				req := httptest.NewRequest("POST", path, http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			}
		})
	})
}

func TestEventsHandler(t *testing.T) {
	Convey("Given a document with 5 events", t, func() {
		mux := newMux(testDocument(5))

		Convey("When no paging parameters are given", func() {
			w := get(mux, "/events")

			Convey("Then every event should be returned in order", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var p page
				So(json.Unmarshal(w.Body.Bytes(), &p), ShouldBeNil)
				So(p.Offset, ShouldEqual, 0)
				So(p.Limit, ShouldEqual, 100)
				So(p.Total, ShouldEqual, 5)
				So(len(p.Events), ShouldEqual, 5)
				So(p.Events[0].Index, ShouldEqual, int64(0))
				So(p.Events[4].Index, ShouldEqual, int64(4))
			})
		})

		Convey("When requesting a middle page", func() {
			w := get(mux, "/events?offset=1&limit=2")

			Convey("Then only that window should be returned", func() {
				var p page
				So(json.Unmarshal(w.Body.Bytes(), &p), ShouldBeNil)
				So(len(p.Events), ShouldEqual, 2)
				So(p.Events[0].Index, ShouldEqual, int64(1))
				So(p.Events[1].HT, ShouldEqual, output.Float(98))
			})
		})

		Convey("When the window runs past the end", func() {
			w := get(mux, "/events?offset=4&limit=10")
			var p page
			So(json.Unmarshal(w.Body.Bytes(), &p), ShouldBeNil)
			So(len(p.Events), ShouldEqual, 1)
		})

		Convey("When the offset is beyond the last event", func() {
			w := get(mux, "/events?offset=50")

			Convey("Then an empty array should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"events":[]`)
			})
		})

		Convey("When the parameters are invalid", func() {
			cases := map[string]string{
				"/events?offset=-1":  "bad_request",
				"/events?offset=abc": "bad_request",
				"/events?limit=0":    "bad_request",
				"/events?limit=x":    "bad_request",
				"/events?limit=1001": "limit_exceeded",
			}
			for target, code := range cases {
				w := get(mux, target)
				So(w.Code, ShouldEqual, http.StatusBadRequest)

				var e apiError
				So(json.Unmarshal(w.Body.Bytes(), &e), ShouldBeNil)
				So(e.Code, ShouldEqual, code)
				So(e.Message, ShouldNotBeEmpty)
			}
		})
	})

	Convey("Given a document without events", t, func() {
		mux := newMux(&output.Document{})

		Convey("Then the page should be empty, not null", func() {
			w := get(mux, "/events")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"total":0`)
			So(w.Body.String(), ShouldContainSubstring, `"events":[]`)
		})
	})
}

func TestStreamHandler(t *testing.T) {
	Convey("Given a running server with 3 events", t, func() {
		ts := httptest.NewServer(newMux(testDocument(3)))
		defer ts.Close()
		url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/stream"

		Convey("When a client connects", func() {
			conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
			So(err, ShouldBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusSwitchingProtocols)
			defer conn.Close()

			Convey("Then it should receive each event once then a normal close", func() {
				for i := 0; i < 3; i++ {
					var ev output.Event
					So(conn.ReadJSON(&ev), ShouldBeNil)
					So(ev.Index, ShouldEqual, int64(i))
					So(ev.Experiment, ShouldEqual, "CMS")
				}

				_, _, err := conn.ReadMessage()
				So(websocket.IsCloseError(err, websocket.CloseNormalClosure), ShouldBeTrue)
			})
		})

		Convey("When a plain HTTP request hits the stream", func() {
			resp, err := http.Get(ts.URL + "/stream")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			Convey("Then the upgrade should be refused", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})
	})

	Convey("Given a server whose context is cancelled", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		mux := http.NewServeMux()
		srv := api.NewServer(testDocument(10), api.WithInterval(time.Hour), api.WithLogger(logger.Nop()))
		srv.Register(ctx, mux)
		ts := httptest.NewServer(mux)
		defer ts.Close()

		conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/stream", nil)
		So(err, ShouldBeNil)
		defer conn.Close()

		Convey("Then the stream should close with going away", func() {
			var ev output.Event
			So(conn.ReadJSON(&ev), ShouldBeNil)
			cancel()

			_, _, err := conn.ReadMessage()
			So(websocket.IsCloseError(err, websocket.CloseGoingAway), ShouldBeTrue)
		})
	})
}

func ExampleNewServer() {
	mux := http.NewServeMux()
	api.NewServer(&output.Document{}, api.WithLogger(logger.Nop())).Register(context.Background(), mux)

	req := httptest.NewRequest("GET", "/events?limit=1", http.NoBody)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	fmt.Print(w.Body.String())
	// Output: {"offset":0,"limit":1,"total":0,"events":[]}
}
