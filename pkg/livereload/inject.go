package livereload

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
)

// clientScript reconnects with a small backoff so a previewd restart picks
// existing tabs back up.
const clientScript = `(function () {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  function connect() {
    var ws = new WebSocket(proto + location.host + "` + EndpointPath + `");
    ws.onmessage = function (ev) {
      if (ev.data === "` + reloadMessage + `") {
        location.reload();
      }
    };
    ws.onclose = function () {
      setTimeout(connect, 1000);
    };
  }
  connect();
})();
`

// scriptTag is appended to served HTML pages by the injection middleware.
const scriptTag = `<script src="` + ScriptPath + `"></script>`

// Handler returns the websocket endpoint handler.
func (r *Reloader) Handler() http.Handler {
	return r.hub
}

// ScriptHandler serves the live-reload client script.
func (r *Reloader) ScriptHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write([]byte(clientScript))
	})
}

// InjectMiddleware rewrites 200 text/html responses to include the client
// script. Other responses pass through untouched.
func InjectMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			iw := &injectWriter{ResponseWriter: w}
			next.ServeHTTP(iw, r)
			iw.flush()
		})
	}
}

// injectWriter delays the header write until the content type is known.
// HTML bodies are buffered so the script tag can be added and the
// Content-Length corrected; everything else streams straight through.
type injectWriter struct {
	http.ResponseWriter
	status  int
	decided bool
	html    bool
	buf     bytes.Buffer
}

func (w *injectWriter) WriteHeader(status int) {
	if w.decided {
		return
	}
	w.decided = true
	w.status = status

	ct := w.Header().Get("Content-Type")
	w.html = status == http.StatusOK && strings.HasPrefix(ct, "text/html")
	if !w.html {
		w.ResponseWriter.WriteHeader(status)
	}
}

func (w *injectWriter) Write(b []byte) (int, error) {
	if !w.decided {
		w.WriteHeader(http.StatusOK)
	}
	if w.html {
		return w.buf.Write(b)
	}
	return w.ResponseWriter.Write(b)
}

// flush emits the buffered HTML body with the script tag injected.
func (w *injectWriter) flush() {
	if !w.html {
		return
	}
	body := injectScript(w.buf.Bytes())
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.ResponseWriter.WriteHeader(w.status)
	_, _ = w.ResponseWriter.Write(body)
}

// injectScript places the script tag before </body>, or appends it when the
// page has no closing body tag.
func injectScript(body []byte) []byte {
	idx := bytes.LastIndex(bytes.ToLower(body), []byte("</body>"))
	if idx < 0 {
		return append(body, []byte("\n"+scriptTag+"\n")...)
	}
	out := make([]byte, 0, len(body)+len(scriptTag)+1)
	out = append(out, body[:idx]...)
	out = append(out, []byte(scriptTag+"\n")...)
	out = append(out, body[idx:]...)
	return out
}
