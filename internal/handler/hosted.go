package handler

import (
	"crypto/rand"
	"encoding/base64"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cardvault/gateway/internal/middleware"
)

// HostedHandler serves the isolated card-entry form. The form talks to the
// vault directly and reports back to its embedder with postMessage, so raw
// card data never reaches the embedding page.
type HostedHandler struct {
	logger *slog.Logger
}

// NewHostedHandler creates a new HostedHandler.
func NewHostedHandler(logger *slog.Logger) *HostedHandler {
	return &HostedHandler{logger: logger}
}

type hostedPage struct {
	Nonce        string
	ParentOrigin string
	TokenizePath string
}

// Fields handles GET /hosted/fields.
func (h *HostedHandler) Fields(w http.ResponseWriter, r *http.Request) {
	nonce, err := newNonce()
	if err != nil {
		h.logger.Error("failed to generate script nonce", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}

	middleware.HostedPageHeaders(w, nonce)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	page := hostedPage{
		Nonce:        nonce,
		ParentOrigin: requestOrigin(r),
		TokenizePath: "/vault/tokenize",
	}
	if err := hostedTemplate.Execute(w, page); err != nil {
		h.logger.Error("failed to render hosted fields", slog.String("error", err.Error()))
	}
}

// requestOrigin is the origin the page was served from. The form only
// talks to an embedder on that same origin.
func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		first, _, _ := strings.Cut(proto, ",")
		if p := strings.ToLower(strings.TrimSpace(first)); p == "http" || p == "https" {
			scheme = p
		}
	}
	return scheme + "://" + r.Host
}

func newNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

var hostedTemplate = template.Must(template.New("hosted").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>Hosted Fields</title>
<style nonce="{{.Nonce}}">
body{font-family:system-ui,sans-serif;margin:0;padding:12px}
.row{margin-bottom:8px}
.split{display:flex;gap:8px}
input{padding:8px;border:1px solid #d1d5db;border-radius:6px;width:100%}
.error{color:#b91c1c;font-size:12px;min-height:16px}
button{padding:8px 12px;border:none;background:#111827;color:#fff;border-radius:6px;cursor:pointer}
</style>
</head>
<body>
<div class="row"><input id="pan" inputmode="numeric" autocomplete="off" placeholder="Card number"></div>
<div class="row split">
<input id="exp" inputmode="numeric" autocomplete="off" placeholder="MM/YY">
<input id="cvv" inputmode="numeric" autocomplete="off" placeholder="CVV">
</div>
<div id="err" class="error"></div>
<button id="tokenize" type="button">Tokenize</button>
<script nonce="{{.Nonce}}">
(function () {
  var parentOrigin = {{.ParentOrigin}};
  var tokenizePath = {{.TokenizePath}};
  var errEl = document.getElementById('err');
  var busy = false;

  function post(type, payload) {
    if (window.parent === window) return;
    window.parent.postMessage({ type: type, payload: payload }, parentOrigin);
  }

  function fail(message) {
    errEl.textContent = message;
    post('error', { message: message });
  }

  function luhnOk(n) {
    var sum = 0, alt = false;
    for (var i = n.length - 1; i >= 0; i--) {
      var d = n.charCodeAt(i) - 48;
      if (alt) { d *= 2; if (d > 9) d -= 9; }
      sum += d;
      alt = !alt;
    }
    return n.length > 0 && sum % 10 === 0;
  }

  function parseExpiry(value) {
    var parts = value.split('/');
    if (parts.length !== 2) return null;
    var month = parseInt(parts[0], 10);
    var yy = parts[1].trim();
    if (!/^\d{2}(\d{2})?$/.test(yy)) return null;
    var year = parseInt(yy.length === 2 ? '20' + yy : yy, 10);
    if (!(month >= 1 && month <= 12)) return null;
    var now = new Date();
    var end = new Date(year, month, 1);
    if (end <= now) return null;
    return { month: month, year: year };
  }

  async function tokenize() {
    if (busy) return;
    errEl.textContent = '';

    var pan = (document.getElementById('pan').value || '').replace(/\D/g, '');
    var expiry = parseExpiry(document.getElementById('exp').value || '');
    var cvv = (document.getElementById('cvv').value || '').trim();

    if (pan.length < 13 || pan.length > 19 || !luhnOk(pan)) return fail('Invalid card number');
    if (!expiry) return fail('Invalid expiration');
    if (!/^\d{3,4}$/.test(cvv)) return fail('Invalid CVV');

    busy = true;
    try {
      var res = await fetch(tokenizePath, {
        method: 'POST',
        headers: { 'Content-Type': 'application/json' },
        body: JSON.stringify({ pan: pan, expMonth: expiry.month, expYear: expiry.year })
      });
      var data = await res.json();
      if (!res.ok) return fail(data.error || 'Tokenization failed');
      document.getElementById('pan').value = '';
      document.getElementById('cvv').value = '';
      post('vaultedToken', { token: data.token });
    } catch (e) {
      fail('Network error');
    } finally {
      busy = false;
    }
  }

  document.getElementById('tokenize').addEventListener('click', tokenize);
  window.addEventListener('message', function (evt) {
    if (evt.origin !== parentOrigin) return;
    if (evt.data && evt.data.type === 'tokenize') tokenize();
  });
  post('hostedReady', {});
})();
</script>
</body>
</html>
`))
