package twilio

import (
	"bytes"
	"encoding/xml"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/harunnryd/voicedays/pkg/errorsx"
	twilioclient "github.com/twilio/twilio-go/client"
)

// VoiceHandler answers Twilio's voice webhook with TwiML that greets the
// callee and streams the call into the agent websocket.
type VoiceHandler struct {
	cfg    Config
	logger *slog.Logger
}

func NewVoiceHandler(cfg Config, logger *slog.Logger) *VoiceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &VoiceHandler{cfg: cfg.withDefaults(), logger: logger}
}

// Path is the route the handler expects to be mounted on.
func (h *VoiceHandler) Path() string { return h.cfg.VoicePath }

func (h *VoiceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.cfg.AuthToken != "" && !h.validRequest(r) {
		h.logger.Warn("twilio_invalid_signature", "reason", string(errorsx.ReasonDial))
		w.WriteHeader(http.StatusForbidden)
		return
	}
	var b strings.Builder
	b.WriteString("<Response>")
	if greeting := strings.TrimSpace(h.cfg.VoiceGreeting); greeting != "" {
		b.WriteString("<Say>")
		b.WriteString(xmlEscape(greeting))
		b.WriteString("</Say>")
	}
	b.WriteString(`<Connect><Stream url="`)
	b.WriteString(xmlEscape(h.websocketURL(r)))
	b.WriteString(`"/></Connect></Response>`)
	w.Header().Set("Content-Type", "text/xml")
	_, _ = w.Write([]byte(b.String()))
}

func (h *VoiceHandler) websocketURL(r *http.Request) string {
	if h.cfg.PublicURL != "" {
		return "wss://" + normalizePublicURL(h.cfg.PublicURL) + h.cfg.WebsocketPath
	}
	host := r.Host
	if host == "" {
		host = h.cfg.localHost()
	}
	return "wss://" + host + h.cfg.WebsocketPath
}

func (h *VoiceHandler) validRequest(r *http.Request) bool {
	signature := r.Header.Get("X-Twilio-Signature")
	if signature == "" {
		return false
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return false
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	validator := twilioclient.NewRequestValidator(h.cfg.AuthToken)
	return validator.ValidateBody(h.requestURL(r), body, signature)
}

func (h *VoiceHandler) requestURL(r *http.Request) string {
	if h.cfg.PublicURL != "" {
		return "https://" + normalizePublicURL(h.cfg.PublicURL) + r.URL.RequestURI()
	}
	scheme := "https"
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
