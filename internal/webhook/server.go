// Package webhook receives the gateway's inbound-message and delivery-receipt
// callbacks.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"nexmosms/internal/constants"
	apperrors "nexmosms/internal/errors"
	"nexmosms/internal/metrics"
	"nexmosms/internal/middleware"
	"nexmosms/internal/models"
	"nexmosms/internal/privacy"
	"nexmosms/internal/tracing"
	"nexmosms/internal/validation"
	"nexmosms/pkg/nexmo"
	"nexmosms/pkg/nexmo/types"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// MessageHandler records inbound messages and answers them.
// *nexmo.MessageClient satisfies it.
type MessageHandler interface {
	InboundText(values types.Values) bool
	Inbound() (types.InboundMessage, bool)
	Reply(ctx context.Context, message string) (*types.SendResult, error)
}

// ReceiptFunc is called for every delivery receipt the server accepts.
type ReceiptFunc func(types.Receipt)

type Server struct {
	router    *mux.Router
	logger    *logrus.Logger
	handler   MessageHandler
	cfg       models.ServerConfig
	onReceipt ReceiptFunc
	server    *http.Server

	// inboundMu keeps record-then-reply atomic across concurrent callbacks
	inboundMu sync.Mutex

	mu        sync.RWMutex
	autoReply string
}

func NewServer(cfg models.ServerConfig, handler MessageHandler, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	s := &Server{
		router:    mux.NewRouter(),
		logger:    logger,
		handler:   handler,
		cfg:       cfg,
		autoReply: cfg.AutoReply,
	}

	s.setupRoutes()
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  constants.DefaultServerReadTimeoutSec * time.Second,
		WriteTimeout: constants.DefaultServerWriteTimeoutSec * time.Second,
		IdleTimeout:  constants.DefaultServerIdleTimeoutSec * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.ObservabilityMiddleware(s.logger))

	s.router.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)
	s.router.HandleFunc("/metrics", s.handleMetrics()).Methods(http.MethodGet)

	s.router.HandleFunc(s.cfg.InboundPath, s.handleInbound()).Methods(http.MethodGet, http.MethodPost)
	s.router.HandleFunc(s.cfg.ReceiptPath, s.handleReceipt()).Methods(http.MethodGet, http.MethodPost)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// SetAutoReply replaces the auto-reply text; empty disables it.
func (s *Server) SetAutoReply(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoReply = text
}

func (s *Server) currentAutoReply() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.autoReply
}

// OnReceipt registers the receipt callback. Call before Start.
func (s *Server) OnReceipt(fn ReceiptFunc) {
	s.onReceipt = fn
}

// Start listens until Shutdown, then returns http.ErrServerClosed.
func (s *Server) Start() error {
	s.logger.WithFields(logrus.Fields{
		"port":         s.cfg.Port,
		"inbound_path": s.cfg.InboundPath,
		"receipt_path": s.cfg.ReceiptPath,
	}).Info("Starting webhook server")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (s *Server) handleMetrics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		writeJSON(w, http.StatusOK, metrics.GetAllMetrics())
	}
}

// parseForm reads query and form values under the body limit. Both GET and
// POST callbacks carry the same fields.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request, kind string) bool {
	if err := validation.ValidateHTTPRequestSize(r, constants.MaxWebhookBodyBytes); err != nil {
		s.reject(w, r, kind, err)
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxWebhookBodyBytes)
	if err := r.ParseForm(); err != nil {
		s.reject(w, r, kind, err)
		return false
	}
	return true
}

// reject answers with the structured error body, always as an input error.
func (s *Server) reject(w http.ResponseWriter, r *http.Request, kind string, err error) {
	requestID := tracing.GetRequestID(r.Context())
	if apperrors.GetCode(err) != apperrors.ErrCodeInvalidInput {
		err = apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "unreadable webhook payload")
	}
	appErr, _ := apperrors.As(err)
	appErr = appErr.WithContext("callback", kind).WithUserMessage("Unreadable " + kind + " callback")

	metrics.IncrementCounter(metrics.WebhookRejectedTotal, map[string]string{"type": kind}, "Webhook callbacks rejected")
	s.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"type":       kind,
	}).WithError(appErr).Warn("Rejecting unreadable webhook payload")
	writeJSON(w, apperrors.HTTPStatusCode(appErr), apperrors.ToHTTPResponse(appErr, requestID))
}

func (s *Server) handleInbound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.parseForm(w, r, "inbound") {
			return
		}

		fields := logrus.Fields{"request_id": tracing.GetRequestID(r.Context())}

		s.inboundMu.Lock()
		defer s.inboundMu.Unlock()

		// The gateway retries anything but 200, so payloads that are not
		// inbound messages are acknowledged and dropped.
		if !s.handler.InboundText(r.Form) {
			metrics.IncrementCounter(metrics.WebhookReceivedTotal, map[string]string{"type": "inbound", "found": "false"}, "Webhook callbacks received")
			s.logger.WithFields(fields).Debug("Ignoring callback without an inbound message")
			w.WriteHeader(http.StatusOK)
			return
		}
		metrics.IncrementCounter(metrics.WebhookReceivedTotal, map[string]string{"type": "inbound", "found": "true"}, "Webhook callbacks received")

		msg, _ := s.handler.Inbound()
		fields["from"] = msg.From
		fields["to"] = msg.To
		fields["message_id"] = msg.MessageID
		fields = privacy.MaskSensitiveFields(fields)
		s.logger.WithFields(fields).Info("Inbound message received")

		if text := s.currentAutoReply(); text != "" {
			result, err := s.handler.Reply(r.Context(), text)
			switch {
			case err != nil:
				metrics.IncrementCounter(metrics.AutoRepliesTotal, map[string]string{"outcome": "error"}, "Auto-replies sent")
				s.logger.WithFields(fields).WithError(err).Error("Auto-reply failed")
			case !result.Delivered():
				metrics.IncrementCounter(metrics.AutoRepliesTotal, map[string]string{"outcome": "rejected"}, "Auto-replies sent")
				s.logger.WithFields(fields).Warn("Auto-reply rejected by gateway")
			default:
				metrics.IncrementCounter(metrics.AutoRepliesTotal, map[string]string{"outcome": "sent"}, "Auto-replies sent")
				s.logger.WithFields(fields).WithField("parts", result.MessageCount).Info("Auto-reply sent")
			}
		}

		w.WriteHeader(http.StatusOK)
	}
}

func (s *Server) handleReceipt() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.parseForm(w, r, "receipt") {
			return
		}

		receipt := nexmo.ParseReceipt(r.Form)
		fields := logrus.Fields{"request_id": tracing.GetRequestID(r.Context())}

		if !receipt.Found {
			metrics.IncrementCounter(metrics.WebhookReceivedTotal, map[string]string{"type": "receipt", "found": "false"}, "Webhook callbacks received")
			s.logger.WithFields(fields).Debug("Ignoring callback without a delivery receipt")
			w.WriteHeader(http.StatusOK)
			return
		}
		metrics.IncrementCounter(metrics.WebhookReceivedTotal, map[string]string{"type": "receipt", "found": "true"}, "Webhook callbacks received")

		fields["to"] = receipt.To
		fields["message_id"] = receipt.MessageID
		fields["status"] = receipt.Status
		fields["network_code"] = receipt.NetworkCode
		if !receipt.ReceivedTime.IsZero() {
			fields["received_time"] = receipt.ReceivedTime.Format(time.RFC3339)
		}

		entry := s.logger.WithFields(privacy.MaskSensitiveFields(fields))
		if receipt.Status.Known() {
			entry.Info("Delivery receipt received")
		} else {
			entry.Warn("Delivery receipt with unknown status")
		}

		if s.onReceipt != nil {
			s.onReceipt(receipt)
		}
		w.WriteHeader(http.StatusOK)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(v)
}
