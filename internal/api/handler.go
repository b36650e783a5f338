// Package api exposes the verifier over JSON/HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/0gfoundation/0g-sigverify/internal/auth"
	"github.com/0gfoundation/0g-sigverify/internal/hexcodec"
	"github.com/0gfoundation/0g-sigverify/internal/sigerr"
	"github.com/0gfoundation/0g-sigverify/internal/signature"
	"github.com/0gfoundation/0g-sigverify/internal/verifier"
)

const (
	encodingUTF8 = "utf8"
	encodingHex  = "hex"

	reasonReplayed = "replayed"
)

// ReplayGuard is satisfied by replay.Guard.
// Decoupled here so handler tests can run without Redis.
type ReplayGuard interface {
	Consume(ctx context.Context, sig []byte) (bool, error)
	Seen(ctx context.Context, sig []byte) (bool, error)
}

type VerifyRequest struct {
	Message         string `json:"message"`
	Signature       string `json:"signature" binding:"required"`
	Expected        string `json:"expected" binding:"required"`
	MessageEncoding string `json:"message_encoding"`
}

type VerifyResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

type RecoverRequest struct {
	Message         string `json:"message"`
	Signature       string `json:"signature" binding:"required"`
	MessageEncoding string `json:"message_encoding"`
}

type RecoverResponse struct {
	Address string `json:"address"`
}

type ReplayStatusRequest struct {
	Signature string `json:"signature" binding:"required"`
}

type ReplayStatusResponse struct {
	Consumed bool `json:"consumed"`
}

// Handler wires up the verification routes onto a Gin engine.
type Handler struct {
	v     *verifier.Verifier
	guard ReplayGuard
	log   *zap.Logger
}

// NewHandler returns a Handler. guard may be nil, which disables replay
// protection on /verify.
func NewHandler(v *verifier.Verifier, guard ReplayGuard, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{v: v, guard: guard, log: log}
}

// Register mounts the unauthenticated routes. The replay status route is
// only mounted when a guard is configured.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/verify", h.handleVerify)
	rg.POST("/recover", h.handleRecover)
	if h.guard != nil {
		rg.POST("/replay/status", h.handleReplayStatus)
	}
}

// RegisterAuthed mounts routes that need a signed request. authMiddleware
// should already be applied to the group.
func (h *Handler) RegisterAuthed(rg *gin.RouterGroup) {
	rg.GET("/whoami", h.handleWhoAmI)
}

func (h *Handler) handleVerify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg, err := decodeMessage(req.Message, req.MessageEncoding)
	if err != nil {
		if errors.Is(err, errUnknownEncoding) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, VerifyResponse{Valid: false})
		return
	}

	if !h.v.VerifyHex(msg, req.Signature, req.Expected) {
		c.JSON(http.StatusOK, VerifyResponse{Valid: false})
		return
	}

	if h.guard != nil {
		// VerifyHex accepted it, so it decodes.
		sig, _ := canonicalSignature(req.Signature)
		fresh, err := h.guard.Consume(c.Request.Context(), sig)
		if err != nil {
			h.log.Error("replay guard", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if !fresh {
			h.log.Info("replayed signature", zap.String("expected", req.Expected))
			c.JSON(http.StatusOK, VerifyResponse{Valid: false, Reason: reasonReplayed})
			return
		}
	}
	c.JSON(http.StatusOK, VerifyResponse{Valid: true})
}

func (h *Handler) handleRecover(c *gin.Context) {
	var req RecoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg, err := decodeMessage(req.Message, req.MessageEncoding)
	if err != nil {
		if errors.Is(err, errUnknownEncoding) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": sigerr.Kind(err)})
		return
	}

	addr, err := h.v.RecoverSignerHex(msg, req.Signature)
	if err != nil {
		h.log.Debug("recover failed", zap.String("kind", sigerr.Kind(err)), zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": sigerr.Kind(err)})
		return
	}
	c.JSON(http.StatusOK, RecoverResponse{Address: hexcodec.EncodeAddress(addr)})
}

func (h *Handler) handleReplayStatus(c *gin.Context) {
	var req ReplayStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sig, err := canonicalSignature(req.Signature)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": sigerr.Kind(err)})
		return
	}
	seen, err := h.guard.Seen(c.Request.Context(), sig)
	if err != nil {
		h.log.Error("replay guard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, ReplayStatusResponse{Consumed: seen})
}

func (h *Handler) handleWhoAmI(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"wallet": auth.Wallet(c)})
}

// canonicalSignature decodes sigHex and re-encodes it with V in {0, 1}, so
// the 27/28 and 0/1 spellings of one signature share a replay key.
func canonicalSignature(sigHex string) ([]byte, error) {
	raw, err := hexcodec.DecodeSignature(sigHex)
	if err != nil {
		return nil, err
	}
	decoded, err := signature.Decode(raw)
	if err != nil {
		return nil, err
	}
	return decoded.Bytes(), nil
}

var errUnknownEncoding = errors.New("unknown message_encoding")

func decodeMessage(s, encoding string) ([]byte, error) {
	switch encoding {
	case "", encodingUTF8:
		return []byte(s), nil
	case encodingHex:
		b, err := hexcodec.Decode(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", sigerr.ErrMalformedMessage, err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w %q", errUnknownEncoding, encoding)
	}
}
