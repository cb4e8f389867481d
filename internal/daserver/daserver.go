// Package daserver implements the DA HTTP surface of spec.md 6, using
// github.com/gin-gonic/gin. Grounded on provideplatform-privacy's
// InstallAPI(r *gin.Engine) handler-registration pattern from the
// retrieval pack (the teacher has no HTTP surface at all — its
// transport is QUIC/libp2p, out of scope here per spec.md 1).
package daserver

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jrocnet/ledger/internal/config"
	"github.com/jrocnet/ledger/internal/crypto/ed25519"
	"github.com/jrocnet/ledger/internal/da"
	"github.com/jrocnet/ledger/internal/policy"
)

// Server wires an internal/da.Store into the HTTP surface.
type Server struct {
	store    *da.Store
	stake    *policy.Stake
	cfg      config.NodeConfig
	operator ed25519.PublicKey
}

// New builds a Server over store, debiting/crediting stake on rollup
// settlement, authenticated and resource-capped per cfg.
func New(store *da.Store, stake *policy.Stake, cfg config.NodeConfig, operator ed25519.PublicKey) *Server {
	return &Server{store: store, stake: stake, cfg: cfg, operator: operator}
}

// InstallAPI registers the DA API handlers with gin, per spec.md 6's
// exact path list.
func (s *Server) InstallAPI(r *gin.Engine) {
	r.Use(s.authMiddleware)

	r.POST("/submit_blob", s.submitBlob)
	r.GET("/commitment/:ns/:hash", s.getCommitment)
	r.GET("/sample/:ns/:hash", s.sample)
	r.GET("/prove_storage/:ns/:hash/:idx", s.proveStorage)
	r.POST("/rollup_settle", s.rollupSettle)
	r.GET("/healthz", s.healthz)

	// Cross-cutting, not DA-specific, but shares this listener per
	// SPEC_FULL.md 4.O.
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// authMiddleware enforces the bearer-token/x-api-key check of spec.md
// 6, when a token is configured. /healthz is always open.
func (s *Server) authMiddleware(c *gin.Context) {
	if s.cfg.BearerToken == "" || c.FullPath() == "/healthz" {
		c.Next()
		return
	}

	token := c.GetHeader("x-api-key")
	if token == "" {
		auth := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
			token = auth[len(prefix):]
		}
	}
	if token != s.cfg.BearerToken {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "auth-required"})
		return
	}
	c.Next()
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// submitBlob implements POST /submit_blob: headers X-Namespace,
// optional X-Fee, X-Publisher (base64 pk), X-Publisher-Sig (base64 sig
// over the resulting share_root); body is the raw payload, capped at
// cfg.MaxBlobBytes before decoding per spec.md 5.
func (s *Server) submitBlob(c *gin.Context) {
	namespace := c.GetHeader("X-Namespace")
	if namespace == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "parse-invalid", "detail": "missing X-Namespace"})
		return
	}

	if c.Request.ContentLength > s.cfg.MaxBlobBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload-too-large"})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxBlobBytes)

	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload-too-large"})
		return
	}

	fee := uint64(0)
	if raw := c.GetHeader("X-Fee"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "parse-invalid", "detail": "bad X-Fee"})
			return
		}
		fee = parsed
	}

	var publisher ed25519.PublicKey
	if raw := c.GetHeader("X-Publisher"); raw != "" {
		decoded, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "parse-invalid", "detail": "bad X-Publisher"})
			return
		}
		publisher = ed25519.PublicKey(decoded)
	}

	shardSize := s.shardSizeFor(len(payload))
	commitment, err := s.store.Ingest(namespace, payload, shardSize, publisher, fee)
	if err != nil {
		if errors.Is(err, da.ErrFrozen) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "migration-frozen"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "parse-invalid", "detail": err.Error()})
		return
	}

	if sig := c.GetHeader("X-Publisher-Sig"); sig != "" && len(publisher) > 0 {
		decoded, err := base64.StdEncoding.DecodeString(sig)
		if err != nil || !ed25519.Verify(publisher, commitment.ShareRoot[:], decoded) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "envelope-invalid", "detail": "publisher signature invalid"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"hash":          hex.EncodeToString(commitment.Hash[:]),
		"share_root":    hex.EncodeToString(commitment.ShareRoot[:]),
		"pedersen_root": hex.EncodeToString(commitment.PedersenRoot[:]),
		"share_count":   commitment.ShareCount,
	})
}

func (s *Server) shardSizeFor(payloadLen int) int {
	const defaultShard = 4096
	if payloadLen < defaultShard {
		return payloadLen
	}
	return defaultShard
}

func parseHashParam(c *gin.Context) ([32]byte, bool) {
	raw, err := hex.DecodeString(c.Param("hash"))
	if err != nil || len(raw) != 32 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "parse-invalid", "detail": "bad hash"})
		return [32]byte{}, false
	}
	var out [32]byte
	copy(out[:], raw)
	return out, true
}

func (s *Server) getCommitment(c *gin.Context) {
	hash, ok := parseHashParam(c)
	if !ok {
		return
	}
	commitment, err := s.store.GetCommitment(c.Param("ns"), hash)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not-found"})
		return
	}
	c.JSON(http.StatusOK, commitment)
}

func (s *Server) sample(c *gin.Context) {
	hash, ok := parseHashParam(c)
	if !ok {
		return
	}
	count := 1
	if raw := c.Query("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "parse-invalid", "detail": "bad count"})
			return
		}
		count = parsed
	}
	proofs, err := s.store.Sample(c.Param("ns"), hash, count)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not-found", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"proofs": proofs})
}

func (s *Server) proveStorage(c *gin.Context) {
	hash, ok := parseHashParam(c)
	if !ok {
		return
	}
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "parse-invalid", "detail": "bad idx"})
		return
	}
	proof, err := s.store.ProveStorage(c.Param("ns"), hash, idx)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not-found", "detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, proof)
}

// rollupSettleRequest is the JSON body of POST /rollup_settle.
type rollupSettleRequest struct {
	Namespace    string `json:"namespace"`
	Hash         string `json:"hash"`
	ShareRoot    string `json:"share_root"`
	PedersenRoot string `json:"pedersen_root"`
}

// rollupSettle verifies a rollup's claimed commitment roots against
// the persisted commitment. On mismatch it records a rollup-fault
// evidence entry and answers 409 with error "rollup-fault"; the ingest
// fee is settled only when both roots match.
func (s *Server) rollupSettle(c *gin.Context) {
	var req rollupSettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "parse-invalid"})
		return
	}

	hash, ok := decodeHex32(req.Hash)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "parse-invalid", "detail": "bad hash"})
		return
	}
	commitment, err := s.store.GetCommitment(req.Namespace, hash)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not-found"})
		return
	}

	shareRoot, _ := decodeHex32(req.ShareRoot)
	pedersenRoot, _ := decodeHex32(req.PedersenRoot)
	if shareRoot != commitment.ShareRoot || pedersenRoot != commitment.PedersenRoot {
		_ = s.store.RecordEvidence(da.EvidenceRecord{
			Kind:      da.EvidenceRollupFault,
			Namespace: req.Namespace,
			Hash:      hash,
			Publisher: commitment.Publisher,
			Detail:    "rollup-claimed roots do not match persisted commitment",
		})
		c.JSON(http.StatusConflict, gin.H{"error": "rollup-fault"})
		return
	}

	da.SettleIngestFee(commitment, s.stake, s.operator, s.cfg.OperatorRewardBps)
	c.JSON(http.StatusOK, gin.H{"status": "settled"})
}

func decodeHex32(s string) ([32]byte, bool) {
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 32 {
		return [32]byte{}, false
	}
	var out [32]byte
	copy(out[:], raw)
	return out, true
}
