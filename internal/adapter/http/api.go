package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/couchcryptid/flood-alert-service/internal/domain"
)

type notifyRequest struct {
	domain.FieldSet
	Recipient string `json:"recipient"`
}

// POST /api/v1/predict
func (s *Server) handlePredict(c *gin.Context) {
	var f domain.FieldSet
	if err := c.ShouldBindJSON(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := s.svc.Predict(c.Request.Context(), f)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// POST /api/v1/notify
func (s *Server) handleNotify(c *gin.Context) {
	var req notifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	out, err := s.svc.Notify(c.Request.Context(), req.FieldSet, req.Recipient)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/v1/map?threshold=200&flood=0
func (s *Server) handleMap(c *gin.Context) {
	threshold, floodFlag, err := s.mapQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	view, err := s.svc.Map(c.Request.Context(), threshold, floodFlag)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

// GET /api/v1/contract
func (s *Server) handleContract(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version": domain.FeatureContractVersion,
		"columns": domain.FeatureColumns,
	})
}

// mapQuery reads the optional map filter, falling back to the configured one.
func (s *Server) mapQuery(c *gin.Context) (float64, int, error) {
	threshold, floodFlag := s.svc.MapFilter()

	if raw := c.Query("threshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, 0, errors.New("invalid threshold")
		}
		threshold = v
	}
	if raw := c.Query("flood"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || (v != 0 && v != 1) {
			return 0, 0, errors.New("invalid flood flag: must be 0 or 1")
		}
		floodFlag = v
	}
	return threshold, floodFlag, nil
}

// statusFor maps validation failures to 400. Everything else, including
// *pipeline.DatasetError, is a 500.
func statusFor(err error) int {
	if errors.Is(err, domain.ErrInvalidField) || errors.Is(err, domain.ErrUnknownCategory) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
