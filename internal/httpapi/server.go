// Package httpapi serves the scoring, RFM and profile endpoints over gin.
package httpapi

import (
	"github.com/gin-gonic/gin"

	"credit-risk-scoring/internal/observability"
	"credit-risk-scoring/internal/platform/logger"
	"credit-risk-scoring/internal/rfm"
	"credit-risk-scoring/internal/scoring"
	"credit-risk-scoring/internal/storage"
)

// DefaultMaxBodyBytes bounds request bodies when Options leaves it unset.
const DefaultMaxBodyBytes = 10 << 20

// Options wires the server's collaborators. Service may be nil, in which
// case scoring endpoints answer 503. Cache and Profiles are optional.
type Options struct {
	Service      *scoring.Service
	Aggregator   *rfm.Aggregator
	Cache        storage.ProfileCache
	Profiles     storage.ProfileStore
	Logger       *logger.Logger
	MaxBodyBytes int64
}

// Server holds handler dependencies. It is immutable after New.
type Server struct {
	svc      *scoring.Service
	agg      *rfm.Aggregator
	cache    storage.ProfileCache
	profiles storage.ProfileStore
	log      *logger.Logger
	maxBody  int64
}

// New creates a server from opts.
func New(opts Options) *Server {
	s := &Server{
		svc:      opts.Service,
		agg:      opts.Aggregator,
		cache:    opts.Cache,
		profiles: opts.Profiles,
		log:      opts.Logger,
		maxBody:  opts.MaxBodyBytes,
	}
	if s.agg == nil {
		s.agg = rfm.NewAggregator()
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxBodyBytes
	}
	return s
}

// Router builds the gin engine with middleware and routes.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), s.Recovery(), s.AccessLog(), Metrics(), BodyLimit(s.maxBody))

	router.GET("/health", s.Health)
	router.POST("/predict", s.Predict)
	router.GET("/metrics", gin.WrapH(observability.Handler()))

	v1 := router.Group("/v1")
	{
		v1.POST("/rfm", s.ComputeRFM)
		v1.GET("/schema", s.Schema)
		v1.GET("/profiles/:customer_id", s.GetProfile)
		v1.POST("/profiles/:customer_id/predict", s.PredictProfile)
	}

	router.NoRoute(func(c *gin.Context) {
		writeError(c, 404, CodeNotFound, "", "route not found")
	})
	return router
}
