package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/william251082/fileupload/article"
	"github.com/william251082/fileupload/auth"
	"github.com/william251082/fileupload/auth/authctx"
	apperrors "github.com/william251082/fileupload/errors"
	"github.com/william251082/fileupload/logger"
	"github.com/william251082/fileupload/reference"
)

// Options configures a Handler.
type Options struct {
	References *reference.Service
	Articles   *article.Store
	Images     *article.ImageUploader
	Policy     *article.Policy
	// StagingDir receives decoded base64 uploads.
	StagingDir string
	// UploadMiddleware runs in front of the upload routes only, e.g. a
	// rate limiter.
	UploadMiddleware []gin.HandlerFunc
}

// Handler serves the article and reference routes.
type Handler struct {
	refs       *reference.Service
	articles   *article.Store
	images     *article.ImageUploader
	policy     *article.Policy
	stagingDir string
	uploadMW   []gin.HandlerFunc
	basePath   string
	log        *logger.Logger
}

func NewHandler(opts Options, log *logger.Logger) *Handler {
	return &Handler{
		refs:       opts.References,
		articles:   opts.Articles,
		images:     opts.Images,
		policy:     opts.Policy,
		stagingDir: opts.StagingDir,
		uploadMW:   opts.UploadMiddleware,
		log:        log.WithComponent("reference-api"),
	}
}

// Register mounts the routes on rg.
func (h *Handler) Register(rg *gin.RouterGroup) {
	h.basePath = rg.BasePath()
	if h.basePath == "/" {
		h.basePath = ""
	}

	rg.POST("/articles", h.createArticle)
	rg.GET("/articles/:articleId", h.getArticle)
	rg.POST("/articles/:articleId/image", h.withUploadMW(h.uploadImage)...)

	rg.GET("/articles/:articleId/references", h.listReferences)
	rg.POST("/articles/:articleId/references", h.withUploadMW(h.uploadReference)...)
	rg.POST("/articles/:articleId/references/reorder", h.reorderReferences)

	rg.GET("/references/:id/download", h.downloadReference)
	rg.PUT("/references/:id", h.updateReference)
	rg.DELETE("/references/:id", h.deleteReference)
}

func (h *Handler) withUploadMW(final gin.HandlerFunc) []gin.HandlerFunc {
	chain := make([]gin.HandlerFunc, 0, len(h.uploadMW)+1)
	chain = append(chain, h.uploadMW...)
	return append(chain, final)
}

func claimsFrom(c *gin.Context) (*auth.Claims, error) {
	claims, ok := authctx.Get[*auth.Claims](c.Request.Context())
	if !ok || claims == nil {
		return nil, apperrors.Unauthorized("")
	}
	return claims, nil
}

func idParam(c *gin.Context, name, resource string) (uint64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.NotFound(resource, raw)
	}
	return id, nil
}

// managedArticle loads the article named in the path and checks that the
// caller may manage it.
func (h *Handler) managedArticle(c *gin.Context) (*article.Article, error) {
	claims, err := claimsFrom(c)
	if err != nil {
		return nil, err
	}
	id, err := idParam(c, "articleId", "article")
	if err != nil {
		return nil, err
	}
	return h.authorizeArticle(c, claims, id)
}

func (h *Handler) authorizeArticle(c *gin.Context, claims *auth.Claims, id uint64) (*article.Article, error) {
	a, err := h.articles.Get(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if err := h.policy.Authorize(claims, a); err != nil {
		return nil, err
	}
	return a, nil
}

// managedReference loads the reference named in the path and checks the
// caller against its article.
func (h *Handler) managedReference(c *gin.Context) (*reference.Reference, error) {
	claims, err := claimsFrom(c)
	if err != nil {
		return nil, err
	}
	id, err := idParam(c, "id", "reference")
	if err != nil {
		return nil, err
	}
	ref, err := h.refs.Get(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if _, err := h.authorizeArticle(c, claims, ref.ArticleID); err != nil {
		return nil, err
	}
	return ref, nil
}
