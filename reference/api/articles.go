package api

import (
	"github.com/gin-gonic/gin"

	"github.com/william251082/fileupload/article"
	apperrors "github.com/william251082/fileupload/errors"
	"github.com/william251082/fileupload/server"
	"github.com/william251082/fileupload/validation"
)

type createArticleBody struct {
	Title string `json:"title" validate:"required,min=1,max=255"`
}

func (h *Handler) createArticle(c *gin.Context) {
	claims, err := claimsFrom(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if !h.policy.CanCreate(claims) {
		server.RespondWithError(c, apperrors.Forbidden("You are not allowed to create articles."))
		return
	}

	var body createArticleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		server.RespondWithError(c, bodyError(err))
		return
	}
	if err := validation.Validate(body); err != nil {
		server.RespondWithError(c, err)
		return
	}

	a := &article.Article{Title: body.Title, AuthorID: claims.Subject}
	if err := h.articles.Create(c.Request.Context(), a); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, h.articleView(a))
}

func (h *Handler) getArticle(c *gin.Context) {
	a, err := h.managedArticle(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, h.articleView(a))
}

func (h *Handler) uploadImage(c *gin.Context) {
	a, err := h.managedArticle(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if h.images == nil {
		server.RespondWithError(c, apperrors.NotFound("route", c.FullPath()))
		return
	}

	part, err := filePart(c, article.ImageField)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if part == nil {
		server.RespondWithError(c, apperrors.MissingField(article.ImageField, "Please select an image to upload"))
		return
	}
	defer part.Close()

	updated, err := h.images.Upload(c.Request.Context(), a.ID, part, part.FileName(),
		part.Header.Get("Content-Type"), -1)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, h.articleView(updated))
}
