package api

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/william251082/fileupload/errors"
	"github.com/william251082/fileupload/logger"
	"github.com/william251082/fileupload/reference"
	"github.com/william251082/fileupload/server"
	"github.com/william251082/fileupload/validation"
)

// base64Upload is the JSON alternative to a multipart upload.
type base64Upload struct {
	Filename   string `json:"filename" validate:"required,max=255"`
	MimeType   string `json:"mimeType" validate:"omitempty,mediatype"`
	Base64Data string `json:"base64Data" validate:"required"`
}

func (h *Handler) uploadReference(c *gin.Context) {
	a, err := h.managedArticle(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	if c.ContentType() == gin.MIMEJSON {
		h.uploadBase64(c, a.ID)
		return
	}

	part, err := filePart(c, reference.UploadField)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	in := reference.UploadInput{ArticleID: a.ID, DeclaredSize: -1}
	if part != nil {
		defer part.Close()
		in.File = part
		in.OriginalFilename = part.FileName()
		in.DeclaredMimeType = part.Header.Get("Content-Type")
	}

	ref, err := h.refs.Upload(c.Request.Context(), in)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, h.referenceView(ref))
}

func (h *Handler) uploadBase64(c *gin.Context, articleID uint64) {
	var body base64Upload
	if err := c.ShouldBindJSON(&body); err != nil {
		server.RespondWithError(c, bodyError(err))
		return
	}
	if err := validation.Validate(body); err != nil {
		server.RespondWithError(c, err)
		return
	}

	staged, err := reference.StageBase64(strings.NewReader(body.Base64Data), h.stagingDir)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	defer staged.Close()

	ref, err := h.refs.Upload(c.Request.Context(), reference.UploadInput{
		ArticleID:        articleID,
		File:             staged,
		OriginalFilename: body.Filename,
		DeclaredMimeType: body.MimeType,
		DeclaredSize:     staged.Size,
	})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondCreated(c, h.referenceView(ref))
}

func (h *Handler) listReferences(c *gin.Context) {
	a, err := h.managedArticle(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	refs, err := h.refs.List(c.Request.Context(), a.ID)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, h.referenceViews(refs))
}

func (h *Handler) reorderReferences(c *gin.Context) {
	a, err := h.managedArticle(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	raw, err := c.GetRawData()
	if err != nil {
		server.RespondWithError(c, bodyError(err))
		return
	}
	order, err := reference.ParseOrder(raw)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	refs, err := h.refs.Reorder(c.Request.Context(), a.ID, order)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, h.referenceViews(refs))
}

func (h *Handler) downloadReference(c *gin.Context) {
	claims, err := claimsFrom(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	id, err := idParam(c, "id", "reference")
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	res, err := h.refs.Resolve(c.Request.Context(), id, func(_ context.Context, ref *reference.Reference) error {
		_, err := h.authorizeArticle(c, claims, ref.ArticleID)
		return err
	})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if res.IsRedirect() {
		c.Redirect(http.StatusFound, res.RedirectURL)
		return
	}
	defer res.Stream.Close()

	size := res.Size
	if size <= 0 {
		size = -1
	}
	c.DataFromReader(http.StatusOK, size, res.ContentType, res.Stream, map[string]string{
		"Content-Disposition": res.ContentDisposition(),
	})
	if len(c.Errors) > 0 {
		h.log.WithContext(c.Request.Context()).Debug("download aborted", logger.Fields(
			logger.FieldReferenceID, id, logger.FieldError, c.Errors.Last().Error(),
		))
	}
}

func (h *Handler) updateReference(c *gin.Context) {
	ref, err := h.managedReference(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	var patch reference.MetadataPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		server.RespondWithError(c, bodyError(err))
		return
	}
	updated, err := h.refs.Update(c.Request.Context(), ref.ID, patch)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, h.referenceView(updated))
}

func (h *Handler) deleteReference(c *gin.Context) {
	ref, err := h.managedReference(c)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if err := h.refs.Remove(c.Request.Context(), ref.ID); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondNoContent(c)
}

// filePart advances a multipart body to the file part named field. The part
// is streamed, never buffered to disk. A nil part means the field is absent.
func filePart(c *gin.Context, field string) (*multipart.Part, error) {
	mr, err := c.Request.MultipartReader()
	if err != nil {
		return nil, apperrors.Validation("Expected a multipart/form-data or application/json body.")
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			return nil, bodyError(err)
		}
		if part.FormName() == field && part.FileName() != "" {
			return part, nil
		}
		_ = part.Close()
	}
}

// bodyError maps a failure to read or decode the request body.
func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.FileTooLarge("body", tooLarge.Limit).WithCause(err)
	}
	return apperrors.Validation("Invalid body").WithCause(err)
}
