package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"budget-backend/internal/app/ds"
	"budget-backend/internal/app/dto"
	"budget-backend/internal/app/workflow"
)

// workflowAction adapts one state machine action to an HTTP endpoint
// for one document kind.
func (h *Handler) workflowAction(dt ds.DocumentType, action workflow.Action) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, err := parseUUIDParam(ctx, "id")
		if err != nil {
			h.fail(ctx, err)
			return
		}
		var req dto.WorkflowActionRequest
		_ = ctx.ShouldBindJSON(&req)

		ref := workflow.DocumentRef{Type: dt, ID: id}
		actor := h.actorID(ctx)

		switch action {
		case workflow.ActionSubmit:
			err = h.Workflow.Submit(ref, actor)
		case workflow.ActionPartiallyApprove:
			err = h.Workflow.PartiallyApprove(ref, actor, req.Notes)
		case workflow.ActionReject:
			err = h.Workflow.Reject(ref, actor, req.Reason)
		case workflow.ActionVerifyApprove:
			err = h.Workflow.VerifyApprove(ref, actor)
		case workflow.ActionVerifyReject:
			err = h.Workflow.VerifyReject(ref, actor, req.Reason)
		default:
			err = errors.New("unsupported workflow action")
		}
		if err != nil {
			h.fail(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"status": "success", "action": action})
	}
}

// UploadSignedCopy stores the signed hard copy in object storage,
// records its metadata and advances the document to verification.
func (h *Handler) UploadSignedCopy(dt ds.DocumentType) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, err := parseUUIDParam(ctx, "id")
		if err != nil {
			h.fail(ctx, err)
			return
		}
		if h.Storage == nil {
			h.errorHandler(ctx, http.StatusServiceUnavailable, errors.New("document storage is not configured"))
			return
		}

		fileHeader, err := ctx.FormFile("file")
		if err != nil {
			h.errorHandler(ctx, http.StatusBadRequest, errors.New("signed copy file is required"))
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			h.errorHandler(ctx, http.StatusBadRequest, err)
			return
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			h.errorHandler(ctx, http.StatusInternalServerError, err)
			return
		}

		objectKey, err := h.Storage.UploadDocument(data, fileHeader.Filename)
		if err != nil {
			h.errorHandler(ctx, http.StatusInternalServerError, err)
			return
		}

		actor := h.actorID(ctx)
		doc := ds.SupportingDocument{
			DocumentType: dt,
			DocumentID:   id.String(),
			FileName:     fileHeader.Filename,
			ObjectKey:    objectKey,
			FileSize:     fileHeader.Size,
			IsSignedCopy: true,
			UploadedByID: actor,
		}
		if err := h.Repository.CreateSupportingDocument(&doc); err != nil {
			h.fail(ctx, err)
			return
		}

		ref := workflow.DocumentRef{Type: dt, ID: id}
		if err := h.Workflow.UploadSigned(ref, actor); err != nil {
			h.fail(ctx, err)
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": doc})
	}
}

// ListDocuments returns uploaded files of a document with presigned
// download links.
func (h *Handler) ListDocuments(dt ds.DocumentType) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, err := parseUUIDParam(ctx, "id")
		if err != nil {
			h.fail(ctx, err)
			return
		}
		docs, err := h.Repository.ListSupportingDocuments(dt, id.String())
		if err != nil {
			h.fail(ctx, err)
			return
		}

		type docWithURL struct {
			ds.SupportingDocument
			URL string `json:"url,omitempty"`
		}
		out := make([]docWithURL, len(docs))
		for i, d := range docs {
			out[i].SupportingDocument = d
			if h.Storage != nil {
				if url, err := h.Storage.GetDocumentURL(d.ObjectKey); err == nil {
					out[i].URL = url
				}
			}
		}
		ctx.JSON(http.StatusOK, gin.H{"status": "success", "data": out, "total": len(out)})
	}
}
