package repository

import (
	"budget-backend/internal/app/ds"
	"budget-backend/internal/app/ledger"
)

func (r *Repository) CreateSupportingDocument(doc *ds.SupportingDocument) error {
	if doc.FileName == "" || doc.ObjectKey == "" {
		return &ledger.ValidationError{Field: "file_name", Message: "required"}
	}
	return translateError("create supporting document", r.db.Create(doc).Error)
}

func (r *Repository) ListSupportingDocuments(docType ds.DocumentType, docID string) ([]ds.SupportingDocument, error) {
	var docs []ds.SupportingDocument
	err := r.db.Where("document_type = ? AND document_id = ?", docType, docID).
		Order("uploaded_at").Find(&docs).Error
	if err != nil {
		return nil, translateError("list supporting documents", err)
	}
	return docs, nil
}

func (r *Repository) GetSupportingDocument(id uint) (*ds.SupportingDocument, error) {
	var doc ds.SupportingDocument
	if err := r.db.First(&doc, id).Error; err != nil {
		return nil, translateError("get supporting document", err)
	}
	return &doc, nil
}
